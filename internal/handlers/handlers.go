package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/dcurrey/dupReport/internal/metrics"
	"github.com/dcurrey/dupReport/internal/repository"
)

// Scheduler is the part of the cycle scheduler the API reports on.
type Scheduler interface {
	IsRunning() bool
	RunOnce() error
	GetNextRun() time.Time
	GetLastRun() time.Time
	LastError() error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      *repository.Repository
	scheduler Scheduler
	metrics   *metrics.Metrics
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, s Scheduler, m *metrics.Metrics) *Handlers {
	return &Handlers{db: db, repo: repository.New(db), scheduler: s, metrics: m}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.GET("/backupsets", h.GetBackupSets)
		api.GET("/emails", h.GetEmails)

		api.POST("/scheduler/run-once", h.RunOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}
