package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcurrey/dupReport/internal/scheduler"
)

// RunOnce runs one collect and report cycle and waits for it
func (h *Handlers) RunOnce(c *gin.Context) {
	err := h.scheduler.RunOnce()
	switch {
	case errors.Is(err, scheduler.ErrBusy):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "busy", Message: err.Error(), Code: http.StatusConflict})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cycle_failed", Message: err.Error(), Code: http.StatusInternalServerError})
	default:
		c.Status(http.StatusOK)
	}
}

// GetSchedulerStatus returns scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	status := SchedulerStatus{Status: "stopped"}
	if h.scheduler.IsRunning() {
		status.Status = "running"
		next := h.scheduler.GetNextRun()
		status.NextRun = &next
	}
	if last := h.scheduler.GetLastRun(); !last.IsZero() {
		status.LastRun = &last
	}
	if err := h.scheduler.LastError(); err != nil {
		status.LastError = err.Error()
	}
	c.JSON(http.StatusOK, status)
}
