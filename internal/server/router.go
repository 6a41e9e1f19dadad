package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/handlers"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Minute
)

// SetupRouter configures routes and middleware
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())
	h.SetupRoutes(router)
	return router
}

// New returns the HTTP server for the status API. The write timeout
// covers a synchronous run-once cycle.
func New(addr string, h *handlers.Handlers) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      SetupRouter(h),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func loggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: logrus.StandardLogger().Out,
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC1123),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	})
}
