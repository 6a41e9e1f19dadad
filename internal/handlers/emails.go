package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dcurrey/dupReport/internal/repository"
)

const defaultEmailLimit = 100

// GetEmails returns stored notifications, newest first
func (h *Handlers) GetEmails(c *gin.Context) {
	filter := repository.EmailFilter{
		Source:      c.Query("source"),
		Destination: c.Query("destination"),
		Limit:       defaultEmailLimit,
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_limit", Message: "limit must be a positive integer", Code: http.StatusBadRequest})
			return
		}
		filter.Limit = limit
	}

	emails, err := h.repo.ListEmails(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch emails",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, emails)
}
