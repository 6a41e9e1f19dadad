package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dcurrey/dupReport/internal/report"
)

// GetBackupSets returns every known pair. ?sort=destination orders by
// destination first.
func (h *Handlers) GetBackupSets(c *gin.Context) {
	sets, err := h.repo.ListBackupSets(c.Query("sort") == "destination")
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch backup sets",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	now := time.Now()
	responses := make([]BackupSetResponse, 0, len(sets))
	for _, set := range sets {
		responses = append(responses, BackupSetResponse{
			Source:        set.Source,
			Destination:   set.Destination,
			LastFileCount: set.LastFileCount,
			LastFileSize:  set.LastFileSize,
			LastDate:      set.LastDate,
			LastTime:      set.LastTime,
			DaysSince:     report.DaysSince(set.LastDate, now),
		})
	}
	c.JSON(http.StatusOK, responses)
}
