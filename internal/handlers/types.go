package handlers

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Details   map[string]string `json:"details,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// BackupSetResponse is one pair with its last reported snapshot
type BackupSetResponse struct {
	Source        string `json:"source"`
	Destination   string `json:"destination"`
	LastFileCount int64  `json:"last_file_count"`
	LastFileSize  int64  `json:"last_file_size"`
	LastDate      string `json:"last_date"`
	LastTime      string `json:"last_time"`
	DaysSince     int    `json:"days_since"`
}

// SchedulerStatus describes the cycle scheduler
type SchedulerStatus struct {
	Status    string     `json:"status"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}
