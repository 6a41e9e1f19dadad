package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcurrey/dupReport/internal/db"
	"github.com/dcurrey/dupReport/internal/metrics"
	"github.com/dcurrey/dupReport/internal/models"
	"github.com/dcurrey/dupReport/internal/repository"
	"github.com/dcurrey/dupReport/internal/scheduler"
)

type fakeScheduler struct {
	running bool
	err     error
	runs    int
	last    time.Time
}

func (f *fakeScheduler) IsRunning() bool       { return f.running }
func (f *fakeScheduler) GetNextRun() time.Time { return time.Date(2021, 3, 16, 6, 0, 0, 0, time.UTC) }
func (f *fakeScheduler) GetLastRun() time.Time { return f.last }
func (f *fakeScheduler) LastError() error      { return f.err }
func (f *fakeScheduler) RunOnce() error {
	f.runs++
	f.last = time.Now()
	return f.err
}

func setupRouter(t *testing.T, sched Scheduler) (*gin.Engine, *repository.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.Options{Driver: "sqlite", File: filepath.Join(t.TempDir(), "dupReport.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Initialize(gdb))

	h := NewHandlers(gdb, sched, metrics.NewMetrics())
	router := gin.New()
	h.SetupRoutes(router)
	return router, repository.New(gdb)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, repo *repository.Repository) {
	t.Helper()
	for _, pair := range [][2]string{{"Home", "Cloud"}, {"Laptop", "NAS"}} {
		_, err := repo.EnsureBackupSet(pair[0], pair[1])
		require.NoError(t, err)
	}
	for i, id := range []string{"<a@x>", "<b@x>", "<c@x>"} {
		require.NoError(t, repo.SaveEmail(&models.Email{
			MessageID:  id,
			SourceComp: "Home",
			DestComp:   "Cloud",
			EndDate:    "2021/03/1" + string(rune('0'+i)),
			EndTime:    "10:00:00",
		}))
	}
}

func TestHealthCheck(t *testing.T) {
	router, repo := setupRouter(t, &fakeScheduler{running: true})
	seed(t, repo)

	w := get(router, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Database)
	assert.Equal(t, "3", resp.Details["emails"])
	assert.Equal(t, "running", resp.Details["scheduler"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupRouter(t, &fakeScheduler{})

	w := get(router, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dupreport_fetch_count")
}

func TestGetBackupSets(t *testing.T) {
	router, repo := setupRouter(t, &fakeScheduler{})
	seed(t, repo)

	w := get(router, "/api/v1/backupsets")
	require.Equal(t, http.StatusOK, w.Code)

	var sets []BackupSetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sets))
	require.Len(t, sets, 2)
	assert.Equal(t, "Home", sets[0].Source)
	assert.Equal(t, models.EpochDate, sets[0].LastDate)
	assert.Positive(t, sets[0].DaysSince)

	w = get(router, "/api/v1/backupsets?sort=destination")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sets))
	assert.Equal(t, "Cloud", sets[0].Destination)
}

func TestGetEmails(t *testing.T) {
	router, repo := setupRouter(t, &fakeScheduler{})
	seed(t, repo)

	w := get(router, "/api/v1/emails?source=Home&limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var emails []models.Email
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &emails))
	require.Len(t, emails, 2)
	assert.Equal(t, "<c@x>", emails[0].MessageID)

	w = get(router, "/api/v1/emails?destination=NAS")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &emails))
	assert.Empty(t, emails)

	w = get(router, "/api/v1/emails?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"success", nil, http.StatusOK},
		{"busy", scheduler.ErrBusy, http.StatusConflict},
		{"failed", errors.New("smtp down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeScheduler{err: tt.err}
			router, _ := setupRouter(t, sched)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scheduler/run-once", nil))
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, 1, sched.runs)
		})
	}
}

func TestGetSchedulerStatus(t *testing.T) {
	sched := &fakeScheduler{running: true, err: errors.New("login failed"), last: time.Now()}
	router, _ := setupRouter(t, sched)

	w := get(router, "/api/v1/scheduler/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status SchedulerStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status.Status)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, 2021, status.NextRun.Year())
	assert.NotNil(t, status.LastRun)
	assert.Equal(t, "login failed", status.LastError)
}
