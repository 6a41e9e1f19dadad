package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned by RunOnce while a cycle is in progress.
var ErrBusy = errors.New("a cycle is already running")

// Job is one collect and report cycle.
type Job func(ctx context.Context) error

// Scheduler runs the job on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	spec      string
	job       Job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex

	// cycle is held for the length of one job run, scheduled or manual.
	cycle   sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewScheduler creates a scheduler for a six-field cron spec
func NewScheduler(spec string, job Job) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	logger := cron.VerbosePrintfLogger(logrus.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:   spec,
		job:    job,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	entryID, err := s.cron.AddFunc(s.spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with schedule: %s", s.spec)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) runScheduled() {
	if err := s.run(); err != nil && !errors.Is(err, ErrBusy) {
		logrus.Errorf("Scheduled cycle failed: %v", err)
	}
}

func (s *Scheduler) run() error {
	if !s.cycle.TryLock() {
		logrus.Info("Cycle already in progress, skipping")
		return ErrBusy
	}
	defer s.cycle.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Info("Starting cycle")
	startTime := time.Now()
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	err := s.job(ctx)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastErr = err
	s.mu.Unlock()

	logrus.Infof("Cycle completed in %v", time.Since(startTime))
	return err
}

// RunOnce runs the job now, unless a cycle is already running.
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running cycle once")
	return s.run()
}

// GetNextRun returns the time of the next scheduled run
func (s *Scheduler) GetNextRun() time.Time {
	if !s.IsRunning() {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the start time of the last cycle
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// LastError returns the outcome of the last cycle
func (s *Scheduler) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Wait waits for a running cycle to finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
