package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron schedules. Schedules take an optional
// seconds field and the @hourly/@daily/@weekly/@monthly shortcuts.
type Scheduler struct {
	cron     *cron.Cron
	logger   *zap.Logger
	timeout  time.Duration
	entryMap map[string]cron.EntryID
	mu       sync.RWMutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(logger *zap.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
		timeout:  timeout,
		entryMap: make(map[string]cron.EntryID),
		ctx:      context.Background(),
	}
}

// Add registers job under schedule, replacing any job with the same name.
func (s *Scheduler) Add(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entryMap[job.Name()]; ok {
		s.cron.Remove(entryID)
		delete(s.entryMap, job.Name())
	}

	entryID, err := s.cron.AddFunc(normalizeSchedule(schedule), func() {
		s.mu.RLock()
		parent := s.ctx
		s.mu.RUnlock()

		ctx, cancel := context.WithTimeout(parent, s.timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", job.Name()), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled job finished",
			zap.String("job", job.Name()), zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", schedule, err)
	}

	s.entryMap[job.Name()] = entryID
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", zap.Int("jobs", len(s.entryMap)))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// NextRun returns when the named job fires next, or nil if it is unknown
// or the scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entryID, ok := s.entryMap[name]; ok {
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func normalizeSchedule(schedule string) string {
	schedule = strings.TrimSpace(schedule)

	switch schedule {
	case "@hourly":
		return "0 0 * * * *"
	case "@daily":
		return "0 0 0 * * *"
	case "@weekly":
		return "0 0 0 * * 0"
	case "@monthly":
		return "0 0 0 1 * *"
	}

	// Five fields is classic cron; pin it to second zero.
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}
