package scheduler

import (
	"context"
	"driveet-backend/internal/services"
	"driveet-backend/pkg/logger"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one maintenance job. Run reports how many records it touched.
type Task struct {
	Name string
	Run  func() (int64, error)
}

// DefaultTasks are the bundle and order sweeps run on every tick.
func DefaultTasks() []Task {
	return []Task{
		{Name: "reset_daily_chats", Run: func() (int64, error) {
			n, err := services.ResetDailyChats()
			return int64(n), err
		}},
		{Name: "expire_bundles", Run: func() (int64, error) {
			n, err := services.ExpireBundles()
			return int64(n), err
		}},
		{Name: "expire_orders", Run: services.ExpireStaleOrders},
	}
}

type Config struct {
	Interval time.Duration
	Tasks    []Task
}

type Scheduler struct {
	interval time.Duration
	tasks    []Task
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

func NewScheduler(config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 15 * time.Minute
	}
	if config.Tasks == nil {
		config.Tasks = DefaultTasks()
	}

	return &Scheduler{
		interval: config.Interval,
		tasks:    config.Tasks,
	}
}

// Start runs every task once and then on each interval until ctx is done or
// Stop is called. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	logger.Log.Info("maintenance scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("tasks", len(s.tasks)),
	)

	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	logger.Log.Info("maintenance scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce executes each task in order. A failing task is logged and does not
// prevent the rest from running.
func (s *Scheduler) RunOnce() {
	for _, task := range s.tasks {
		start := time.Now()
		n, err := s.runTask(task)
		if err != nil {
			logger.Log.Error("maintenance task failed",
				zap.String("task", task.Name),
				zap.Error(err),
			)
			continue
		}
		logger.Log.Debug("maintenance task finished",
			zap.String("task", task.Name),
			zap.Int64("affected", n),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Scheduler) runTask(task Task) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Run()
}
