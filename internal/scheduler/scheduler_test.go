package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsTasksOnInterval(t *testing.T) {
	var first, second atomic.Int64
	s := NewScheduler(Config{
		Interval: 10 * time.Millisecond,
		Tasks: []Task{
			{Name: "failing", Run: func() (int64, error) {
				first.Add(1)
				return 0, errors.New("db down")
			}},
			{Name: "counting", Run: func() (int64, error) {
				second.Add(1)
				return 1, nil
			}},
		},
	})

	s.Start(context.Background())
	s.Start(context.Background())
	assert.True(t, s.Running())

	assert.Eventually(t, func() bool { return second.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())

	// A failing task never blocks the tasks after it.
	assert.GreaterOrEqual(t, first.Load(), second.Load()-1)

	stopped := second.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, second.Load())
}

func TestScheduler_StopsWithContext(t *testing.T) {
	var runs atomic.Int64
	s := NewScheduler(Config{
		Interval: time.Hour,
		Tasks:    []Task{{Name: "once", Run: func() (int64, error) { runs.Add(1); return 0, nil }}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	var after atomic.Int64
	s := NewScheduler(Config{
		Interval: time.Hour,
		Tasks: []Task{
			{Name: "panics", Run: func() (int64, error) { panic("boom") }},
			{Name: "after", Run: func() (int64, error) { after.Add(1); return 0, nil }},
		},
	})

	assert.NotPanics(t, s.RunOnce)
	assert.EqualValues(t, 1, after.Load())
}

func TestDefaultTasks(t *testing.T) {
	tasks := DefaultTasks()
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"reset_daily_chats", "expire_bundles", "expire_orders"}, names)
	assert.Equal(t, 15*time.Minute, NewScheduler(Config{}).interval)
}
