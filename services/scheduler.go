// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type scheduledTask struct {
	key string // empty for tasks added with Add
	fn  func()
}

// Scheduler is a cooperative task queue. Tasks queued before a call to Update run
// during that call, one at a time; tasks queued while a turn is running wait for
// the next turn. Every mutation of the leaderboard goes through it, so the engine
// itself needs no locking.
type Scheduler struct {
	mu      sync.Mutex
	queue   []scheduledTask
	pending map[string]struct{}

	cron gocron.Scheduler
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]struct{})}
}

// Add queues task for the next turn.
func (s *Scheduler) Add(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, scheduledTask{fn: task})
}

// AddOnce queues task unless a task with the same key is still waiting to run.
// The key is released right before the task starts, so marking it again from
// inside the task (or from anything the task triggers) queues exactly one more run.
func (s *Scheduler) AddOnce(key string, task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	s.queue = append(s.queue, scheduledTask{key: key, fn: task})
	return true
}

// Pending reports how many tasks are waiting for the next turn.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Update runs one turn and returns the number of tasks executed.
func (s *Scheduler) Update() int {
	s.mu.Lock()
	turn := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, t := range turn {
		if t.key != "" {
			s.mu.Lock()
			delete(s.pending, t.key)
			s.mu.Unlock()
		}
		s.run(t)
	}
	return len(turn)
}

func (s *Scheduler) run(t scheduledTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] task %q panicked: %v", t.key, r)
		}
	}()
	t.fn()
}

// Start drives Update from a gocron job every interval. Singleton mode keeps
// turns from overlapping when one runs long.
func (s *Scheduler) Start(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.Update()
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("scheduler-turn"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to register scheduler turn job: %w", err)
	}

	sched.Start()
	s.cron = sched
	log.Printf("✅ [Scheduler] running turns every %s", interval)
	return nil
}

// Stop shuts down the gocron driver, if any. Queued tasks are dropped.
func (s *Scheduler) Stop() error {
	if s.cron == nil {
		return nil
	}
	err := s.cron.Shutdown()
	s.cron = nil
	return err
}
