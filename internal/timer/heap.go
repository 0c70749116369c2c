// Package timer runs callbacks at a point in time, keyed by id so that a
// pending callback can be replaced or cancelled before it fires.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task is a callback scheduled for future execution
type Task struct {
	ID       string
	FireAt   time.Time
	Callback func()
	index    int // index in the heap (for heap.Interface)
}

// taskHeap is a min-heap of Tasks ordered by FireAt
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	return h[i].FireAt.Before(h[j].FireAt)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*h = old[0 : n-1]
	return task
}

// Scheduler fires tasks in FireAt order from a single loop goroutine
type Scheduler struct {
	heap    taskHeap
	mu      sync.Mutex
	wakeup  chan struct{}
	tasks   map[string]*Task
	fired   uint64
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. Call Start before scheduling anything that must fire.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		heap:   make(taskHeap, 0),
		wakeup: make(chan struct{}, 1),
		tasks:  make(map[string]*Task),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	heap.Init(&s.heap)
	return s
}

// Start launches the scheduling loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run()
}

// Stop halts the loop; pending tasks are dropped without firing
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if started {
		<-s.doneCh
	}
}

// Schedule registers callback to fire at fireAt, replacing any pending task with the same id
func (s *Scheduler) Schedule(id string, fireAt time.Time, callback func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if existing, ok := s.tasks[id]; ok {
		heap.Remove(&s.heap, existing.index)
		delete(s.tasks, id)
	}

	task := &Task{
		ID:       id,
		FireAt:   fireAt,
		Callback: callback,
	}
	heap.Push(&s.heap, task)
	s.tasks[id] = task

	if s.heap[0] == task {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// After is Schedule relative to now
func (s *Scheduler) After(id string, delay time.Duration, callback func()) error {
	return s.Schedule(id, time.Now().Add(delay), callback)
}

// Cancel removes a pending task. It reports false if the task already fired or never existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}

	heap.Remove(&s.heap, task.index)
	delete(s.tasks, id)
	return true
}

// Pending reports whether a task with this id is waiting to fire
func (s *Scheduler) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	for {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}

		var due []*Task
		now := time.Now()
		for s.heap.Len() > 0 && !s.heap[0].FireAt.After(now) {
			task := heap.Pop(&s.heap).(*Task)
			delete(s.tasks, task.ID)
			due = append(due, task)
		}
		s.fired += uint64(len(due))

		wait := 24 * time.Hour
		if s.heap.Len() > 0 {
			wait = time.Until(s.heap[0].FireAt)
		}
		s.mu.Unlock()

		// Callbacks run without the lock so they may schedule or cancel.
		for _, task := range due {
			task.Callback()
		}
		if len(due) > 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.wakeup:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// Stats returns statistics about the scheduler
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		ScheduledTasks: len(s.tasks),
		FiredTasks:     s.fired,
	}
}

// Stats contains statistics about the scheduler
type Stats struct {
	ScheduledTasks int
	FiredTasks     uint64
}

var (
	ErrSchedulerStopped = &TimerError{"scheduler is stopped"}
)

// TimerError represents a timer error
type TimerError struct {
	msg string
}

func (e *TimerError) Error() string {
	return e.msg
}
