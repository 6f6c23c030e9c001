package tracker

import (
	"sort"
	"time"
)

// Timer is a pending scheduled callback. *time.Timer implements it.
type Timer interface {
	Stop() bool
}

// Scheduler runs a callback once the host event loop has been idle for d.
// Callbacks must run on the thread that drives the tracker.
type Scheduler interface {
	AfterIdle(d time.Duration, fn func()) Timer
}

// PostScheduler arms wall-clock timers and hands expired callbacks to post,
// which must queue them onto the host event loop.
type PostScheduler struct {
	post func(func())
}

// NewPostScheduler creates a scheduler that delivers callbacks through post.
func NewPostScheduler(post func(func())) *PostScheduler {
	return &PostScheduler{post: post}
}

// AfterIdle implements Scheduler.
func (s *PostScheduler) AfterIdle(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { s.post(fn) })
}

// ManualScheduler is a Scheduler driven by an explicit clock. Nothing runs
// until Advance is called.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due     time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterIdle implements Scheduler.
func (s *ManualScheduler) AfterIdle(d time.Duration, fn func()) Timer {
	s.seq++
	t := &manualTask{due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Now returns the time elapsed on the scheduler's clock.
func (s *ManualScheduler) Now() time.Duration { return s.now }

// Advance moves the clock forward by d and runs every callback that has
// become due, in due order. Callbacks scheduled while advancing run too if
// they fall due within the same step. It returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.now += d
	ran := 0
	for {
		t := s.next()
		if t == nil {
			return ran
		}
		t.stopped = true
		t.fn()
		ran++
	}
}

// Pending returns the number of armed callbacks.
func (s *ManualScheduler) Pending() int {
	s.compact()
	return len(s.tasks)
}

func (s *ManualScheduler) next() *manualTask {
	s.compact()
	sort.Slice(s.tasks, func(i, j int) bool {
		if s.tasks[i].due != s.tasks[j].due {
			return s.tasks[i].due < s.tasks[j].due
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
	if len(s.tasks) == 0 || s.tasks[0].due > s.now {
		return nil
	}
	t := s.tasks[0]
	s.tasks = s.tasks[1:]
	return t
}

func (s *ManualScheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.tasks = live
}
