// Package debounce provides a cooperative, clock-driven timer scheduler.
//
// Timers never fire on their own goroutine. The owner calls Advance with the
// current time, usually once per tick, and due callbacks run synchronously in
// deadline order. A Scheduler is not safe for concurrent use.
package debounce

import (
	"fmt"
	"sort"
	"time"
)

// Key identifies a timer by the actor that owns it and what it is for.
// At most one timer per Key is pending at any time.
type Key struct {
	Actor   string
	Purpose string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Actor, k.Purpose)
}

type timer struct {
	key      Key
	deadline time.Time
	seq      uint64
	fn       func()
}

// Scheduler holds pending timers keyed by (actor, purpose).
type Scheduler struct {
	now    time.Time
	seq    uint64
	timers map[Key]*timer
}

// NewScheduler creates a Scheduler whose clock starts at now.
func NewScheduler(now time.Time) *Scheduler {
	return &Scheduler{
		now:    now,
		timers: make(map[Key]*timer),
	}
}

// Now returns the time of the last Advance.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// Start schedules fn to run once d after the scheduler's current time,
// replacing any pending timer with the same key.
func (s *Scheduler) Start(key Key, d time.Duration, fn func()) {
	s.seq++
	s.timers[key] = &timer{
		key:      key,
		deadline: s.now.Add(d),
		seq:      s.seq,
		fn:       fn,
	}
}

// Cancel removes the pending timer for key. It reports whether one was pending.
func (s *Scheduler) Cancel(key Key) bool {
	if _, ok := s.timers[key]; !ok {
		return false
	}
	delete(s.timers, key)
	return true
}

// CancelActor removes every pending timer owned by actor and returns how
// many were removed.
func (s *Scheduler) CancelActor(actor string) int {
	n := 0
	for key := range s.timers {
		if key.Actor == actor {
			delete(s.timers, key)
			n++
		}
	}
	return n
}

// Pending reports whether a timer for key is waiting to fire.
func (s *Scheduler) Pending(key Key) bool {
	_, ok := s.timers[key]
	return ok
}

// Deadline returns when the timer for key fires.
func (s *Scheduler) Deadline(key Key) (time.Time, bool) {
	t, ok := s.timers[key]
	if !ok {
		return time.Time{}, false
	}
	return t.deadline, true
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	return len(s.timers)
}

// Advance moves the clock to now and runs every timer whose deadline is at
// or before it, earliest first. Callbacks may start or cancel timers; timers
// started during Advance wait for the next call. The clock never moves
// backwards. Advance returns the number of callbacks run.
func (s *Scheduler) Advance(now time.Time) int {
	if now.After(s.now) {
		s.now = now
	}
	limit := s.seq

	fired := 0
	for {
		next := s.nextDue(limit)
		if next == nil {
			return fired
		}
		delete(s.timers, next.key)
		next.fn()
		fired++
	}
}

// nextDue returns the earliest due timer started at or before limit.
func (s *Scheduler) nextDue(limit uint64) *timer {
	var due []*timer
	for _, t := range s.timers {
		if t.seq <= limit && !t.deadline.After(s.now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due[0]
}
