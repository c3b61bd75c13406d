// Package notify is an in-process reminder scheduler standing in for a
// platform notification service: schedule a titled message at a wall-clock
// time, cancel everything on sign-out or shutdown.
package notify

import (
	"sync"
	"time"
)

// Reminder is one scheduled notification.
type Reminder struct {
	Title string
	Body  string
	At    time.Time
}

// Sink receives a reminder when it fires.
type Sink func(Reminder)

type Scheduler struct {
	sink Sink

	mu     sync.Mutex
	nextID int
	timers map[int]*time.Timer
}

func NewScheduler(sink Sink) *Scheduler {
	return &Scheduler{sink: sink, timers: make(map[int]*time.Timer)}
}

// Schedule arms a reminder for the given time. Times already in the past
// fire immediately. Returns an id usable with Cancel.
func (s *Scheduler) Schedule(r Reminder) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	delay := time.Until(r.At)
	if delay < 0 {
		delay = 0
	}

	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.sink(r)
	})

	return id
}

// Cancel disarms one reminder. Unknown ids are ignored.
func (s *Scheduler) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// CancelAll disarms every pending reminder.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports the number of armed reminders.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
