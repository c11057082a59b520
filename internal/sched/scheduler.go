// Package sched runs the deferred side effects: timers, alarms and
// reminders. Tasks are fire-and-forget — no handle, no cancellation, no
// persistence. A single scheduling goroutine owns all pending work instead of
// spawning one goroutine per task.
package sched

import (
	"container/heap"
	"context"
	log "log/slog"
	"sync"
	"time"
)

// Speaker is where fired tasks send their message. The speech serializer
// implements it.
type Speaker interface {
	Say(text string)
}

type TaskKind int

const (
	Timer TaskKind = iota
	Alarm
	Reminder
)

func (k TaskKind) String() string {
	switch k {
	case Timer:
		return "timer"
	case Alarm:
		return "alarm"
	case Reminder:
		return "reminder"
	}
	return "unknown"
}

// Task is immutable once scheduled.
type Task struct {
	Kind    TaskKind
	After   time.Duration // Timer and Reminder
	ClockHM string        // Alarm target, "HH:MM" wall clock
	Message string
}

const (
	DefaultAlarmPoll = 30 * time.Second
	reminderPrefix   = "Recordatorio: "
)

type dueEntry struct {
	at      time.Time
	message string
}

type dueHeap []dueEntry

func (h dueHeap) Len() int            { return len(h) }
func (h dueHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h dueHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *dueHeap) Push(x any)         { *h = append(*h, x.(dueEntry)) }
func (h *dueHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

type pendingAlarm struct {
	clockHM string
	message string
}

// Scheduler owns all pending deferred tasks. Timers and reminders sit in a
// due-time min-heap; alarms are checked against the wall clock by one ticker
// whose interval does not depend on how many alarms are live.
type Scheduler struct {
	speaker   Speaker
	alarmPoll time.Duration
	now       func() time.Time

	mu     sync.Mutex
	due    dueHeap
	alarms []pendingAlarm
	wake   chan struct{}
}

func New(speaker Speaker, alarmPoll time.Duration) *Scheduler {
	if alarmPoll <= 0 {
		alarmPoll = DefaultAlarmPoll
	}
	return &Scheduler{
		speaker:   speaker,
		alarmPoll: alarmPoll,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

// Schedule registers a task and returns immediately. There is no way to
// cancel or inspect it afterwards.
func (s *Scheduler) Schedule(t Task) {
	s.mu.Lock()
	switch t.Kind {
	case Alarm:
		s.alarms = append(s.alarms, pendingAlarm{clockHM: padClock(t.ClockHM), message: t.Message})
	case Reminder:
		heap.Push(&s.due, dueEntry{at: s.now().Add(t.After), message: reminderPrefix + t.Message})
	default:
		heap.Push(&s.due, dueEntry{at: s.now().Add(t.After), message: t.Message})
	}
	s.mu.Unlock()

	log.Info("task scheduled", "kind", t.Kind, "after", t.After, "clock", t.ClockHM)

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// padClock zero-pads a single-digit hour ("7:30") to the "15:04" wall-clock
// format the alarm poll compares against.
func padClock(hm string) string {
	if len(hm) == 4 {
		return "0" + hm
	}
	return hm
}

// Run drives the scheduling loop until ctx is cancelled. Firing happens in a
// fresh goroutine so a slow utterance never delays other due tasks.
func (s *Scheduler) Run(ctx context.Context) {
	tick := time.NewTicker(s.alarmPoll)
	defer tick.Stop()

	for {
		var nextDue <-chan time.Time
		s.mu.Lock()
		if len(s.due) > 0 {
			d := time.Until(s.due[0].at)
			if d < 0 {
				d = 0
			}
			nextDue = time.After(d)
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-nextDue:
			s.fireDue()
		case <-tick.C:
			s.fireAlarms()
		}
	}
}

func (s *Scheduler) fireDue() {
	now := s.now()

	s.mu.Lock()
	var ready []string
	for len(s.due) > 0 && !s.due[0].at.After(now) {
		ready = append(ready, heap.Pop(&s.due).(dueEntry).message)
	}
	s.mu.Unlock()

	for _, msg := range ready {
		log.Info("timer fired", "message", msg)
		go s.speaker.Say(msg)
	}
}

func (s *Scheduler) fireAlarms() {
	hm := s.now().Format("15:04")

	s.mu.Lock()
	var ready []string
	rest := s.alarms[:0]
	for _, a := range s.alarms {
		if a.clockHM == hm {
			ready = append(ready, a.message)
		} else {
			rest = append(rest, a)
		}
	}
	s.alarms = rest
	s.mu.Unlock()

	for _, msg := range ready {
		log.Info("alarm fired", "clock", hm, "message", msg)
		go s.speaker.Say(msg)
	}
}
