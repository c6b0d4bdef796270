// Package scheduler arms and cancels the one outstanding response
// timeout per station (§4.6, §5 "scheduler owns outstanding timer
// handles"). It is internally thread-safe; its public surface is
// callback-style, and each callback's sole effect is expected to be
// enqueueing an event on the driver's worker — the scheduler itself
// never touches controller state.
package scheduler

import (
	"sync"
	"time"

	"github.com/webitel/genisys-master/internal/genisys"
)

// Scheduler arms at most one pending timer per station. Arming a new
// timer for a station already holding one cancels the prior timer
// before starting the new one.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[genisys.Station]*time.Timer
	gen     map[genisys.Station]uint64
	stopped bool
}

func New() *Scheduler {
	return &Scheduler{
		timers: make(map[genisys.Station]*time.Timer),
		gen:    make(map[genisys.Station]uint64),
	}
}

// Arm schedules fn to run after d unless cancelled first. A prior
// timer for the same station, if any, is cancelled. fn runs on a
// timer goroutine, never under Scheduler's lock.
func (s *Scheduler) Arm(station genisys.Station, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[station]; ok {
		t.Stop()
	}
	s.gen[station]++
	myGen := s.gen[station]
	s.timers[station] = time.AfterFunc(d, func() {
		s.mu.Lock()
		current := s.gen[station]
		s.mu.Unlock()
		if current != myGen {
			// Superseded by a later Arm/Cancel; drop this fire.
			return
		}
		fn()
	})
}

// Cancel stops any pending timer for station. A no-op if none is armed.
func (s *Scheduler) Cancel(station genisys.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[station]; ok {
		t.Stop()
		delete(s.timers, station)
	}
	s.gen[station]++
}

// CancelAll stops every pending timer, used by the SuspendAll
// dominance rule (§4.5).
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for station, t := range s.timers {
		t.Stop()
		s.gen[station]++
	}
	s.timers = make(map[genisys.Station]*time.Timer)
}

// Stop cancels every pending timer and prevents further arming.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for station, t := range s.timers {
		t.Stop()
		s.gen[station]++
	}
	s.timers = make(map[genisys.Station]*time.Timer)
	s.stopped = true
}
