// Package state defines the controller's immutable state snapshots
// (§3) and the handful of pure operations used to build new snapshots
// (§4.3). Nothing here performs I/O; transitions are produced by the
// reducer package, which imports this one.
package state

import (
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
)

// GlobalState is the controller-wide phase of §3.
type GlobalState uint8

const (
	TransportDown GlobalState = iota + 1
	Initializing
	Running
)

func (g GlobalState) String() string {
	switch g {
	case TransportDown:
		return "TransportDown"
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// SlavePhase is the per-slave phase of §3.
type SlavePhase uint8

const (
	Recall SlavePhase = iota + 1
	SendControls
	Poll
	Failed
)

func (p SlavePhase) String() string {
	switch p {
	case Recall:
		return "Recall"
	case SendControls:
		return "SendControls"
	case Poll:
		return "Poll"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SlaveState is the immutable per-slave record of §3.
type SlaveState struct {
	Station                genisys.Station
	Phase                  SlavePhase
	ConsecutiveFailures    uint32
	AckPending             bool
	ControlPending         bool
	LastActivityTick       clock.Tick
	InitialRecallCompleted bool
}

// Status is the externally visible rollup of §4.3.
type Status uint8

const (
	Disconnected Status = iota + 1
	Degraded
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Degraded:
		return "Degraded"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// State is the controller-wide immutable snapshot of §3. Only the
// driver owns the current value and replaces it atomically after each
// reducer step (§3 Ownership/lifecycle).
type State struct {
	Global             GlobalState
	Slaves             map[genisys.Station]SlaveState
	LastTransitionTick clock.Tick
}

// NewInitializing seeds all stations in Recall with global
// Initializing, per §4.3.
func NewInitializing(stations []genisys.Station, ts clock.Tick) State {
	slaves := make(map[genisys.Station]SlaveState, len(stations))
	for _, st := range stations {
		slaves[st] = SlaveState{
			Station:          st,
			Phase:            Recall,
			LastActivityTick: ts,
		}
	}
	return State{
		Global:             Initializing,
		Slaves:             slaves,
		LastTransitionTick: ts,
	}
}

// WithGlobalState returns a new State sharing the untouched slave map
// (§4.3 "produce new snapshots sharing untouched slaves").
func (s State) WithGlobalState(g GlobalState, ts clock.Tick) State {
	out := s
	out.Global = g
	out.LastTransitionTick = ts
	return out
}

// WithSlaveState returns a new State with one slave replaced; the
// slave map itself is copied (copy-on-write at the map level) so the
// previous snapshot's map is never mutated, while slave records that
// were not touched are shared by value (SlaveState has no pointers).
func (s State) WithSlaveState(sl SlaveState, ts clock.Tick) State {
	next := make(map[genisys.Station]SlaveState, len(s.Slaves))
	for k, v := range s.Slaves {
		next[k] = v
	}
	next[sl.Station] = sl
	return State{
		Global:             s.Global,
		Slaves:             next,
		LastTransitionTick: ts,
	}
}

// AllInitialRecallCompleted reports whether every slave has completed
// its initial recall, the condition gating Initializing → Running
// (§4.4).
func (s State) AllInitialRecallCompleted() bool {
	for _, sl := range s.Slaves {
		if !sl.InitialRecallCompleted {
			return false
		}
	}
	return true
}

// MapToStatus implements the rollup of §4.3.
func MapToStatus(s State) Status {
	switch s.Global {
	case TransportDown, Initializing:
		return Disconnected
	case Running:
		allFailed := true
		anyFailed := false
		for _, sl := range s.Slaves {
			if sl.Phase == Failed {
				anyFailed = true
			} else {
				allFailed = false
			}
		}
		if len(s.Slaves) == 0 {
			return Connected
		}
		if !anyFailed {
			return Connected
		}
		if allFailed {
			return Disconnected
		}
		return Degraded
	default:
		return Disconnected
	}
}
