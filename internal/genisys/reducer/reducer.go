// Package reducer implements the pure state transition function of
// §4.4: (State, Event) → (State', Intents). No I/O, no clocks beyond
// the Tick values carried on events, no logging — any import beyond
// state/event/intent/genisys would be a dependency this package has no
// business taking, which is why it has none.
package reducer

import (
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

const maxConsecutiveFailures = 3

// Apply is the reducer. It is referentially transparent: the same
// (s, e) pair always yields the same (State, Intents) pair (§8 property 1).
func Apply(s state.State, e event.Event) (state.State, intent.Set) {
	// §3 invariant: globalState = TransportDown ⇒ no side effects, no
	// per-slave mutation, for any event other than the transport
	// lifecycle events themselves.
	if s.Global == state.TransportDown && e.Kind != event.KindTransportUp && e.Kind != event.KindTransportDown {
		return s, intent.Set{}
	}

	switch e.Kind {
	case event.KindTransportUp:
		return applyTransportUp(s, e)
	case event.KindTransportDown:
		return applyTransportDown(s, e)
	case event.KindMessageReceived:
		return applyMessageReceived(s, e)
	case event.KindResponseTimeout:
		return applyResponseTimeout(s, e)
	case event.KindControlIntentChanged:
		return applyControlIntentChanged(s, e)
	default:
		// Unreachable per the closed event Kind enum; the reducer
		// never throws (§7), it simply produces no intents.
		return s, intent.Set{}
	}
}

func applyTransportUp(s state.State, e event.Event) (state.State, intent.Set) {
	next := make(map[genisys.Station]state.SlaveState, len(s.Slaves))
	for station, sl := range s.Slaves {
		next[station] = state.SlaveState{
			Station:                station,
			Phase:                  state.Recall,
			ConsecutiveFailures:    0,
			AckPending:             false,
			ControlPending:         sl.ControlPending,
			LastActivityTick:       sl.LastActivityTick,
			InitialRecallCompleted: false,
		}
	}
	out := state.State{
		Global:             state.Initializing,
		Slaves:             next,
		LastTransitionTick: e.Tick,
	}
	return out, intent.Set{}.WithGlobal(intent.BeginInitialization)
}

func applyTransportDown(s state.State, e event.Event) (state.State, intent.Set) {
	out := s.WithGlobalState(state.TransportDown, e.Tick)
	return out, intent.Set{}.WithGlobal(intent.SuspendAll)
}

func applyMessageReceived(s state.State, e event.Event) (state.State, intent.Set) {
	sl, ok := s.Slaves[e.Station]
	if !ok {
		return s, intent.Set{}
	}

	sl.LastActivityTick = e.Tick
	sl.ConsecutiveFailures = 0

	switch sl.Phase {
	case state.Recall:
		sl.InitialRecallCompleted = true
		sl.Phase = state.SendControls
		next := s.WithSlaveState(sl, e.Tick)
		if s.Global == state.Initializing && next.AllInitialRecallCompleted() {
			next = next.WithGlobalState(state.Running, e.Tick)
		}
		return next, intent.Set{}.With(intent.SendControls, e.Station)

	case state.SendControls:
		sl.ControlPending = false
		sl.Phase = state.Poll
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}.With(intent.PollNext, e.Station)

	case state.Poll:
		switch e.Message.Kind {
		case message.KindIndicationData:
			sl.AckPending = true
		case message.KindAcknowledge:
			sl.AckPending = false
		}
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}.With(intent.PollNext, e.Station)

	case state.Failed:
		// [SCENARIO_C] deviates from §4.4's prose for this branch, per
		// the literal Scenario C expectation of §8: entry into Recall
		// only resets bookkeeping here; it does not itself emit
		// SendRecall. See DESIGN.md for the resolution of this
		// inconsistency.
		sl.Phase = state.Recall
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}

	default:
		return s, intent.Set{}
	}
}

func applyResponseTimeout(s state.State, e event.Event) (state.State, intent.Set) {
	if s.Global != state.Running {
		return s, intent.Set{}
	}

	sl, ok := s.Slaves[e.Station]
	if !ok {
		return s, intent.Set{}
	}

	switch sl.Phase {
	case state.Recall:
		// Indefinite retry; never counts toward the failure threshold.
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}.With(intent.SendRecall, e.Station)

	case state.SendControls:
		sl.ConsecutiveFailures++
		if sl.ConsecutiveFailures < maxConsecutiveFailures {
			next := s.WithSlaveState(sl, e.Tick)
			return next, intent.Set{}.With(intent.RetryCurrent, e.Station)
		}
		sl.Phase = state.Failed
		sl.AckPending = false
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}.With(intent.SendRecall, e.Station)

	case state.Poll:
		sl.ConsecutiveFailures++
		if sl.ConsecutiveFailures < maxConsecutiveFailures {
			next := s.WithSlaveState(sl, e.Tick)
			return next, intent.Set{}.With(intent.RetryCurrent, e.Station)
		}
		sl.AckPending = false
		sl.Phase = state.Failed
		next := s.WithSlaveState(sl, e.Tick)
		return next, intent.Set{}.With(intent.SendRecall, e.Station)

	case state.Failed:
		return s, intent.Set{}

	default:
		return s, intent.Set{}
	}
}

func applyControlIntentChanged(s state.State, e event.Event) (state.State, intent.Set) {
	next := make(map[genisys.Station]state.SlaveState, len(s.Slaves))
	for station, sl := range s.Slaves {
		if sl.Phase != state.Failed {
			sl.ControlPending = true
		}
		next[station] = sl
	}
	out := state.State{
		Global:             s.Global,
		Slaves:             next,
		LastTransitionTick: s.LastTransitionTick,
	}
	return out, intent.Set{}.WithGlobal(intent.ScheduleControlDelivery)
}
