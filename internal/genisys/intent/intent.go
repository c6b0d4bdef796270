// Package intent defines the reducer's edge-triggered output set
// (§4.2). An Intent is a descriptive command for the executor to
// interpret, never a message: "reducer decides what, executor decides
// how" (§9).
package intent

import "github.com/webitel/genisys-master/internal/genisys"

// Kind flags the intents a single reducer step can emit. Several may
// be set simultaneously on a Set, subject to the dominance rule in
// §4.5: SuspendAll and BeginInitialization preempt everything else.
type Kind uint16

const (
	BeginInitialization Kind = 1 << iota
	SuspendAll
	SendRecall
	SendControls
	PollNext
	RetryCurrent
	ScheduleControlDelivery
)

// Set is the output of a single reducer step. TargetStation is only
// meaningful for the per-station kinds (SendRecall, SendControls,
// PollNext, RetryCurrent); combining two per-station intents that name
// different stations in a single Set is a programming error the
// reducer never does — each reducer step concerns exactly one station
// (or none, for BeginInitialization/SuspendAll/ScheduleControlDelivery).
type Set struct {
	Kinds         Kind
	TargetStation genisys.Station
}

// Has reports whether k is present in the set.
func (s Set) Has(k Kind) bool {
	return s.Kinds&k != 0
}

// With returns a copy of s with k added, validating the "different
// concrete station" composition rule from §4.2.
func (s Set) With(k Kind, station genisys.Station) Set {
	if isPerStation(k) && s.hasPerStationTarget() && s.TargetStation != station {
		panic("intent: combining intents that target different stations")
	}
	out := s
	out.Kinds |= k
	if isPerStation(k) {
		out.TargetStation = station
	}
	return out
}

// WithGlobal returns a copy of s with a station-less kind added
// (BeginInitialization, SuspendAll, ScheduleControlDelivery).
func (s Set) WithGlobal(k Kind) Set {
	out := s
	out.Kinds |= k
	return out
}

func (s Set) hasPerStationTarget() bool {
	return s.Kinds&(SendRecall|SendControls|PollNext|RetryCurrent) != 0
}

func isPerStation(k Kind) bool {
	switch k {
	case SendRecall, SendControls, PollNext, RetryCurrent:
		return true
	default:
		return false
	}
}

// Empty reports whether no intent kind is set.
func (s Set) Empty() bool {
	return s.Kinds == 0
}
