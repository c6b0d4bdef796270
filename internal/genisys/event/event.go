// Package event defines the closed set of semantic inputs to the
// reducer (§4.2). Events are immutable values; a Kind tag drives
// reducer dispatch instead of a type switch over concrete types,
// matching the teacher's EventKind enum idiom.
package event

import (
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/message"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

type Kind uint8

const (
	KindTransportUp Kind = iota + 1
	KindTransportDown
	KindMessageReceived
	KindResponseTimeout
	KindControlIntentChanged
)

func (k Kind) String() string {
	switch k {
	case KindTransportUp:
		return "TransportUp"
	case KindTransportDown:
		return "TransportDown"
	case KindMessageReceived:
		return "MessageReceived"
	case KindResponseTimeout:
		return "ResponseTimeout"
	case KindControlIntentChanged:
		return "ControlIntentChanged"
	default:
		return "Unknown"
	}
}

// Event is the single immutable value type carrying every event
// variant; only the fields relevant to Kind are meaningful.
type Event struct {
	Kind    Kind
	Tick    clock.Tick
	Station genisys.Station  // MessageReceived, ResponseTimeout
	Message message.Response // MessageReceived

	// ControlIntentChanged carries no station: it is broadcast to every
	// non-Failed slave by the reducer (§4.4). Delta is the set of
	// signals that changed since the previous Full snapshot; the
	// reducer itself never inspects it (§4.4 treats any
	// ControlIntentChanged the same regardless of which bits moved),
	// it is carried through to the executor/observability layer only.
	Delta signal.Set
	Full  signal.Set
}

func TransportUp(tick clock.Tick) Event {
	return Event{Kind: KindTransportUp, Tick: tick}
}

func TransportDown(tick clock.Tick) Event {
	return Event{Kind: KindTransportDown, Tick: tick}
}

func MessageReceived(tick clock.Tick, station genisys.Station, msg message.Response) Event {
	return Event{Kind: KindMessageReceived, Tick: tick, Station: station, Message: msg}
}

func ResponseTimeout(tick clock.Tick, station genisys.Station) Event {
	return Event{Kind: KindResponseTimeout, Tick: tick, Station: station}
}

func ControlIntentChanged(tick clock.Tick, delta, full signal.Set) Event {
	return Event{Kind: KindControlIntentChanged, Tick: tick, Delta: delta, Full: full}
}
