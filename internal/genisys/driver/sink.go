package driver

import (
	"time"

	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// Sink is the externally supplied observability surface of §6: four
// channels, no logging performed by the reducer or driver themselves
// beyond routing through here. A nil Sink is never passed in; use
// NullSink where no observability is wanted.
type Sink interface {
	OnStateTransition(old, next state.State, trigger event.Event, intents intent.Set, at time.Time)
	OnProtocolEvent(message string)
	OnTransportEvent(up bool, cause error)
	OnError(err error)
}

// NullSink discards every observability event.
type NullSink struct{}

func (NullSink) OnStateTransition(state.State, state.State, event.Event, intent.Set, time.Time) {}
func (NullSink) OnProtocolEvent(string)                                                          {}
func (NullSink) OnTransportEvent(bool, error)                                                     {}
func (NullSink) OnError(error)                                                                    {}
