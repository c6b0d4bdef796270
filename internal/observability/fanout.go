package observability

import (
	"time"

	"github.com/webitel/genisys-master/internal/genisys/driver"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// MultiSink fans every Sink callback out to a fixed list of sinks, in
// order. Used by the composition root to combine LogSink, RingSink,
// and (optionally) JournalSink behind the driver's single Sink slot.
type MultiSink struct {
	sinks []driver.Sink
}

// NewMultiSink combines sinks into one driver.Sink.
func NewMultiSink(sinks ...driver.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) OnStateTransition(old, next state.State, trigger event.Event, intents intent.Set, at time.Time) {
	for _, s := range m.sinks {
		s.OnStateTransition(old, next, trigger, intents, at)
	}
}

func (m *MultiSink) OnProtocolEvent(message string) {
	for _, s := range m.sinks {
		s.OnProtocolEvent(message)
	}
}

func (m *MultiSink) OnTransportEvent(up bool, cause error) {
	for _, s := range m.sinks {
		s.OnTransportEvent(up, cause)
	}
}

func (m *MultiSink) OnError(err error) {
	for _, s := range m.sinks {
		s.OnError(err)
	}
}

var _ driver.Sink = (*MultiSink)(nil)
