// Package observability implements the externally supplied driver.Sink
// of §6: structured logging, a bounded in-memory event ring for the
// status/monitor CLI, and a durable SQLite journal, composed through
// MultiSink. None of this package is imported by the core reducer or
// executor packages — it only ever receives events through the Sink
// interface they already expose.
package observability

import (
	"log/slog"
	"time"

	"github.com/webitel/genisys-master/internal/genisys/driver"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/intent"
	"github.com/webitel/genisys-master/internal/genisys/state"
)

// LogSink routes every Sink callback through a structured slog.Logger.
// State transitions are logged at Info, protocol events at Debug,
// transport up at Info and transport down at Warn, and errors at Error.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink wraps logger as a driver.Sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnStateTransition(old, next state.State, trigger event.Event, intents intent.Set, at time.Time) {
	s.logger.Info("state transition",
		"event", trigger.Kind.String(),
		"station", trigger.Station,
		"from", old.Global.String(),
		"to", next.Global.String(),
		"intents", intents.Kinds,
		"at", at,
	)
}

func (s *LogSink) OnProtocolEvent(message string) {
	s.logger.Debug("protocol event", "message", message)
}

func (s *LogSink) OnTransportEvent(up bool, cause error) {
	if up {
		s.logger.Info("transport up")
		return
	}
	s.logger.Warn("transport down", "cause", cause)
}

func (s *LogSink) OnError(err error) {
	s.logger.Error("driver error", "err", err)
}

var _ driver.Sink = (*LogSink)(nil)
