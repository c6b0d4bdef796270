package amqp

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/signal"
)

// ControlApplier is the subset of facade.Registry this package depends
// on, declared locally so ingest never imports facade's full surface.
type ControlApplier interface {
	SetControls(station genisys.Station, controls signal.Set)
}

// Handler decodes inbound control-intent messages and applies them to
// the façade. One handler serves every routing key this package binds.
type Handler struct {
	registry ControlApplier
	logger   *slog.Logger
}

// NewHandler builds a Handler bound to the given registry.
func NewHandler(registry ControlApplier, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// bindControlIntentV1 adapts Handler.onControlIntentV1 into a Watermill
// NoPublishHandlerFunc: decode the payload, recover from a panic in the
// domain call rather than killing the consumer goroutine, and Ack
// (return nil) on any malformed input so a poison message does not
// wedge the queue.
func bindControlIntentV1(h *Handler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) (err error) {
		// [PANIC_RECOVERY] a panic in the domain call must not kill the
		// consumer goroutine; the message is still acked (err reset to
		// nil) since retrying a handler that already panicked once
		// would just panic again.
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("control intent handler panic recovered",
					"err", r, "stack", string(debug.Stack()), "msg_id", msg.UUID)
				err = nil
			}
		}()

		var payload ControlIntentV1
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			// [POISON_PILL] ack malformed input rather than nack it, or
			// an undecodable message redelivers forever and wedges the
			// queue.
			h.logger.Warn("control intent decode failed", "err", err, "msg_id", msg.UUID)
			return nil
		}

		return h.onControlIntentV1(payload)
	}
}

func (h *Handler) onControlIntentV1(payload ControlIntentV1) error {
	var set signal.Set
	for _, bit := range payload.Signals {
		set = set.With(bit)
	}
	h.registry.SetControls(payload.Station, set)
	return nil
}
