package amqp

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"
)

// Module wires the control-intent ingestion path into the composition
// root: a durable subscriber, a router, the handler bound to the
// façade, and an fx lifecycle hook running/closing the router.
// Mirrors the teacher's amqp-handler fx.Module shape (module.go).
var Module = fx.Module("control-intent-ingest",
	fx.Provide(
		NewSubscriber,
		NewRouter,
		NewHandler,
	),
	fx.Invoke(func(
		lc fx.Lifecycle,
		router *message.Router,
		sub message.Subscriber,
		cfg Config,
		h *Handler,
		logger *slog.Logger,
	) {
		RegisterControlIntentHandler(router, sub, cfg, h)

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := Run(context.Background(), router); err != nil {
						logger.Error("control intent router stopped", "err", err)
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				return router.Close()
			},
		})
	}),
)
