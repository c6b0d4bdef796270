package opsserver

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/genisys-master/internal/observability"
)

// Module wires the operational server into the composition root,
// starting it in the background on OnStart and stopping it gracefully
// on OnStop, mirroring the teacher's infra/client/di lifecycle-hook
// shape.
var Module = fx.Module("opsserver",
	fx.Provide(func(cfg Config, status StatusSource, ring *observability.RingSink, logger *slog.Logger) *Server {
		return New(cfg, status, ring, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, srv *Server, logger *slog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := srv.Run(context.Background()); err != nil {
						logger.Error("opsserver stopped", "err", err)
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
