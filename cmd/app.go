package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/webitel/genisys-master/config"
	"github.com/webitel/genisys-master/internal/facade"
	"github.com/webitel/genisys-master/internal/genisys"
	"github.com/webitel/genisys-master/internal/genisys/clock"
	"github.com/webitel/genisys-master/internal/genisys/driver"
	"github.com/webitel/genisys-master/internal/genisys/event"
	"github.com/webitel/genisys-master/internal/genisys/executor"
	"github.com/webitel/genisys-master/internal/genisys/scheduler"
	"github.com/webitel/genisys-master/internal/genisys/signal"
	"github.com/webitel/genisys-master/internal/genisys/state"
	"github.com/webitel/genisys-master/internal/genisys/tracker"
	ingestamqp "github.com/webitel/genisys-master/internal/ingest/amqp"
	"github.com/webitel/genisys-master/internal/observability"
	"github.com/webitel/genisys-master/internal/opsserver"
	"github.com/webitel/genisys-master/internal/transport/udpwire"
)

// stations returns the configured station rotation in configuration order.
func stations(cfg *config.Config) []genisys.Station {
	out := make([]genisys.Station, len(cfg.Stations))
	for i, s := range cfg.Stations {
		out[i] = genisys.Station(s.Address)
	}
	return out
}

func remoteAddrs(cfg *config.Config) (map[genisys.Station]*net.UDPAddr, error) {
	out := make(map[genisys.Station]*net.UDPAddr, len(cfg.Stations))
	for _, s := range cfg.Stations {
		addr, err := net.ResolveUDPAddr("udp", s.RemoteAddr)
		if err != nil {
			return nil, fmt.Errorf("resolve remote for station %d: %w", s.Address, err)
		}
		out[genisys.Station(s.Address)] = addr
	}
	return out, nil
}

func databaseSizes(cfg *config.Config) map[genisys.Station]int {
	out := make(map[genisys.Station]int, len(cfg.Stations))
	for _, s := range cfg.Stations {
		if s.DatabaseSize > 0 {
			out[genisys.Station(s.Address)] = s.DatabaseSize
		}
	}
	return out
}

// NewApp builds the fx composition root: façade, codec, transport,
// executor, driver (wired with the two-phase closure pattern the core
// packages require to avoid a cyclic reference), ingestion, and the
// operational server. v is the *viper.Viper config.LoadWithViper read
// cfg from; registerLifecycle hands it to config.WatchTimingPolicy so
// the hot-reloadable wire timing subset can change without a restart.
func NewApp(cfg *config.Config, v *viper.Viper) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			func() *viper.Viper { return v },
			func() clock.Clock { return clock.Real{} },
			provideLogger,
			providePayloadCodec,
			provideTransport,
			provideDriverAndRegistry,
			provideStatusSource,
			provideOpsServerConfig,
			provideIngestConfig,
			provideControlApplier,
			provideRingSink,
		),
		fx.Invoke(registerLifecycle),
		ingestamqp.Module,
		opsserver.Module,
	)
}

// provideLogger builds the console handler cfg.Logging selects and
// fans every record out through observability.NewLogger to the
// OTel SDK log pipeline as well, registering the provider's shutdown
// with the fx lifecycle so it drains on OnStop.
func provideLogger(lc fx.Lifecycle, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cfg.Logging.Level))
	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if cfg.Logging.Format == "json" {
		base = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		base = slog.NewTextHandler(os.Stdout, opts)
	}

	logger, shutdown := observability.NewLogger(ServiceName, base)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
	return logger
}

func provideRingSink(cfg *config.Config) (*observability.RingSink, error) {
	return observability.NewRingSink(cfg.Observability.RingSize)
}

func provideOpsServerConfig(cfg *config.Config) opsserver.Config {
	return opsserver.Config{HTTPAddr: cfg.OpsServer.HTTPAddr, GRPCAddr: cfg.OpsServer.GRPCAddr}
}

func provideIngestConfig(cfg *config.Config) ingestamqp.Config {
	return ingestamqp.Config{
		URL:        cfg.AMQP.URL,
		Exchange:   cfg.AMQP.Exchange,
		Queue:      cfg.AMQP.Queue,
		RoutingKey: cfg.AMQP.RoutingKey,
	}
}

func providePayloadCodec(cfg *config.Config) *facade.PayloadCodec {
	return facade.NewPayloadCodec(databaseSizes(cfg))
}

func provideTransport(cfg *config.Config, codec *facade.PayloadCodec, logger *slog.Logger) (*udpwire.Transport, error) {
	remotes, err := remoteAddrs(cfg)
	if err != nil {
		return nil, err
	}
	onError := func(station genisys.Station, err error) {
		logger.Warn("udp send failed", "station", station, "err", err)
	}
	return udpwire.New(cfg.Wire.ListenAddr, remotes, codec, onError)
}

// driverBundle carries the driver alongside the registry it was built
// with; fx.Provide can't return two independently-resolvable values
// from one constructor cleanly without this, since the registry's
// construction is entangled with the driver's two-phase wiring below.
type driverBundle struct {
	fx.Out

	Driver   *driver.Driver
	Registry *facade.Registry
	Executor *executor.Executor
}

func provideDriverAndRegistry(
	cfg *config.Config,
	codec *facade.PayloadCodec,
	transport *udpwire.Transport,
	clk clock.Clock,
	logger *slog.Logger,
	ring *observability.RingSink,
) driverBundle {
	rotation := stations(cfg)

	// Two-phase construction: the executor needs closures that read
	// and submit to the driver, but the driver needs a fully built
	// executor. Neither side is invoked until Run starts, so the
	// forward reference through d is safe (see driver_test.go).
	var d *driver.Driver

	registry := facade.NewRegistry(rotation, facade.WithControlIntentNotifier(
		func(delta, full signal.Set) {
			d.SubmitControlIntentChanged(delta, full)
		},
	))

	sinks := []driver.Sink{observability.NewLogSink(logger), ring}
	if cfg.Observability.JournalPath != "" {
		if journal, err := observability.NewJournalSink(cfg.Observability.JournalPath); err != nil {
			logger.Error("journal sink disabled", "err", err)
		} else {
			sinks = append(sinks, journal)
		}
	}
	sink := observability.NewMultiSink(sinks...)

	exec := executor.New(
		executor.Config{
			Stations:                rotation,
			SecurePolls:             cfg.Wire.SecurePolls,
			ControlCheckbackEnabled: cfg.Wire.ControlCheckback,
			ResponseTimeout:         cfg.Wire.ResponseTimeout,
			ControlCoalesceWindow:   cfg.Wire.ControlCoalesceWindow,
		},
		transport,
		registry,
		scheduler.New(),
		tracker.NewSend(),
		tracker.NewActivity(),
		clk,
		func() state.State { return d.LoadState() },
		func(e event.Event) { d.Submit(e) },
		func(err error) { logger.Error("executor error", "err", err) },
		sink,
	)

	initial := state.NewInitializing(rotation, clk.Now())
	d = driver.New(initial, exec, codec, clk, sink, registry, registry)

	return driverBundle{Driver: d, Registry: registry, Executor: exec}
}

func provideStatusSource(registry *facade.Registry) opsserver.StatusSource { return registry }

func provideControlApplier(registry *facade.Registry) ingestamqp.ControlApplier { return registry }

// registerLifecycle starts the driver/transport loops on OnStart and,
// when v is non-nil, arms config.WatchTimingPolicy so an edit to the
// wire timing subset of the config file reaches the executor without a
// restart (§9's station-rotation/addresses immutability still holds;
// see config.WatchTimingPolicy).
func registerLifecycle(
	lc fx.Lifecycle,
	d *driver.Driver,
	exec *executor.Executor,
	transport *udpwire.Transport,
	v *viper.Viper,
	logger *slog.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			g.Go(func() error {
				d.Run(gctx)
				return nil
			})
			g.Go(func() error {
				transport.Serve(d)
				return nil
			})
			if v != nil {
				config.WatchTimingPolicy(v, func(wire config.WireConfig) {
					logger.Info("wire timing policy reloaded",
						"response_timeout", wire.ResponseTimeout,
						"control_coalesce_window", wire.ControlCoalesceWindow)
					exec.UpdateTimingPolicy(wire.ResponseTimeout, wire.ControlCoalesceWindow)
				})
			}
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			closeErr := transport.Close()
			// d.Run and transport.Serve both return once cancel/Close
			// unblocks them; wait for that before reporting OnStop done
			// so a future fx.Hook ordered after this one never observes
			// a still-running driver goroutine.
			_ = g.Wait()
			return closeErr
		},
	})
}
