// Package opsserver is the operational surface of the master: an HTTP
// mux (health, status, Prometheus metrics, a WebSocket status push)
// alongside a gRPC health service, generalizing the teacher's
// infra/server/grpc + internal/handler/ws delivery adapters to a
// read-only rollup instead of the per-user message fan-out they serve.
package opsserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/webitel/genisys-master/internal/genisys/state"
	"github.com/webitel/genisys-master/internal/observability"
)

// Config names the two listen addresses this server binds.
type Config struct {
	HTTPAddr string
	GRPCAddr string
}

// StatusSource is the subset of facade.Registry the server reads from.
type StatusSource interface {
	Status() state.Status
	Subscribe(ch chan state.Status) (unsubscribe func())
}

// Server bundles the HTTP and gRPC operational listeners.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

// New builds the HTTP (chi) and gRPC (health) servers. ring may be nil,
// in which case /statusz omits recent history.
func New(cfg Config, status StatusSource, ring *observability.RingSink, logger *slog.Logger) *Server {
	healthSrv := health.NewServer()
	recoveryHandler := recovery.WithRecoveryHandler(func(p any) error {
		logger.Error("grpc handler panic recovered", "panic", p)
		return fmt.Errorf("internal error")
	})
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(recovery.UnaryServerInterceptor(recoveryHandler)),
		grpc.ChainStreamInterceptor(recovery.StreamServerInterceptor(recoveryHandler)),
	)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	router := chi.NewRouter()
	router.Get("/healthz", handleHealthz)
	router.Get("/statusz", handleStatusz(status, ring))
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/ws/status", handleStatusWS(status, logger))

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpcServer: grpcServer,
		health:     healthSrv,
	}
}

// Run starts both listeners and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("opsserver: grpc listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("opsserver: http serve: %w", err)
		}
	}()
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("opsserver: grpc serve: %w", err)
		}
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	return s.httpServer.Shutdown(ctx)
}
