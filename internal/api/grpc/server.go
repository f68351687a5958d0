// Package grpcapi exposes the gRPC health surface of the service.
package grpcapi

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"clinical-transcript-service/internal/observability"
	"clinical-transcript-service/internal/observability/logging"
	"clinical-transcript-service/internal/observability/metrics"
)

// ServiceName is the health service name tied to classifier readiness.
const ServiceName = "clinical.transcript.Structurer"

// ReadinessFunc reports whether transcripts can be structured.
type ReadinessFunc func(ctx context.Context) error

// Server wraps a gRPC server with health checking and reflection.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	ready  ReadinessFunc
	logger zerolog.Logger
}

// New creates the gRPC server. The overall service reports SERVING at once;
// ServiceName follows ready and starts as NOT_SERVING until Refresh runs.
func New(ready ReadinessFunc, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.DefaultMetrics
	}

	g := grpc.NewServer(
		grpc.ChainUnaryInterceptor(observability.UnaryServerInterceptor(m)),
		grpc.ChainStreamInterceptor(observability.StreamServerInterceptor(m)),
	)

	// Register gRPC health check service
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(g, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(g)

	return &Server{
		grpc:   g,
		health: hs,
		ready:  ready,
		logger: logging.WithComponent("grpc-server"),
	}
}

// Health returns the health service implementation.
func (s *Server) Health() grpc_health_v1.HealthServer {
	return s.health
}

// Refresh runs the readiness check and updates the ServiceName status.
func (s *Server) Refresh(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Classifier not ready")
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, st)
	return st
}

// Watch refreshes the readiness status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		s.Refresh(checkCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC health server started")
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
