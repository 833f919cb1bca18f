package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the named health entry next to the server-wide "" entry.
const ServiceName = "notekeeper"

// HealthServer exposes grpc.health.v1.Health for orchestrators. It reports
// NOT_SERVING until SetServing(true) and again once shutdown starts.
type HealthServer struct {
	address string
	logger  logging.Logger
	health  *health.Server
	srv     *grpc.Server
}

func NewHealthServer(a string, l logging.Logger) *HealthServer {
	s := &HealthServer{
		address: a,
		logger:  l.With("module", "grpc_health"),
		health:  health.NewServer(),
	}

	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		recoveryInterceptor(s.logger),
	))
	healthpb.RegisterHealthServer(s.srv, s.health)

	s.SetServing(false)
	return s
}

// SetServing flips both health entries.
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *HealthServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		s.srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", lis.Addr().String())

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
