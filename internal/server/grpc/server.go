// Package grpc exposes the standard grpc.health.v1 service so orchestrators
// can probe the server.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/housing/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service name reported next to "".
const ServiceName = "housing.Housing"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

type GRPCServer struct {
	address  string
	logger   logging.Logger
	health   *health.Server
	probe    Probe
	interval time.Duration
}

type Option func(*GRPCServer)

// WithProbe re-checks probe every interval and flips the reported status
// between SERVING and NOT_SERVING.
func WithProbe(p Probe, interval time.Duration) Option {
	return func(s *GRPCServer) {
		s.probe = p
		s.interval = interval
	}
}

func NewGRPCServer(a string, l logging.Logger, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		health:  health.NewServer(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	s.setServing(true)

	if s.probe != nil && s.interval > 0 {
		go s.watch(ctx)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *GRPCServer) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, s.interval)
			err := s.probe(pctx)
			cancel()

			if ok := err == nil; ok != healthy {
				healthy = ok
				if ctx.Err() != nil {
					return
				}
				s.setServing(ok)
				if ok {
					s.logger.Info(ctx, "dependency recovered")
				} else {
					s.logger.Warn(ctx, "dependency unhealthy", "error", err)
				}
			}
		}
	}
}
