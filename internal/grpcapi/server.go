package grpcapi

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// HardwareService is the health service name that tracks whether a lock
// controller is connected. The empty name reports the server itself.
const HardwareService = "smartlock.hardware"

// Server exposes the standard gRPC health protocol.
type Server struct {
	server *grpc.Server
	health *health.Server
	addr   string
	logger zerolog.Logger
}

func NewServer(addr string, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "grpc").Logger()

	s := &Server{
		health: health.NewServer(),
		addr:   addr,
		logger: logger,
	}
	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logRequests))
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HardwareService, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetHardwarePresent matches hub.Registry.OnPresenceChange.
func (s *Server) SetHardwarePresent(present bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if present {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(HardwareService, st)
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
	return s.server.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop(_ context.Context) error {
	s.health.Shutdown()
	s.server.GracefulStop()
	return nil
}

func (s *Server) Address() string {
	return s.addr
}

func (s *Server) logRequests(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			code = st.Code()
		} else {
			code = codes.Internal
		}
	}

	ev := s.logger.Debug()
	if err != nil {
		ev = s.logger.Warn().Err(err)
	}
	ev.Str("method", info.FullMethod).
		Dur("duration", time.Since(start)).
		Str("status", code.String()).
		Msg("grpc request")
	return resp, err
}
