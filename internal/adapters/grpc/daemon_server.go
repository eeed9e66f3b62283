package grpc

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
)

const unixPrefix = "unix:"

// DaemonServer serves the control service and the standard health service
type DaemonServer struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	logger     common.Logger
	socketPath string
}

// NewDaemonServer listens on address: "host:port" for TCP or "unix:/path" for a
// Unix domain socket readable only by the owner.
func NewDaemonServer(address string, control ControlService, logger common.Logger, opts ...grpc.ServerOption) (*DaemonServer, error) {
	listener, socketPath, err := listen(address)
	if err != nil {
		return nil, err
	}
	return NewDaemonServerOn(listener, socketPath, control, logger, opts...), nil
}

// NewDaemonServerOn serves on an existing listener
func NewDaemonServerOn(listener net.Listener, socketPath string, control ControlService, logger common.Logger, opts ...grpc.ServerOption) *DaemonServer {
	if logger == nil {
		logger = common.NoOpLogger()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingInterceptor(logger))}, opts...)
	grpcServer := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	RegisterControlService(grpcServer, control)
	healthServer.SetServingStatus(ControlServiceName, healthpb.HealthCheckResponse_SERVING)

	return &DaemonServer{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
		socketPath: socketPath,
	}
}

func listen(address string) (net.Listener, string, error) {
	if !strings.HasPrefix(address, unixPrefix) {
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return nil, "", fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		return listener, "", nil
	}

	socketPath := strings.TrimPrefix(address, unixPrefix)
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, "", fmt.Errorf("failed to remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create unix socket listener: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, "", fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, socketPath, nil
}

// Addr is the address the server listens on
func (s *DaemonServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve blocks until ctx is cancelled or the server fails. Shutdown marks the
// services NOT_SERVING first, then drains in-flight calls.
func (s *DaemonServer) Serve(ctx context.Context) error {
	s.logger.Log("INFO", "Daemon server listening", map[string]interface{}{
		"address": s.listener.Addr().String(),
	})

	errChan := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		s.cleanup()
		return err
	case <-ctx.Done():
		s.logger.Log("INFO", "Initiating graceful shutdown of gRPC server", nil)
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		s.cleanup()
		return nil
	}
}

func (s *DaemonServer) cleanup() {
	if s.socketPath != "" {
		os.Remove(s.socketPath)
	}
}
