package grpc

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// DaemonClient talks to a running daemon over gRPC
type DaemonClient struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// NewDaemonClient connects to address ("host:port" or "unix:/path")
func NewDaemonClient(address string, opts ...grpc.DialOption) (*DaemonClient, error) {
	target := address
	if !strings.HasPrefix(address, unixPrefix) {
		target = "passthrough:///" + address
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon at %s: %w", address, err)
	}
	return &DaemonClient{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Close closes the gRPC connection
func (c *DaemonClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start asks the daemon to start a session
func (c *DaemonClient) Start(ctx context.Context, params StartParams) (StatusView, error) {
	var view StatusView
	err := c.call(ctx, methodStart, params, &view)
	return view, err
}

// Stop asks the daemon to stop the active session
func (c *DaemonClient) Stop(ctx context.Context) (StatusView, error) {
	var view StatusView
	err := c.call(ctx, methodStop, struct{}{}, &view)
	return view, err
}

// Status reads the live status
func (c *DaemonClient) Status(ctx context.Context) (StatusView, error) {
	var view StatusView
	err := c.call(ctx, methodStatus, struct{}{}, &view)
	return view, err
}

// History lists finished sessions
func (c *DaemonClient) History(ctx context.Context, params HistoryParams) (HistoryView, error) {
	var view HistoryView
	err := c.call(ctx, methodHistory, params, &view)
	return view, err
}

// Logs reads session log lines, newest first
func (c *DaemonClient) Logs(ctx context.Context, params LogsParams) (LogsView, error) {
	var view LogsView
	err := c.call(ctx, methodLogs, params, &view)
	return view, err
}

// Health reports whether the control service is serving
func (c *DaemonClient) Health(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ControlServiceName})
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

func (c *DaemonClient) call(ctx context.Context, method string, params, out interface{}) error {
	in, err := toStruct(params)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, resp); err != nil {
		return err
	}
	return fromStruct(resp, out)
}
