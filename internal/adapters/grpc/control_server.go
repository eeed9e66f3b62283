package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/commands"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/queries"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

const defaultLogLimit = 100

// LogReader reads session log lines, newest first
type LogReader interface {
	GetLogs(ctx context.Context, sessionID string, limit int, level *string, since *time.Time) ([]persistence.SessionLogEntry, error)
}

// ControlServer implements ControlService on top of the mediator
type ControlServer struct {
	mediator common.Mediator
	logs     LogReader
}

// NewControlServer creates a control server. logs may be nil when log reading is unsupported.
func NewControlServer(mediator common.Mediator, logs LogReader) *ControlServer {
	return &ControlServer{mediator: mediator, logs: logs}
}

// Start resolves the payload into a StartGatheringCommand
func (s *ControlServer) Start(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var params StartParams
	if err := fromStruct(in, &params); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.mediator.Send(ctx, &commands.StartGatheringCommand{
		Materials:       materialsOf(params.Materials),
		Buffer:          params.Buffer,
		Optimize:        params.Optimize,
		PrioritizeTimed: params.PrioritizeTimed,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	started, ok := resp.(*commands.StartGatheringResponse)
	if !ok {
		return nil, status.Errorf(codes.Internal, "unexpected response type %T", resp)
	}
	return toStruct(StatusViewOf(started.Status))
}

// Stop stops the active session
func (s *ControlServer) Stop(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.mediator.Send(ctx, &commands.StopGatheringCommand{})
	if err != nil {
		return nil, toStatus(err)
	}
	stopped, ok := resp.(*commands.StopGatheringResponse)
	if !ok {
		return nil, status.Errorf(codes.Internal, "unexpected response type %T", resp)
	}
	return toStruct(StatusViewOf(stopped.Status))
}

// Status returns the live status
func (s *ControlServer) Status(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.currentStatus(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(StatusViewOf(snap))
}

// History lists finished sessions
func (s *ControlServer) History(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var params HistoryParams
	if err := fromStruct(in, &params); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.mediator.Send(ctx, &queries.ListSessionsQuery{SessionID: params.SessionID, Limit: params.Limit})
	if err != nil {
		return nil, toStatus(err)
	}
	listed, ok := resp.(*queries.ListSessionsResponse)
	if !ok {
		return nil, status.Errorf(codes.Internal, "unexpected response type %T", resp)
	}

	view := HistoryView{Sessions: make([]SessionView, len(listed.Sessions))}
	for i, record := range listed.Sessions {
		view.Sessions[i] = sessionViewOf(record)
	}
	return toStruct(view)
}

// Logs returns log lines of one session. Without a session id it reads the latest one.
func (s *ControlServer) Logs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.logs == nil {
		return nil, status.Error(codes.Unimplemented, "session logs are not available")
	}

	var params LogsParams
	if err := fromStruct(in, &params); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sessionID := params.SessionID
	if sessionID == "" {
		snap, err := s.currentStatus(ctx)
		if err != nil {
			return nil, err
		}
		if snap.SessionID == "" {
			return nil, status.Error(codes.NotFound, "no gathering session has run yet")
		}
		sessionID = snap.SessionID
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	var level *string
	if params.Level != "" {
		normalized := normalizeLevel(params.Level)
		level = &normalized
	}

	entries, err := s.logs.GetLogs(ctx, sessionID, limit, level, params.Since)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to read session logs: %w", err))
	}
	return toStruct(LogsView{SessionID: sessionID, Lines: logLinesOf(entries)})
}

func (s *ControlServer) currentStatus(ctx context.Context) (gathering.StatusSnapshot, error) {
	resp, err := s.mediator.Send(ctx, &queries.GetGatheringStatusQuery{})
	if err != nil {
		return gathering.StatusSnapshot{}, toStatus(err)
	}
	current, ok := resp.(*queries.GetGatheringStatusResponse)
	if !ok {
		return gathering.StatusSnapshot{}, status.Errorf(codes.Internal, "unexpected response type %T", resp)
	}
	return current.Status, nil
}

// normalizeLevel turns user input such as "warn" into a stored level name
func normalizeLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "WARN" {
		return "WARNING"
	}
	return level
}

// toStatus maps application errors onto gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	var stateErr *domain.ErrInvalidStateTransition
	var engineErr *domain.ErrEngineUnavailable

	switch {
	case errors.As(err, &validationErrs):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &stateErr):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &engineErr), errors.Is(err, gathering.ErrRunnerStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor puts logger into every request context and logs failed calls
func LoggingInterceptor(logger common.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = common.WithLogger(ctx, logger)
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Log("WARNING", "Control call failed", map[string]interface{}{
				"method":   info.FullMethod,
				"code":     status.Code(err).String(),
				"error":    err.Error(),
				"duration": time.Since(start).String(),
			})
		}
		return resp, err
	}
}
