package grpc_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	gatherbotgrpc "github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/commands"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/queries"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

type fakeController struct {
	mu       sync.Mutex
	started  []gathering.StartRequest
	startErr error
	status   gathering.StatusSnapshot
}

func (f *fakeController) Start(ctx context.Context, req gathering.StartRequest) (gathering.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.status, f.startErr
	}
	f.started = append(f.started, req)
	f.status = gathering.StatusSnapshot{
		SessionID:    "session-1",
		State:        domain.StateRunning,
		Mode:         domain.ModeListDriven,
		CurrentIndex: 0,
		Tasks: []gathering.TaskView{
			{ItemID: req.Materials[0].ItemID, ItemName: req.Materials[0].ItemName, QuantityNeeded: req.Materials[0].Remaining + req.Buffer, Status: domain.TaskStatusInProgress},
		},
	}
	return f.status, nil
}

func (f *fakeController) Stop(ctx context.Context) (gathering.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = domain.StateReady
	f.status.StatusMessage = "Stopped by user"
	return f.status, nil
}

func (f *fakeController) Snapshot() gathering.StatusSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

type memorySessions struct {
	records []*domain.SessionRecord
}

func (m *memorySessions) Save(ctx context.Context, record *domain.SessionRecord) error {
	m.records = append([]*domain.SessionRecord{record}, m.records...)
	return nil
}

func (m *memorySessions) FindByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	for _, r := range m.records {
		if r.SessionID == sessionID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
}

func (m *memorySessions) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	if len(m.records) > limit {
		return m.records[:limit], nil
	}
	return m.records, nil
}

type fakeLogs struct {
	sessionID string
	level     *string
}

func (f *fakeLogs) GetLogs(ctx context.Context, sessionID string, limit int, level *string, since *time.Time) ([]persistence.SessionLogEntry, error) {
	f.sessionID = sessionID
	f.level = level
	return []persistence.SessionLogEntry{
		{SessionID: sessionID, Level: "WARNING", Message: "Task stalled, restarting attempt", Metadata: map[string]interface{}{"item": "Copper Ore"}},
	}, nil
}

type harness struct {
	controller *fakeController
	sessions   *memorySessions
	logs       *fakeLogs
	client     *gatherbotgrpc.DaemonClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{controller: &fakeController{}, sessions: &memorySessions{}, logs: &fakeLogs{}}

	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*commands.StartGatheringCommand](m, commands.NewStartGatheringHandler(h.controller)))
	require.NoError(t, common.RegisterHandler[*commands.StopGatheringCommand](m, commands.NewStopGatheringHandler(h.controller)))
	require.NoError(t, common.RegisterHandler[*queries.GetGatheringStatusQuery](m, queries.NewGetGatheringStatusHandler(h.controller)))
	require.NoError(t, common.RegisterHandler[*queries.ListSessionsQuery](m, queries.NewListSessionsHandler(h.sessions)))

	lis := bufconn.Listen(1024 * 1024)
	server := gatherbotgrpc.NewDaemonServerOn(lis, "", gatherbotgrpc.NewControlServer(m, h.logs), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(ctx)
	}()

	client, err := gatherbotgrpc.NewDaemonClient("bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	h.client = client

	t.Cleanup(func() {
		client.Close()
		cancel()
		<-done
	})
	return h
}

func TestControl_StartStopAndStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	started, err := h.client.Start(ctx, gatherbotgrpc.StartParams{
		Materials: []gatherbotgrpc.MaterialView{{ItemID: 5, ItemName: "Copper Ore", Remaining: 10}},
		Buffer:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, "session-1", started.SessionID)
	assert.Equal(t, "RUNNING", started.State)
	current, ok := started.Current()
	require.True(t, ok)
	assert.Equal(t, 12, current.Needed)

	require.Len(t, h.controller.started, 1)
	assert.Equal(t, uint32(5), h.controller.started[0].Materials[0].ItemID)

	live, err := h.client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "LIST_DRIVEN", live.Mode)

	stopped, err := h.client.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "READY", stopped.State)
	assert.Equal(t, "Stopped by user", stopped.Message)
}

func TestControl_StartWithoutMaterialsIsInvalidArgument(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Start(context.Background(), gatherbotgrpc.StartParams{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, h.controller.started)
}

func TestControl_StartWhileRunningIsFailedPrecondition(t *testing.T) {
	h := newHarness(t)
	h.controller.startErr = &domain.ErrInvalidStateTransition{Operation: "start", State: domain.StateRunning}

	_, err := h.client.Start(context.Background(), gatherbotgrpc.StartParams{
		Materials: []gatherbotgrpc.MaterialView{{ItemID: 5, ItemName: "Copper Ore", Remaining: 1}},
	})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestControl_StartWithoutEngineIsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.controller.startErr = domain.NewEngineUnavailableError("engine plugin not loaded")

	_, err := h.client.Start(context.Background(), gatherbotgrpc.StartParams{
		Materials: []gatherbotgrpc.MaterialView{{ItemID: 5, ItemName: "Copper Ore", Remaining: 1}},
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Contains(t, err.Error(), "engine plugin not loaded")
}

func TestControl_History(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.sessions.Save(ctx, &domain.SessionRecord{
		SessionID: "old",
		State:     domain.StateCompleted,
		Tasks: []domain.TaskRecord{
			{ItemID: 5, ItemName: "Copper Ore", Status: domain.TaskStatusCompleted},
			{ItemID: 6, ItemName: "Maple Log", Status: domain.TaskStatusSkipped},
		},
	})

	history, err := h.client.History(ctx, gatherbotgrpc.HistoryParams{})
	require.NoError(t, err)
	require.Len(t, history.Sessions, 1)
	assert.Equal(t, "old", history.Sessions[0].SessionID)
	assert.Equal(t, 1, history.Sessions[0].Completed)
	assert.Equal(t, 1, history.Sessions[0].Skipped)

	_, err = h.client.History(ctx, gatherbotgrpc.HistoryParams{SessionID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestControl_LogsDefaultToLatestSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Logs(ctx, gatherbotgrpc.LogsParams{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.Start(ctx, gatherbotgrpc.StartParams{
		Materials: []gatherbotgrpc.MaterialView{{ItemID: 5, ItemName: "Copper Ore", Remaining: 1}},
	})
	require.NoError(t, err)

	logs, err := h.client.Logs(ctx, gatherbotgrpc.LogsParams{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, "session-1", logs.SessionID)
	assert.Equal(t, "session-1", h.logs.sessionID)
	require.NotNil(t, h.logs.level)
	assert.Equal(t, "WARNING", *h.logs.level)
	require.Len(t, logs.Lines, 1)
	assert.Equal(t, "Copper Ore", logs.Lines[0].Metadata["item"])
}

func TestControl_Health(t *testing.T) {
	h := newHarness(t)

	serving, err := h.client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, serving)
}
