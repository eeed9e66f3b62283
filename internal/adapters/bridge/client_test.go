package bridge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/bridge"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/ports"
)

func testBridgeConfig(url string) config.BridgeConfig {
	return config.BridgeConfig{
		BaseURL:          url,
		Token:            "secret",
		Timeout:          time.Second,
		PollInterval:     100 * time.Millisecond,
		CommandQueueSize: 8,
		RateLimit:        config.RateLimitConfig{Requests: 1000, Burst: 100},
		Retry:            config.RetryConfig{MaxAttempts: 2, BackoffBase: time.Millisecond},
		CircuitBreaker:   config.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute},
	}
}

func TestClient_FetchState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/state", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(ports.HostState{
			AppliedCommandSeq: 7,
			Engine:            ports.EngineState{Available: true, Enabled: true},
			Inventory:         ports.InventoryState{Revision: 3, Counts: map[string]int{"5": 12}},
		})
	}))
	defer server.Close()

	client := bridge.NewClient(testBridgeConfig(server.URL), shared.NewMockClock(time.Time{}))

	state, err := client.FetchState(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint64(7), state.AppliedCommandSeq)
	assert.True(t, state.Engine.Enabled)
	assert.Equal(t, 12, state.Inventory.Counts["5"])
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := bridge.NewClient(testBridgeConfig(server.URL), shared.NewMockClock(time.Time{}))

	err := client.SendCommand(context.Background(), ports.HostCommand{Type: ports.CommandForceReset})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown command", http.StatusBadRequest)
	}))
	defer server.Close()

	client := bridge.NewClient(testBridgeConfig(server.URL), shared.NewMockClock(time.Time{}))

	err := client.SendCommand(context.Background(), ports.HostCommand{Type: "bogus"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := bridge.NewClient(testBridgeConfig(server.URL), shared.NewMockClock(time.Time{}))
	ctx := context.Background()

	_, err := client.FetchState(ctx)
	require.Error(t, err)
	_, err = client.FetchState(ctx)
	require.Error(t, err)
	assert.Equal(t, bridge.CircuitOpen, client.BreakerState())

	before := calls.Load()
	_, err = client.FetchState(ctx)
	assert.ErrorIs(t, err, bridge.ErrCircuitOpen)
	assert.Equal(t, before, calls.Load(), "an open circuit must not reach the host")
}

type countingRecorder struct {
	statuses []int
	retries  []string
	waits    int
}

func (r *countingRecorder) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	r.statuses = append(r.statuses, statusCode)
}

func (r *countingRecorder) RecordRetry(method, endpoint, reason string) {
	r.retries = append(r.retries, reason)
}

func (r *countingRecorder) RecordRateLimitWait(method, endpoint string, duration time.Duration) {
	r.waits++
}

func TestClient_RecordsTraffic(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := bridge.NewClient(testBridgeConfig(server.URL), shared.NewMockClock(time.Time{}))
	recorder := &countingRecorder{}
	client.SetRecorder(recorder)

	require.NoError(t, client.SendCommand(context.Background(), ports.HostCommand{Type: ports.CommandForceReset}))

	assert.Equal(t, []int{http.StatusBadGateway, http.StatusNoContent}, recorder.statuses)
	assert.Equal(t, []string{"502"}, recorder.retries)
	assert.Equal(t, 2, recorder.waits)
}
