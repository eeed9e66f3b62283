package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/metrics"
	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// metricValue sums the counter or histogram-count samples of name whose labels match
func metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if !labelsMatch(m, labels) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, pair := range m.GetLabel() {
			if pair.GetName() == k && pair.GetValue() == v {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestGatheringCollector_RecordsOrchestratorEvents(t *testing.T) {
	metrics.InitRegistry()
	collector := metrics.NewGatheringCollector()
	require.NoError(t, collector.Register())

	collector.RecordItemsGathered("Copper Ore", 3)
	collector.RecordItemsGathered("Copper Ore", 0)
	collector.RecordTaskFinished("Copper Ore", domain.TaskStatusCompleted, 1)
	collector.RecordTaskFinished("Maple Log", domain.TaskStatusFailed, 4)
	collector.RecordEscalation(domain.ActionResetCycle, "reenable-failures-exceeded")
	collector.RecordEscalation(domain.ActionReenable, "reenable")
	collector.RecordStall("stall_absolute")
	collector.RecordSessionFinished(domain.StateCompleted, 90*time.Second)

	assert.Equal(t, 3.0, metricValue(t, "gatherbot_orchestrator_items_gathered_total", map[string]string{"item": "Copper Ore"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_orchestrator_tasks_total", map[string]string{"status": "COMPLETED"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_orchestrator_tasks_total", map[string]string{"status": "FAILED"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_orchestrator_reset_cycles_total", nil))
	assert.Equal(t, 2.0, metricValue(t, "gatherbot_orchestrator_escalations_total", nil))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_orchestrator_stalls_total", map[string]string{"kind": "stall_absolute"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_orchestrator_session_duration_seconds", map[string]string{"state": "COMPLETED"}))
}

type pingQuery struct{}

type pingHandler struct{ err error }

func (h *pingHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	return "pong", h.err
}

func TestPrometheusMiddleware_RecordsOutcome(t *testing.T) {
	metrics.InitRegistry()
	requests := metrics.NewRequestMetrics()
	require.NoError(t, requests.Register())

	med := common.NewMediator()
	med.RegisterMiddleware(metrics.PrometheusMiddleware(requests))
	handler := &pingHandler{}
	require.NoError(t, common.RegisterHandler[*pingQuery](med, handler))

	resp, err := med.Send(context.Background(), &pingQuery{})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp)

	handler.err = errors.New("boom")
	_, err = med.Send(context.Background(), &pingQuery{})
	require.Error(t, err)

	assert.Equal(t, 1.0, metricValue(t, "gatherbot_control_requests_total", map[string]string{"request": "pingQuery", "status": "success"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_control_requests_total", map[string]string{"request": "pingQuery", "status": "error"}))
}

func TestBridgeMetricsCollector_RecordsTraffic(t *testing.T) {
	metrics.InitRegistry()
	collector := metrics.NewBridgeMetricsCollector()
	require.NoError(t, collector.Register())

	collector.RecordRequest("GET", "/v1/state", 200, 3*time.Millisecond)
	collector.RecordRequest("GET", "/v1/state", 0, time.Second)
	collector.RecordRetry("GET", "/v1/state", "network")
	collector.RecordRateLimitWait("POST", "/v1/commands", time.Millisecond)

	assert.Equal(t, 1.0, metricValue(t, "gatherbot_bridge_requests_total", map[string]string{"status_code": "200"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_bridge_requests_total", map[string]string{"status_code": "0"}))
	assert.Equal(t, 2.0, metricValue(t, "gatherbot_bridge_request_duration_seconds", map[string]string{"endpoint": "/v1/state"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_bridge_retries_total", map[string]string{"reason": "network"}))
	assert.Equal(t, 1.0, metricValue(t, "gatherbot_bridge_rate_limit_wait_seconds", nil))
}
