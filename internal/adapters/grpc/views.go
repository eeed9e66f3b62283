package grpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// The control service carries google.protobuf.Struct payloads. These views are the
// JSON shapes inside them, shared by server and client.

// MaterialView is one material line of a start request
type MaterialView struct {
	ItemID    uint32 `json:"item_id"`
	ItemName  string `json:"item_name"`
	Remaining int    `json:"remaining"`
}

// StartParams is the payload of Start
type StartParams struct {
	Materials       []MaterialView `json:"materials"`
	Buffer          int            `json:"buffer"`
	Optimize        bool           `json:"optimize"`
	PrioritizeTimed bool           `json:"prioritize_timed"`
}

// HistoryParams is the payload of History
type HistoryParams struct {
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// LogsParams is the payload of Logs. An empty SessionID means the latest session.
type LogsParams struct {
	SessionID string     `json:"session_id,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Level     string     `json:"level,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
}

// TaskView is one task row
type TaskView struct {
	ItemID   uint32 `json:"item_id"`
	ItemName string `json:"item_name"`
	Needed   int    `json:"needed"`
	Observed int    `json:"observed"`
	Status   string `json:"status"`
	Retries  int    `json:"retries"`
	Error    string `json:"error,omitempty"`
}

// StatusView is the live orchestrator status
type StatusView struct {
	SessionID     string     `json:"session_id"`
	State         string     `json:"state"`
	Mode          string     `json:"mode"`
	Message       string     `json:"message"`
	CurrentIndex  int        `json:"current_index"`
	Tasks         []TaskView `json:"tasks"`
	TotalGathered int        `json:"total_gathered"`
	HasFailures   bool       `json:"has_failures"`
	HasSkipped    bool       `json:"has_skipped"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
}

// Current returns the task being worked on
func (s StatusView) Current() (TaskView, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tasks) {
		return TaskView{}, false
	}
	return s.Tasks[s.CurrentIndex], true
}

// SessionView is one finished session from history
type SessionView struct {
	SessionID     string     `json:"session_id"`
	State         string     `json:"state"`
	Message       string     `json:"message"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
	TotalGathered int        `json:"total_gathered"`
	Completed     int        `json:"completed"`
	Failed        int        `json:"failed"`
	Skipped       int        `json:"skipped"`
	Tasks         []TaskView `json:"tasks"`
}

// HistoryView is the History answer
type HistoryView struct {
	Sessions []SessionView `json:"sessions"`
}

// LogLineView is one session log line
type LogLineView struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// LogsView is the Logs answer
type LogsView struct {
	SessionID string        `json:"session_id"`
	Lines     []LogLineView `json:"lines"`
}

// toStruct encodes a view as a Struct through its JSON form
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return s, nil
}

// fromStruct decodes a Struct into a view. A nil Struct leaves v untouched.
func fromStruct(s *structpb.Struct, v interface{}) error {
	if s == nil {
		return nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

func materialsOf(views []MaterialView) []domain.Material {
	out := make([]domain.Material, len(views))
	for i, m := range views {
		out[i] = domain.Material{ItemID: m.ItemID, ItemName: m.ItemName, Remaining: m.Remaining}
	}
	return out
}

// StatusViewOf converts a status snapshot into its wire view
func StatusViewOf(s gathering.StatusSnapshot) StatusView {
	tasks := make([]TaskView, len(s.Tasks))
	for i, t := range s.Tasks {
		tasks[i] = TaskView{
			ItemID:   t.ItemID,
			ItemName: t.ItemName,
			Needed:   t.QuantityNeeded,
			Observed: t.QuantityObserved,
			Status:   string(t.Status),
			Retries:  t.RetryCount,
			Error:    t.ErrorMessage,
		}
	}
	return StatusView{
		SessionID:     s.SessionID,
		State:         string(s.State),
		Mode:          string(s.Mode),
		Message:       s.StatusMessage,
		CurrentIndex:  s.CurrentIndex,
		Tasks:         tasks,
		TotalGathered: s.TotalGathered,
		HasFailures:   s.HasFailures,
		HasSkipped:    s.HasSkipped,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
	}
}

func sessionViewOf(r *domain.SessionRecord) SessionView {
	completed, failed, skipped := r.Counts()
	tasks := make([]TaskView, len(r.Tasks))
	for i, t := range r.Tasks {
		tasks[i] = TaskView{
			ItemID:   t.ItemID,
			ItemName: t.ItemName,
			Needed:   t.QuantityNeeded,
			Observed: t.QuantityObserved,
			Status:   string(t.Status),
			Retries:  t.RetryCount,
			Error:    t.ErrorMessage,
		}
	}
	return SessionView{
		SessionID:     r.SessionID,
		State:         string(r.State),
		Message:       r.StatusMessage,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		TotalGathered: r.TotalGathered,
		Completed:     completed,
		Failed:        failed,
		Skipped:       skipped,
		Tasks:         tasks,
	}
}

func logLinesOf(entries []persistence.SessionLogEntry) []LogLineView {
	lines := make([]LogLineView, len(entries))
	for i, e := range entries {
		lines[i] = LogLineView{Timestamp: e.Timestamp, Level: e.Level, Message: e.Message, Metadata: e.Metadata}
	}
	return lines
}
