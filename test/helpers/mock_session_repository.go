package helpers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// MockSessionRepository keeps finished sessions in memory
type MockSessionRepository struct {
	mu      sync.Mutex
	records map[string]*domain.SessionRecord
	saveErr error
	saved   chan string
}

// NewMockSessionRepository creates an empty repository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		records: make(map[string]*domain.SessionRecord),
		saved:   make(chan string, 16),
	}
}

// SetSaveError makes every Save fail with err
func (r *MockSessionRepository) SetSaveError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

func (r *MockSessionRepository) Save(ctx context.Context, record *domain.SessionRecord) error {
	r.mu.Lock()
	if r.saveErr != nil {
		r.mu.Unlock()
		return r.saveErr
	}
	copied := *record
	copied.Tasks = append([]domain.TaskRecord(nil), record.Tasks...)
	r.records[record.SessionID] = &copied
	r.mu.Unlock()

	select {
	case r.saved <- record.SessionID:
	default:
	}
	return nil
}

func (r *MockSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return record, nil
}

func (r *MockSessionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]*domain.SessionRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StartedAt.After(records[j].StartedAt) })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Saved delivers the id of every saved session
func (r *MockSessionRepository) Saved() <-chan string {
	return r.saved
}

// Len returns how many sessions are stored
func (r *MockSessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
