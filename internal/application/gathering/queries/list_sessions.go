package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

const defaultHistoryLimit = 20

// ListSessionsQuery asks for recently finished sessions, newest first.
// A non-empty SessionID narrows the result to that session.
type ListSessionsQuery struct {
	SessionID string
	Limit     int
}

// ListSessionsResponse holds the matching sessions
type ListSessionsResponse struct {
	Sessions []*domain.SessionRecord
}

// ListSessionsHandler handles ListSessionsQuery
type ListSessionsHandler struct {
	sessions domain.SessionRepository
}

// NewListSessionsHandler creates a new ListSessionsHandler
func NewListSessionsHandler(sessions domain.SessionRepository) *ListSessionsHandler {
	return &ListSessionsHandler{sessions: sessions}
}

// Handle loads session history
func (h *ListSessionsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ListSessionsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListSessionsQuery")
	}

	if query.SessionID != "" {
		record, err := h.sessions.FindByID(ctx, query.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to find session %s: %w", query.SessionID, err)
		}
		return &ListSessionsResponse{Sessions: []*domain.SessionRecord{record}}, nil
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := h.sessions.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return &ListSessionsResponse{Sessions: records}, nil
}
