package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
)

// StatusSource publishes the live gathering status
type StatusSource interface {
	Snapshot() gathering.StatusSnapshot
}

// GetGatheringStatusQuery asks for the live status
type GetGatheringStatusQuery struct{}

// GetGatheringStatusResponse is the live status
type GetGatheringStatusResponse struct {
	Status gathering.StatusSnapshot
}

// GetGatheringStatusHandler handles GetGatheringStatusQuery
type GetGatheringStatusHandler struct {
	source StatusSource
}

// NewGetGatheringStatusHandler creates a new GetGatheringStatusHandler
func NewGetGatheringStatusHandler(source StatusSource) *GetGatheringStatusHandler {
	return &GetGatheringStatusHandler{source: source}
}

// Handle returns the last published snapshot
func (h *GetGatheringStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*GetGatheringStatusQuery); !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetGatheringStatusQuery")
	}
	return &GetGatheringStatusResponse{Status: h.source.Snapshot()}, nil
}
