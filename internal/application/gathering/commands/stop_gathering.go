package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
)

// StopGatheringCommand stops the active session. Stopping an idle runner is a no-op.
type StopGatheringCommand struct{}

// StopGatheringResponse carries the status after the stop
type StopGatheringResponse struct {
	Status gathering.StatusSnapshot
}

// StopGatheringHandler handles StopGatheringCommand
type StopGatheringHandler struct {
	controller SessionController
}

// NewStopGatheringHandler creates a new StopGatheringHandler
func NewStopGatheringHandler(controller SessionController) *StopGatheringHandler {
	return &StopGatheringHandler{controller: controller}
}

// Handle stops the session
func (h *StopGatheringHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*StopGatheringCommand); !ok {
		return nil, fmt.Errorf("invalid request type: expected *StopGatheringCommand")
	}

	status, err := h.controller.Stop(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to stop gathering: %w", err)
	}
	return &StopGatheringResponse{Status: status}, nil
}
