package commands

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// StartGatheringCommand starts a session for a resolved material list
type StartGatheringCommand struct {
	Materials       []domain.Material `validate:"required,min=1,dive"`
	Buffer          int               `validate:"gte=0"`
	Optimize        bool
	PrioritizeTimed bool
}

// StartGatheringResponse carries the status right after Start
type StartGatheringResponse struct {
	Status gathering.StatusSnapshot
}

// StartGatheringHandler handles StartGatheringCommand
type StartGatheringHandler struct {
	controller SessionController
	validate   *validator.Validate
}

// NewStartGatheringHandler creates a new StartGatheringHandler
func NewStartGatheringHandler(controller SessionController) *StartGatheringHandler {
	return &StartGatheringHandler{
		controller: controller,
		validate:   validator.New(),
	}
}

// Handle validates the material list and starts the session
func (h *StartGatheringHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StartGatheringCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *StartGatheringCommand")
	}

	if err := h.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid gathering request: %w", err)
	}

	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "Starting gathering session", map[string]interface{}{
		"materials": len(cmd.Materials),
		"buffer":    cmd.Buffer,
		"optimize":  cmd.Optimize,
	})

	status, err := h.controller.Start(ctx, gathering.StartRequest{
		Materials:       cmd.Materials,
		Buffer:          cmd.Buffer,
		Optimize:        cmd.Optimize,
		PrioritizeTimed: cmd.PrioritizeTimed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start gathering: %w", err)
	}

	return &StartGatheringResponse{Status: status}, nil
}
