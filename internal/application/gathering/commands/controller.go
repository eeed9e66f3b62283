package commands

import (
	"context"

	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
)

// SessionController is the part of the gathering runner the command handlers drive
type SessionController interface {
	Start(ctx context.Context, req gathering.StartRequest) (gathering.StatusSnapshot, error)
	Stop(ctx context.Context) (gathering.StatusSnapshot, error)
}
