package gathering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// ErrRunnerStopped is returned for requests sent after the runner loop exited
var ErrRunnerStopped = errors.New("gathering runner is not running")

// StartRequest describes a session to start
type StartRequest struct {
	Materials       []domain.Material
	Buffer          int
	Optimize        bool
	PrioritizeTimed bool
}

type runnerCommand struct {
	apply func(o *Orchestrator) error
	reply chan error
}

// Runner owns an Orchestrator and drives it from a single goroutine, standing in
// for the host frame loop. Requests from other goroutines are funnelled through a
// command channel; observers read an atomically swapped StatusSnapshot.
type Runner struct {
	orchestrator  *Orchestrator
	sessions      domain.SessionRepository
	logger        common.Logger
	frameInterval time.Duration

	commands chan runnerCommand
	snapshot atomic.Pointer[StatusSnapshot]
	done     chan struct{}
	running  atomic.Bool

	persisting    sync.WaitGroup
	lastPersisted string
}

// NewRunner creates a runner. sessions may be nil when history is not kept.
func NewRunner(orchestrator *Orchestrator, sessions domain.SessionRepository, logger common.Logger, frameInterval time.Duration) *Runner {
	if logger == nil {
		logger = common.NoOpLogger()
	}
	if frameInterval <= 0 {
		frameInterval = 100 * time.Millisecond
	}
	r := &Runner{
		orchestrator:  orchestrator,
		sessions:      sessions,
		logger:        logger,
		frameInterval: frameInterval,
		commands:      make(chan runnerCommand),
		done:          make(chan struct{}),
	}
	r.publish()
	return r
}

// Run drives the orchestrator until ctx is cancelled. An active session is stopped
// and persisted on the way out.
func (r *Runner) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("gathering runner already started")
	}
	defer close(r.done)

	ticker := time.NewTicker(r.frameInterval)
	defer ticker.Stop()

	r.logger.Log("INFO", "Gathering runner started", map[string]interface{}{
		"frame_interval": r.frameInterval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			r.orchestrator.Stop()
			r.afterStep()
			r.persisting.Wait()
			r.logger.Log("INFO", "Gathering runner stopped", nil)
			return nil

		case cmd := <-r.commands:
			err := r.apply(cmd.apply)
			r.afterStep()
			cmd.reply <- err

		case <-ticker.C:
			r.orchestrator.Update()
			r.afterStep()
		}
	}
}

func (r *Runner) apply(fn func(o *Orchestrator) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.orchestrator.fault(rec)
			err = fmt.Errorf("gathering request panicked: %v", rec)
		}
	}()
	return fn(r.orchestrator)
}

// Start builds a queue from the request and starts a session
func (r *Runner) Start(ctx context.Context, req StartRequest) (StatusSnapshot, error) {
	err := r.submit(ctx, func(o *Orchestrator) error {
		if err := o.BuildQueue(req.Materials, req.Buffer); err != nil {
			return err
		}
		if req.Optimize {
			if err := o.OptimizeQueue(req.PrioritizeTimed); err != nil {
				return err
			}
		}
		return o.Start()
	})
	return r.Snapshot(), err
}

// Stop stops the active session, if any
func (r *Runner) Stop(ctx context.Context) (StatusSnapshot, error) {
	err := r.submit(ctx, func(o *Orchestrator) error {
		o.Stop()
		return nil
	})
	return r.Snapshot(), err
}

// NotifyInventoryChanged forwards a host inventory-change hint to the tick goroutine
func (r *Runner) NotifyInventoryChanged(ctx context.Context) error {
	return r.submit(ctx, func(o *Orchestrator) error {
		o.NotifyInventoryChanged()
		return nil
	})
}

// Snapshot returns the last published status
func (r *Runner) Snapshot() StatusSnapshot {
	return *r.snapshot.Load()
}

// Done is closed once Run has returned
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) submit(ctx context.Context, fn func(o *Orchestrator) error) error {
	cmd := runnerCommand{apply: fn, reply: make(chan error, 1)}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) afterStep() {
	snap := r.publish()
	if snap.State == domain.StateRunning || snap.SessionID == "" || snap.SessionID == r.lastPersisted {
		return
	}
	r.lastPersisted = snap.SessionID
	r.persist(snap)
}

func (r *Runner) publish() *StatusSnapshot {
	snap := r.orchestrator.Snapshot()
	r.snapshot.Store(&snap)
	return &snap
}

// persist writes the finished session in the background; the tick loop never waits on storage
func (r *Runner) persist(snap *StatusSnapshot) {
	if r.sessions == nil {
		return
	}
	record := RecordOf(snap)

	r.persisting.Add(1)
	go func() {
		defer r.persisting.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.sessions.Save(ctx, record); err != nil {
			r.logger.Log("ERROR", fmt.Sprintf("Failed to persist gathering session: %v", err), map[string]interface{}{
				"session_id": record.SessionID,
			})
			return
		}
		r.logger.Log("DEBUG", "Gathering session persisted", map[string]interface{}{
			"session_id": record.SessionID,
			"state":      string(record.State),
		})
	}()
}

// RecordOf converts a status snapshot into its persisted form
func RecordOf(snap *StatusSnapshot) *domain.SessionRecord {
	record := &domain.SessionRecord{
		SessionID:     snap.SessionID,
		State:         snap.State,
		StatusMessage: snap.StatusMessage,
		StartedAt:     snap.StartedAt,
		FinishedAt:    snap.FinishedAt,
		TotalGathered: snap.TotalGathered,
		Tasks:         make([]domain.TaskRecord, len(snap.Tasks)),
	}
	for i, t := range snap.Tasks {
		record.Tasks[i] = domain.TaskRecord{
			Position:         i,
			ItemID:           t.ItemID,
			ItemName:         t.ItemName,
			QuantityNeeded:   t.QuantityNeeded,
			QuantityObserved: t.QuantityObserved,
			Status:           t.Status,
			RetryCount:       t.RetryCount,
			ErrorMessage:     t.ErrorMessage,
		}
	}
	return record
}
