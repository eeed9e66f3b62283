package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/files"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/logging"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/simulated"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
)

// runDry runs one session in-process against a simulated engine and prints
// progress until it finishes or the user interrupts
func runDry(ctx context.Context, out io.Writer, file *files.MaterialsFile, catalogPath string) error {
	cfg := config.LoadConfigOrDefault(configPath)

	var known []domain.ItemInfo
	if catalogPath != "" {
		items, err := files.LoadCatalog(catalogPath)
		if err != nil {
			return err
		}
		known = items
	}

	logger := logging.NewSessionLoggerTo(os.Stderr, cfg.Logging.Format, cfg.Logging.Level, nil, nil, nil)
	defer logger.Close()

	world := simulated.NewWorld(worldCatalog(known, file.Materials), simulated.DefaultOptions(), nil)
	orchestrator := gathering.NewOrchestrator(gathering.Dependencies{
		Engine:    world,
		Inventory: world,
		Monitor:   world,
		Operator:  world,
		Catalog:   domain.NewStaticCatalog(known),
	}, cfg.Gathering.ToSettings(), gathering.WithLogger(logger))
	runner := gathering.NewRunner(orchestrator, nil, logger, cfg.Daemon.FrameInterval)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-runner.Done()
	}()

	go world.Run(runCtx, 100*time.Millisecond)
	go runner.Run(runCtx)

	snap, err := runner.Start(ctx, gathering.StartRequest{
		Materials:       file.Materials,
		Buffer:          file.Buffer,
		Optimize:        file.Optimize,
		PrioritizeTimed: file.PrioritizeTimed,
	})
	if err != nil {
		return fmt.Errorf("failed to start dry run: %w", err)
	}
	fmt.Fprintf(out, "Dry run started: %s (%d tasks)\n", snap.SessionID, len(snap.Tasks))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastMessage := ""
	for snap.State == domain.StateRunning {
		select {
		case <-ctx.Done():
			snap, _ = runner.Stop(context.Background())
			fmt.Fprintln(out, "Interrupted")
			fmt.Fprint(out, renderStatus(grpc.StatusViewOf(snap)))
			return nil
		case <-ticker.C:
			snap = runner.Snapshot()
			if snap.StatusMessage != lastMessage {
				lastMessage = snap.StatusMessage
				fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), lastMessage)
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, renderStatus(grpc.StatusViewOf(snap)))
	return nil
}

// worldCatalog gives the simulated host a name for every requested item, even
// those missing from the catalog file
func worldCatalog(known []domain.ItemInfo, materials []domain.Material) []domain.ItemInfo {
	seen := make(map[uint32]bool, len(known))
	items := append([]domain.ItemInfo(nil), known...)
	for _, item := range known {
		seen[item.ItemID] = true
	}
	for _, m := range materials {
		if !seen[m.ItemID] {
			seen[m.ItemID] = true
			items = append(items, domain.ItemInfo{ItemID: m.ItemID, Name: m.ItemName})
		}
	}
	return items
}
