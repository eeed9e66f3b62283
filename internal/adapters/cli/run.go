package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/files"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
)

type runOptions struct {
	materialsPath   string
	catalogPath     string
	buffer          int
	optimize        bool
	prioritizeTimed bool
	dryRun          bool
	follow          bool
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a gathering session from a materials file",
		Long: `Start a gathering session on the daemon.

The materials file lists what is still required:

  buffer: 2
  materials:
    - item_id: 5
      item_name: Copper Ore
      remaining: 12

With --dry-run the session runs in-process against a simulated engine instead.

Examples:
  gatherbot run --materials materials.yaml
  gatherbot run --materials materials.yaml --buffer 3 --optimize --follow
  gatherbot run --materials materials.yaml --catalog items.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := resolveMaterials(cmd, opts)
			if err != nil {
				return err
			}

			params := grpc.StartParams{
				Materials:       make([]grpc.MaterialView, len(file.Materials)),
				Buffer:          file.Buffer,
				Optimize:        file.Optimize,
				PrioritizeTimed: file.PrioritizeTimed,
			}
			for i, m := range file.Materials {
				params.Materials[i] = grpc.MaterialView{ItemID: m.ItemID, ItemName: m.ItemName, Remaining: m.Remaining}
			}

			if opts.dryRun {
				return runDry(cmd.Context(), cmd.OutOrStdout(), file, opts.catalogPath)
			}

			var started grpc.StatusView
			err = withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				started, err = client.Start(ctx, params)
				return err
			})
			if err != nil {
				return fmt.Errorf("failed to start gathering: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Gathering session started: %s\n\n", started.SessionID)
			if !opts.follow {
				fmt.Fprint(cmd.OutOrStdout(), renderStatus(started))
				return nil
			}

			client, err := grpc.NewDaemonClient(daemonAddress)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()
			_, err = tea.NewProgram(newWatchModel(client, defaultWatchInterval, callTimeout, true)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&opts.materialsPath, "materials", "", "Materials file (defaults to the saved preference)")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "Item catalog file used by --dry-run")
	cmd.Flags().IntVar(&opts.buffer, "buffer", 0, "Extra units per item on top of what remains")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "Group the queue by zone before starting")
	cmd.Flags().BoolVar(&opts.prioritizeTimed, "prioritize-timed", false, "Put items with open timed windows first")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run against a simulated engine instead of the daemon")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "Open the live view after starting")

	return cmd
}

// resolveMaterials loads the materials file and applies flag and preference overrides.
// Flags win over the file; the saved default buffer only fills a file without one.
func resolveMaterials(cmd *cobra.Command, opts *runOptions) (*files.MaterialsFile, error) {
	var prefs *config.UserConfig
	if handler, err := config.NewUserConfigHandler(); err == nil {
		prefs, _ = handler.Load()
	}

	path := opts.materialsPath
	if path == "" && prefs != nil {
		path = prefs.DefaultMaterials
	}
	if path == "" {
		return nil, fmt.Errorf("no materials file: use --materials or set one with 'gatherbot config set-materials'")
	}

	file, err := files.LoadMaterials(path)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Flags().Changed("buffer"):
		if opts.buffer < 0 {
			return nil, fmt.Errorf("--buffer must not be negative")
		}
		file.Buffer = opts.buffer
	case file.Buffer == 0 && prefs != nil && prefs.DefaultBuffer != nil:
		file.Buffer = *prefs.DefaultBuffer
	}
	if cmd.Flags().Changed("optimize") {
		file.Optimize = opts.optimize
	}
	if cmd.Flags().Changed("prioritize-timed") {
		file.PrioritizeTimed = opts.prioritizeTimed
		if opts.prioritizeTimed {
			file.Optimize = true
		}
	}
	return file, nil
}
