package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/files"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// NewQueueCommand creates the queue command
func NewQueueCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Preview the task queue a materials file would produce",
		Long: `Build the task queue locally without contacting the daemon. With a catalog,
--optimize shows the zone-grouped order the daemon would use.

Examples:
  gatherbot queue --materials materials.yaml
  gatherbot queue --materials materials.yaml --catalog items.yaml --optimize --prioritize-timed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := resolveMaterials(cmd, opts)
			if err != nil {
				return err
			}

			var catalog []domain.ItemInfo
			if opts.catalogPath != "" {
				if catalog, err = files.LoadCatalog(opts.catalogPath); err != nil {
					return err
				}
			}

			tasks := previewQueue(file, catalog, time.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "%d tasks (buffer %d)\n", len(tasks), file.Buffer)
			if len(tasks) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), renderTasks(tasks, -1))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.materialsPath, "materials", "", "Materials file (defaults to the saved preference)")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "Item catalog file, needed for --optimize")
	cmd.Flags().IntVar(&opts.buffer, "buffer", 0, "Extra units per item on top of what remains")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "Group the queue by zone")
	cmd.Flags().BoolVar(&opts.prioritizeTimed, "prioritize-timed", false, "Put items with open timed windows first")

	return cmd
}

func previewQueue(file *files.MaterialsFile, catalog []domain.ItemInfo, now time.Time) []grpc.TaskView {
	queue := domain.BuildQueue(file.Materials, file.Buffer)
	if file.Optimize {
		queue = domain.NewScheduleOptimizer(domain.NewStaticCatalog(catalog)).Optimize(queue, file.PrioritizeTimed, now)
	}

	views := make([]grpc.TaskView, len(queue))
	for i, t := range queue {
		views[i] = grpc.TaskView{
			ItemID:   t.ItemID(),
			ItemName: t.ItemName(),
			Needed:   t.QuantityNeeded(),
			Status:   string(t.Status()),
		}
	}
	return views
}
