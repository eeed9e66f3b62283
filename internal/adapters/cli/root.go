package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
)

var (
	// Global flags
	daemonAddress string
	configPath    string
	callTimeout   time.Duration
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gatherbot",
		Short: "gatherbot CLI - Drive the gathering daemon",
		Long: `gatherbot keeps an external gathering engine working through a list of
materials. The CLI talks to the gatherbot daemon over gRPC.

Examples:
  gatherbot run --materials materials.yaml
  gatherbot run --materials materials.yaml --dry-run
  gatherbot status
  gatherbot watch
  gatherbot stop
  gatherbot history
  gatherbot logs --level WARNING
  gatherbot queue --materials materials.yaml --catalog items.yaml --optimize`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&daemonAddress, "daemon", getDefaultDaemonAddress(),
		`Daemon address ("host:port" or "unix:/path")`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config.yaml (defaults to the standard search paths)")
	rootCmd.PersistentFlags().DurationVar(&callTimeout, "timeout", 10*time.Second,
		"Timeout for each daemon call")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewStopCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewLogsCommand())
	rootCmd.AddCommand(NewQueueCommand())
	rootCmd.AddCommand(NewHealthCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// getDefaultDaemonAddress returns the daemon address from the environment or the default
func getDefaultDaemonAddress() string {
	if addr := os.Getenv("GB_DAEMON_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:50061"
}

// withDaemon connects, runs fn under the call timeout and closes the connection
func withDaemon(fn func(ctx context.Context, client *grpc.DaemonClient) error) error {
	client, err := grpc.NewDaemonClient(daemonAddress)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return fn(ctx, client)
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
