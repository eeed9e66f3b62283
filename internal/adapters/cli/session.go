package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
)

// NewStopCommand creates the stop command
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active gathering session",
		Long: `Stop the active session. The engine is disabled and any injected target
list is removed. Stopping when nothing runs is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				view, err := client.Stop(ctx)
				if err != nil {
					return fmt.Errorf("failed to stop gathering: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", view.Message)
				return nil
			})
		},
	}
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the live gathering status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				view, err := client.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get status: %w", err)
				}
				if asJSON {
					return printJSON(cmd, view)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStatus(view))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status as JSON")
	return cmd
}

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List finished gathering sessions",
		Long: `List finished sessions, newest first. With a session id, show that
session's tasks.

Examples:
  gatherbot history
  gatherbot history --limit 5
  gatherbot history 3f2b8c1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := grpc.HistoryParams{Limit: limit}
			if len(args) == 1 {
				params.SessionID = args[0]
			}

			return withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				view, err := client.History(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to get history: %w", err)
				}
				if asJSON {
					return printJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderHistory(view))
				if params.SessionID != "" && len(view.Sessions) == 1 {
					fmt.Fprintln(out)
					fmt.Fprint(out, renderTasks(view.Sessions[0].Tasks, -1))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

// NewLogsCommand creates the logs command
func NewLogsCommand() *cobra.Command {
	var (
		limit int
		level string
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "logs [session-id]",
		Short: "Show session logs",
		Long: `Retrieve log lines for a session. Without a session id the latest
session is used.

Examples:
  gatherbot logs
  gatherbot logs --level WARNING --limit 50
  gatherbot logs --since 10m`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := grpc.LogsParams{Limit: limit, Level: level}
			if len(args) == 1 {
				params.SessionID = args[0]
			}
			if since > 0 {
				from := time.Now().Add(-since)
				params.Since = &from
			}

			return withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				view, err := client.Logs(ctx, params)
				if err != nil {
					return fmt.Errorf("failed to get logs: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderLogs(view))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of log entries")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (DEBUG, INFO, WARNING, ERROR)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only lines newer than this (e.g. 15m)")
	return cmd
}

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon health status",
		Long:  `Verify that the daemon is running and its control service is serving.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(func(ctx context.Context, client *grpc.DaemonClient) error {
				serving, err := client.Health(ctx)
				if err != nil {
					return err
				}
				if !serving {
					return fmt.Errorf("daemon at %s is not serving", daemonAddress)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Daemon is healthy (%s)\n", daemonAddress)
				return nil
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
