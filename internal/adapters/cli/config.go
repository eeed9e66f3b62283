package cli

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage gatherbot configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (GB_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default materials file and buffer) are stored in
~/.gatherbot/preferences.json

Examples:
  gatherbot config show
  gatherbot config set-materials ./materials.yaml
  gatherbot config set-buffer 2
  gatherbot config clear`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetMaterialsCommand())
	cmd.AddCommand(newConfigSetBufferCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Fprintf(out, "Warning: Failed to load config: %v\n", err)
				fmt.Fprintln(out, "Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Fprintf(out, "Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			printConfig(out, cfg, userCfg, userConfigHandler.GetConfigPath())
			return nil
		},
	}
}

func printConfig(out io.Writer, cfg *config.Config, userCfg *config.UserConfig, prefsPath string) {
	fmt.Fprintln(out, titleStyle.Render("gatherbot Configuration"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "User Preferences:")
	fmt.Fprintf(out, "  Config file:        %s\n", prefsPath)
	fmt.Fprintf(out, "  Default materials:  %s\n", orNotSet(userCfg.DefaultMaterials))
	if userCfg.DefaultBuffer != nil {
		fmt.Fprintf(out, "  Default buffer:     %d\n", *userCfg.DefaultBuffer)
	} else {
		fmt.Fprintf(out, "  Default buffer:     (not set)\n")
	}

	fmt.Fprintln(out, "\nDatabase:")
	fmt.Fprintf(out, "  Type:               %s\n", cfg.Database.Type)
	switch {
	case cfg.Database.URL != "":
		fmt.Fprintf(out, "  URL:                %s\n", maskPassword(cfg.Database.URL))
	case cfg.Database.Type == "sqlite":
		fmt.Fprintf(out, "  Path:               %s\n", cfg.Database.Path)
	default:
		fmt.Fprintf(out, "  Host:               %s:%d\n", cfg.Database.Host, cfg.Database.Port)
		fmt.Fprintf(out, "  Database:           %s\n", cfg.Database.Name)
		fmt.Fprintf(out, "  User:               %s\n", cfg.Database.User)
	}

	fmt.Fprintln(out, "\nHost Bridge:")
	fmt.Fprintf(out, "  Base URL:           %s\n", cfg.Bridge.BaseURL)
	fmt.Fprintf(out, "  Poll interval:      %s\n", cfg.Bridge.PollInterval)
	fmt.Fprintf(out, "  Rate limit:         %d req/s (burst: %d)\n", cfg.Bridge.RateLimit.Requests, cfg.Bridge.RateLimit.Burst)

	g := cfg.Gathering
	fmt.Fprintln(out, "\nGathering:")
	fmt.Fprintf(out, "  Tick interval:      %s\n", g.TickInterval)
	fmt.Fprintf(out, "  Retry limit:        %d\n", g.RetryLimit)
	fmt.Fprintf(out, "  Finish timeout:     %s\n", g.FinishTimeout)
	fmt.Fprintf(out, "  No-progress:        soft %s / hard %s / absolute %s\n", g.SoftNoDeltaTimeout, g.HardNoDeltaTimeout, g.AbsoluteStallTimeout)
	fmt.Fprintf(out, "  Re-enable:          cooldown %s, %d failures, %d reset cycles\n",
		g.Escalation.ReenableCooldown, g.Escalation.MaxReenableFailures, g.Escalation.ResetCyclesBeforeCommandOnly)
	fmt.Fprintf(out, "  Command-only:       every %s, %d refusals\n", g.CommandOnly.Interval, g.CommandOnly.MaxRefusals)

	fmt.Fprintln(out, "\nDaemon:")
	fmt.Fprintf(out, "  Address:            %s\n", cfg.Daemon.Address)
	fmt.Fprintf(out, "  Host mode:          %s\n", cfg.Daemon.HostMode)
	fmt.Fprintf(out, "  Frame interval:     %s\n", cfg.Daemon.FrameInterval)

	fmt.Fprintln(out, "\nLogging:")
	fmt.Fprintf(out, "  Level:              %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  Format:             %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  Output:             %s\n", cfg.Logging.Output)
	fmt.Fprintf(out, "  Persist:            %t\n", cfg.Logging.Persist)

	fmt.Fprintln(out, "\nMetrics:")
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "  Endpoint:           http://%s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
	} else {
		fmt.Fprintf(out, "  Endpoint:           (disabled)\n")
	}
}

// newConfigSetMaterialsCommand creates the config set-materials subcommand
func newConfigSetMaterialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-materials <file>",
		Short: "Set the default materials file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetDefaultMaterials(path); err != nil {
				return fmt.Errorf("failed to set default materials: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Default materials file set to %s\n", path)
			return nil
		},
	}
}

// newConfigSetBufferCommand creates the config set-buffer subcommand
func newConfigSetBufferCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-buffer <n>",
		Short: "Set the default buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var buffer int
			if _, err := fmt.Sscanf(args[0], "%d", &buffer); err != nil || buffer < 0 {
				return fmt.Errorf("buffer must be a non-negative integer")
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.SetDefaultBuffer(buffer); err != nil {
				return fmt.Errorf("failed to set default buffer: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Default buffer set to %d\n", buffer)
			return nil
		},
	}
}

// newConfigClearCommand creates the config clear subcommand
func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := userConfigHandler.Clear(); err != nil {
				return fmt.Errorf("failed to clear preferences: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Preferences cleared")
			return nil
		},
	}
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "****")
	return u.String()
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
