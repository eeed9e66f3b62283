package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// gRPC control address (host:port)
	Address string `mapstructure:"address" validate:"required"`

	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// Which host the daemon drives: "bridge" (HTTP plugin) or "simulated"
	HostMode string `mapstructure:"host_mode" validate:"required,oneof=bridge simulated"`

	// How often the runner calls the orchestrator tick (the host frame rate)
	FrameInterval time.Duration `mapstructure:"frame_interval" validate:"required"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`

	// Optional YAML file seeding the item catalog table at startup
	CatalogFile string `mapstructure:"catalog_file"`
}
