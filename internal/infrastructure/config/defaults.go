package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.Path = "gatherbot.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "gatherbot"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gatherbot"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Bridge defaults
	if cfg.Bridge.BaseURL == "" {
		cfg.Bridge.BaseURL = "http://127.0.0.1:38080"
	}
	if cfg.Bridge.Timeout == 0 {
		cfg.Bridge.Timeout = 2 * time.Second
	}
	if cfg.Bridge.PollInterval == 0 {
		cfg.Bridge.PollInterval = 250 * time.Millisecond
	}
	if cfg.Bridge.CommandQueueSize == 0 {
		cfg.Bridge.CommandQueueSize = 64
	}
	if cfg.Bridge.RateLimit.Requests == 0 {
		cfg.Bridge.RateLimit.Requests = 20
	}
	if cfg.Bridge.RateLimit.Burst == 0 {
		cfg.Bridge.RateLimit.Burst = 10
	}
	if cfg.Bridge.Retry.MaxAttempts == 0 {
		cfg.Bridge.Retry.MaxAttempts = 2
	}
	if cfg.Bridge.Retry.BackoffBase == 0 {
		cfg.Bridge.Retry.BackoffBase = 100 * time.Millisecond
	}
	if cfg.Bridge.CircuitBreaker.MaxFailures == 0 {
		cfg.Bridge.CircuitBreaker.MaxFailures = 5
	}
	if cfg.Bridge.CircuitBreaker.Timeout == 0 {
		cfg.Bridge.CircuitBreaker.Timeout = 10 * time.Second
	}

	// Gathering defaults
	g := &cfg.Gathering
	if g.TickInterval == 0 {
		g.TickInterval = 1 * time.Second
	}
	if g.RetryLimit == 0 {
		g.RetryLimit = 3
	}
	if g.FinishTimeout == 0 {
		g.FinishTimeout = 30 * time.Second
	}
	if g.SoftNoDeltaTimeout == 0 {
		g.SoftNoDeltaTimeout = 20 * time.Second
	}
	if g.HardNoDeltaTimeout == 0 {
		g.HardNoDeltaTimeout = 90 * time.Second
	}
	if g.AbsoluteStallTimeout == 0 {
		g.AbsoluteStallTimeout = 5 * time.Minute
	}
	if g.InterTaskDelay == 0 {
		g.InterTaskDelay = 2 * time.Second
	}
	if g.Escalation.ReenableCooldown == 0 {
		g.Escalation.ReenableCooldown = 10 * time.Second
	}
	if g.Escalation.MaxReenableFailures == 0 {
		g.Escalation.MaxReenableFailures = 3
	}
	if g.Escalation.ResetCyclesBeforeCommandOnly == 0 {
		g.Escalation.ResetCyclesBeforeCommandOnly = 3
	}
	if g.CommandOnly.Interval == 0 {
		g.CommandOnly.Interval = 30 * time.Second
	}
	if g.CommandOnly.MaxRefusals == 0 {
		g.CommandOnly.MaxRefusals = 3
	}
	if g.CommandOnly.ResetCycles == 0 {
		g.CommandOnly.ResetCycles = 3
	}

	// Daemon defaults
	if cfg.Daemon.Address == "" {
		cfg.Daemon.Address = "localhost:50061"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/gatherbot-daemon.pid"
	}
	if cfg.Daemon.HostMode == "" {
		cfg.Daemon.HostMode = "bridge"
	}
	if cfg.Daemon.FrameInterval == 0 {
		cfg.Daemon.FrameInterval = 100 * time.Millisecond
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9101
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
