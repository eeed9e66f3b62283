package config

import "time"

// BridgeConfig holds the HTTP bridge to the host plugin
type BridgeConfig struct {
	// Base URL of the plugin's local HTTP endpoint
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Shared secret sent as a bearer token, if the plugin requires one
	Token string `mapstructure:"token"`

	// Per-request timeout
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// How often host state is polled in the background
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// Buffered fire-and-forget commands; further commands are dropped when full
	CommandQueueSize int `mapstructure:"command_queue_size" validate:"min=1"`

	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Retry          RetryConfig          `mapstructure:"retry"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Maximum requests per second
	Requests int `mapstructure:"requests" validate:"min=1"`

	// Burst size for token bucket
	Burst int `mapstructure:"burst" validate:"min=1"`
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=0"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// CircuitBreakerConfig controls when the bridge stops calling an unresponsive host
type CircuitBreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" validate:"min=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"required"`
}
