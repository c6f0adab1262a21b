package shardqueue

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config tunes a ShardExecutor. Zero values fall back to defaults in
// NewShardExecutor; LoadConfig reads the same knobs from SQ_* variables.
type Config struct {
	Shards         int           `envconfig:"SHARDS" default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE" default:"128"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`
	// MaxAttempts is the number of runs a failing recoverable job gets.
	// 1 disables retries.
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"100ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"20s"`

	// ErrorHandler, when set, receives the final error of every failed job.
	ErrorHandler func(error) `ignored:"true"`
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger `ignored:"true"`
}

// LoadConfig reads Config from the environment (prefix SQ_).
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("SQ", &cfg); err != nil {
		return Config{}, fmt.Errorf("shardqueue config: %w", err)
	}
	return cfg, nil
}
