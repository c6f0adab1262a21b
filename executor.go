package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/claimsure/claims-client/internal/shardqueue"
)

// executor runs mutations FIFO per user.
type executor interface {
	Do(ctx context.Context, key string, job shardqueue.Job) error
	Barrier(ctx context.Context, key string) error
	Stop()
}

// newDefaultExecutor builds the shard executor from cfg, or from SQ_*
// variables when cfg is nil.
func newDefaultExecutor(cfg *shardqueue.Config, logger zerolog.Logger) *shardqueue.ShardExecutor {
	var c shardqueue.Config
	if cfg != nil {
		c = *cfg
	} else {
		loaded, err := shardqueue.LoadConfig()
		if err != nil {
			logger.Warn().Err(err).Msg("invalid executor configuration, using defaults")
		} else {
			c = loaded
		}
	}
	if c.Logger == nil {
		c.Logger = &logger
	}
	return shardqueue.NewShardExecutor(c)
}
