package bus

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

const channel = "soundwave:realtime"

// Redis relays broadcast envelopes between gateway instances over redis
// pub/sub. Each instance tags envelopes with its own id and skips them on
// the way back in, so local delivery never doubles up.
type Redis struct {
	rdb      *redis.Client
	instance string
	log      *zerolog.Logger
}

// NewRedis connects to redis and verifies connectivity.
func NewRedis(ctx context.Context, addr string, db int, logger *zerolog.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{
		rdb:      rdb,
		instance: uuid.NewString(),
		log:      logger,
	}, nil
}

// Publish implements realtime.Bus.
func (b *Redis) Publish(ctx context.Context, env realtime.Envelope) error {
	env.Origin = b.instance
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel, raw).Err()
}

// Subscribe listens for envelopes published by sibling instances and
// invokes fn for each. Blocks until ctx is cancelled.
func (b *Redis) Subscribe(ctx context.Context, fn func(realtime.Envelope)) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env realtime.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn().Err(err).Msg("malformed bus envelope")
				continue
			}
			if env.Origin == b.instance {
				continue
			}
			fn(env)
		}
	}
}

// Close shuts down the redis connection.
func (b *Redis) Close() error {
	return b.rdb.Close()
}
