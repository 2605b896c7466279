package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/redis/go-redis/v9"
)

// stringGetter is the part of the redis client the store uses.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis reads JSON ticket records stored under {prefix}{flight code}.
type Redis struct {
	client stringGetter
	closer func() error
	prefix string
}

// NewRedis creates a client for cfg. Connections are made lazily.
func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Redis{client: client, closer: client.Close, prefix: cfg.Prefix}
}

// Lookup reads and decodes the stored record.
func (r *Redis) Lookup(ctx context.Context, flightCode string) (*ticket.Record, error) {
	val, err := r.client.Get(ctx, r.prefix+flightCode).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ticket.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec ticket.Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decode stored ticket %s: %w", flightCode, err)
	}
	return &rec, nil
}

// Close closes the client.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
