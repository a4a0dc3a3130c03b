package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/cohort/internal/core"
)

// redisKeyPrefix namespaces the slot key.
const redisKeyPrefix = "cohort:"

// Redis stores the encoded snapshot under a single key with no expiry.
type Redis struct {
	client *redis.Client
	key    string
}

// ConnectRedis builds a client from a redis:// URL or a bare host:port.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// OpenRedis connects to Redis using opts.URL.
func OpenRedis(_ context.Context, opts Options) (*Redis, error) {
	client, err := ConnectRedis(opts.URL)
	if err != nil {
		return nil, err
	}
	return NewRedis(client, opts.Slot), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, slot string) *Redis {
	if slot == "" {
		slot = core.LastImportKey
	}
	return &Redis{client: client, key: redisKeyPrefix + slot}
}

func (r *Redis) SaveLastImport(ctx context.Context, snap core.Snapshot) error {
	payload, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) LoadLastImport(ctx context.Context) (*core.Snapshot, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNoImport
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.key, err)
	}
	return core.DecodeSnapshot(payload)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
