package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/config"
)

// DialRedis creates a Redis client and performs a health check.
func DialRedis(ctx context.Context, cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisOptions configures a Redis backend.
type RedisOptions struct {
	Prefix  string
	Channel string
	// OwnsClient makes Close close the underlying client.
	OwnsClient bool
	Logger     *zap.Logger
}

// Redis keeps the local area in Redis so several clients share one origin.
// Every write is announced on a pub/sub channel for cross-client sync.
type Redis struct {
	client  *goRedis.Client
	prefix  string
	channel string
	origin  string
	owns    bool
	logger  *zap.Logger
}

type redisNotice struct {
	Origin string `json:"origin"`
	Change
}

func NewRedis(client *goRedis.Client, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "storefront:"
	}
	if opts.Channel == "" {
		opts.Channel = opts.Prefix + "changes"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Redis{
		client:  client,
		prefix:  opts.Prefix,
		channel: opts.Channel,
		origin:  uuid.NewString(),
		owns:    opts.OwnsClient,
		logger:  opts.Logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goRedis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	old, err := r.client.SetArgs(ctx, r.key(key), value, goRedis.SetArgs{Get: true}).Result()
	if err != nil && !errors.Is(err, goRedis.Nil) {
		return err
	}
	r.publish(ctx, Change{Key: key, OldValue: old, NewValue: string(value)})
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	old, err := r.client.GetDel(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, goRedis.Nil) {
			return nil
		}
		return err
	}
	r.publish(ctx, Change{Key: key, OldValue: old, Removed: true})
	return nil
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	return keys, iter.Err()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.owns {
		return r.client.Close()
	}
	return nil
}

// Watch subscribes to the change channel and skips notices from this handle.
func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var notice redisNotice
				if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
					r.logger.Warn("dropping malformed storage notice", zap.Error(err))
					continue
				}
				if notice.Origin == r.origin {
					continue
				}
				select {
				case out <- notice.Change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) publish(ctx context.Context, c Change) {
	payload, err := json.Marshal(redisNotice{Origin: r.origin, Change: c})
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("failed to publish storage change", zap.String("key", c.Key), zap.Error(err))
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}
