package livestore

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.WithMessage(errors.ErrMissingConfig, "redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrConnection, err)
	}

	return client, nil
}

// Redis keeps each reading as a JSON string under smartbin:live:<bin_id>.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis returns a redis-backed store. A zero ttl keeps readings forever.
func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, now: time.Now}
}

func (r *Redis) key(binID string) string {
	return fmt.Sprintf("smartbin:live:%s", binID)
}

func (r *Redis) GetLatest(ctx context.Context, binID string) (*models.LiveReading, error) {
	data, err := r.client.Get(ctx, r.key(binID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrConnection, err)
	}
	return Unmarshal(binID, data, r.now())
}

func (r *Redis) SetLatest(ctx context.Context, binID string, reading models.LiveReading) error {
	data, err := Marshal(reading)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}
	if err := r.client.Set(ctx, r.key(binID), data, r.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrConnection, err)
	}
	return nil
}
