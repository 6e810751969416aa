package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// indexLen caps the list of recent artifact names kept alongside the values.
const indexLen = 100

// RedisSink stores artifacts as string keys and keeps a short index of
// recent names.
type RedisSink struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ Sink = (*RedisSink)(nil)

// RedisOption customizes a RedisSink.
type RedisOption func(*RedisSink)

// WithPrefix sets the key prefix. Surrounding colons are trimmed.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSink) { s.prefix = strings.Trim(prefix, ":") }
}

// WithTTL sets the expiry of stored artifacts. Zero keeps them forever.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisSink) { s.ttl = d }
}

// NewRedisSink creates a RedisSink.
func NewRedisSink(rdb redis.Cmdable, opts ...RedisOption) *RedisSink {
	s := &RedisSink{
		rdb:    rdb,
		prefix: "crm:stats",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key used for name.
func (s *RedisSink) Key(name string) string {
	return s.prefix + ":" + name
}

// IndexKey returns the key of the recent-artifacts list.
func (s *RedisSink) IndexKey() string {
	return s.prefix + ":index"
}

// Write stores content under the key for name.
func (s *RedisSink) Write(ctx context.Context, name string, content []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	key := s.Key(name)

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, key, content, s.ttl)
	pipe.LPush(ctx, s.IndexKey(), name)
	pipe.LTrim(ctx, s.IndexKey(), 0, indexLen-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store %s in redis: %w", key, err)
	}
	return key, nil
}
