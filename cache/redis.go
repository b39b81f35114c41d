package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore guarda cada entrada como string JSON em <prefix>:<key>.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithRedisPrefix(p string) RedisOption {
	return func(s *RedisStore) {
		if p != "" {
			s.prefix = p
		}
	}
}

// WithRedisTTL define uma expiração no Redis além da checagem de idade;
// evita que chaves de usuários nunca mais consultados fiquem para sempre.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

func NewRedisStore(rdb redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: "portfolio:cache", now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

func (s *RedisStore) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}
	k := s.key(key)
	raw, err := s.rdb.Get(ctx, k).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis get %s", k)
	}

	e, err := parseEntry(raw)
	if err != nil {
		_ = s.rdb.Del(ctx, k).Err()
		return nil, false, errors.Wrapf(err, "redis key %s", k)
	}
	if expired(time.UnixMilli(e.Timestamp), s.now(), maxAge) {
		_ = s.rdb.Del(ctx, k).Err()
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	raw, err := newEntry(data, s.now())
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}
	k := s.key(key)
	return errors.Wrapf(s.rdb.Set(ctx, k, raw, s.ttl).Err(), "redis set %s", k)
}
