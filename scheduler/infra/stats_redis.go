package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb redis.Cmdable

	prefix string
	// ttl aplica apenas em chaves de série temporal.
	// total e por-prioridade são cumulativos e não expiram.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func NewRedisStatsStore(rdb redis.Cmdable, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "scheduler:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys devolve as chaves que um evento em `at` incrementa (útil para inspeção).
func (s *RedisStatsStore) Keys(at time.Time) (total, byPriority, byKind, minute string) {
	total = s.prefix + ":total"
	byPriority = s.prefix + ":priority"
	byKind = s.prefix + ":kind"
	if s.bucket == "minute" {
		minute = fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	}
	return total, byPriority, byKind, minute
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := string(ev.Outcome)
	totalKey, prioKey, kindKey, minuteKey := s.Keys(at)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, field, 1)
	pipe.HIncrBy(ctx, prioKey, strconv.Itoa(int(ev.Priority))+":"+field, 1)

	if minuteKey != "" {
		pipe.HIncrBy(ctx, minuteKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, minuteKey, s.ttl)
		}
	}

	if ev.Kind != domain.KindNone {
		pipe.HIncrBy(ctx, kindKey, ev.Kind.String()+":"+field, 1)
	}

	_, err := pipe.Exec(ctx)
	return err
}
