package infra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"github.com/redis/go-redis/v9"
)

func TestRedisStatsStore_Keys(t *testing.T) {
	s := NewRedisStatsStore(nil, WithStatsPrefix(":portfolio:stats:"))
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	total, prio, kind, minute := s.Keys(at)
	if total != "portfolio:stats:total" || prio != "portfolio:stats:priority" || kind != "portfolio:stats:kind" {
		t.Fatalf("unexpected keys: %s %s %s", total, prio, kind)
	}
	if minute != "portfolio:stats:minute:202503040506" {
		t.Fatalf("unexpected minute key: %s", minute)
	}

	s = NewRedisStatsStore(nil, WithStatsBucket("none"))
	if _, _, _, minute := s.Keys(at); minute != "" {
		t.Fatalf("expected no minute key with bucket=none, got %s", minute)
	}
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	if err := s.Record(context.Background(), domain.StatsEvent{Outcome: domain.OutcomeDispatched}); err != nil {
		t.Fatalf("expected nil store to be a no-op, got %v", err)
	}
}

func TestRedisStatsStore_Record(t *testing.T) {
	addr := os.Getenv("PORTFOLIO_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PORTFOLIO_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	prefix := "scheduler:test:" + time.Now().Format("150405.000000")
	s := NewRedisStatsStore(rdb, WithStatsPrefix(prefix), WithStatsTTL(time.Minute))
	at := time.Now()

	events := []domain.StatsEvent{
		{Outcome: domain.OutcomeDispatched, Priority: domain.PriorityHigh, At: at},
		{Outcome: domain.OutcomeRetrying, Priority: domain.PriorityHigh, Kind: domain.KindServerError, Status: 502, At: at},
		{Outcome: domain.OutcomeDispatched, Priority: domain.PriorityHigh, At: at},
		{Outcome: domain.OutcomeSucceeded, Priority: domain.PriorityHigh, At: at},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	total, prio, kind, minute := s.Keys(at)
	defer rdb.Del(ctx, total, prio, kind, minute)

	if got, _ := rdb.HGet(ctx, total, "dispatched").Int(); got != 2 {
		t.Fatalf("expected 2 dispatched, got %d", got)
	}
	if got, _ := rdb.HGet(ctx, prio, "8:succeeded").Int(); got != 1 {
		t.Fatalf("expected 1 succeeded at priority 8, got %d", got)
	}
	if got, _ := rdb.HGet(ctx, kind, "server_error:retrying").Int(); got != 1 {
		t.Fatalf("expected 1 server_error retry, got %d", got)
	}
	if ttl := rdb.TTL(ctx, minute).Val(); ttl <= 0 {
		t.Fatalf("expected minute bucket to expire, ttl=%s", ttl)
	}
}
