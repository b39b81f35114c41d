package infra

import (
	"context"
	"testing"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

func TestMemoryStatsStore_CountsByOutcomePriorityAndKind(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeDispatched, Priority: domain.PriorityHigh})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeRetrying, Priority: domain.PriorityHigh, Kind: domain.KindServerError, Status: 500})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeDispatched, Priority: domain.PriorityHigh})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeSucceeded, Priority: domain.PriorityHigh})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeDispatched, Priority: domain.PriorityLow})
	_ = s.Record(ctx, domain.StatsEvent{Outcome: domain.OutcomeFailed, Priority: domain.PriorityLow, Kind: domain.KindClientError, Status: 404})

	total := s.Total()
	if total.Dispatched != 3 || total.Succeeded != 1 || total.Retrying != 1 || total.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", total)
	}
	if got := s.ByPriority()[domain.PriorityHigh].Dispatched; got != 2 {
		t.Fatalf("expected 2 high-priority dispatches, got %d", got)
	}
	kinds := s.ByKind()
	if kinds[domain.KindServerError] != 1 || kinds[domain.KindClientError] != 1 {
		t.Fatalf("unexpected kind counters: %v", kinds)
	}
}
