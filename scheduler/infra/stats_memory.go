package infra

import (
	"context"
	"sync"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

type Counters struct {
	Dispatched int64
	Succeeded  int64
	Retrying   int64
	Failed     int64
}

func (c *Counters) add(o domain.Outcome) {
	switch o {
	case domain.OutcomeDispatched:
		c.Dispatched++
	case domain.OutcomeSucceeded:
		c.Succeeded++
	case domain.OutcomeRetrying:
		c.Retrying++
	case domain.OutcomeFailed:
		c.Failed++
	}
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes, para o endpoint de health e para desenvolvimento.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byPriority map[domain.Priority]Counters
	byKind     map[domain.Kind]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		byPriority: make(map[domain.Priority]Counters),
		byKind:     make(map[domain.Kind]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Outcome)
	c := s.byPriority[ev.Priority]
	c.add(ev.Outcome)
	s.byPriority[ev.Priority] = c

	if ev.Kind != domain.KindNone && (ev.Outcome == domain.OutcomeRetrying || ev.Outcome == domain.OutcomeFailed) {
		s.byKind[ev.Kind]++
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByPriority() map[domain.Priority]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Priority]Counters, len(s.byPriority))
	for k, v := range s.byPriority {
		out[k] = v
	}
	return out
}

// ByKind conta falhas (retry ou terminais) por tipo.
func (s *MemoryStatsStore) ByKind() map[domain.Kind]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Kind]int64, len(s.byKind))
	for k, v := range s.byKind {
		out[k] = v
	}
	return out
}
