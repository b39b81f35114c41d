package domain

import (
	"context"
	"time"
)

// Outcome identifica o evento de um job no ciclo de despacho.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeRetrying   Outcome = "retrying"
	OutcomeFailed     Outcome = "failed"
)

// StatsEvent representa um evento de despacho do agendador.
//
// Observação: Status é 0 quando não houve resposta HTTP (falha de transporte,
// ou eventos de despacho/sucesso sem status relevante).
type StatsEvent struct {
	Outcome  Outcome
	Priority Priority
	Attempt  int
	Status   int
	Kind     Kind

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de despacho.
//
// Implementações podem armazenar em Redis, memória, etc.
// O agendador trata erro como best-effort (não derruba o job).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
