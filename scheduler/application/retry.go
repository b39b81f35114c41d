package application

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

// Delayer calcula o backoff da n-ésima nova tentativa (1-indexada).
type Delayer interface {
	Delay(attempt int) time.Duration
}

// RetryPolicy concentra a regra de retry.
//
// Ela não re-enfileira nada, apenas retorna uma decisão para o agendador.
type RetryPolicy struct {
	MaxRetries int
	Backoff    Delayer
	Now        func() time.Time
}

// Decide classifica err depois de `attempt` execuções falhas (1 na primeira falha).
//
//   - quota (403 sem saldo / 429): espera o reset do servidor se conhecido, senão backoff
//   - 5xx e falhas de transporte: backoff
//   - qualquer outra coisa: terminal
//
// Uma falha retentável vira terminal quando attempt > MaxRetries.
func (p RetryPolicy) Decide(err error, attempt int) domain.Decision {
	f := Classify(err)
	if !f.Retryable() {
		return domain.Terminal(f)
	}
	if attempt > p.MaxRetries {
		return domain.Decision{Failure: f.Exhaust(attempt), Exhausted: true}
	}

	if f.Kind == domain.KindRateLimited && f.ResetKnown {
		wait := f.ResumeAfter
		if !f.ResetAt.IsZero() {
			wait = f.ResetAt.Sub(p.now())
		}
		return domain.RetryAfter(f, wait)
	}

	var wait time.Duration
	if p.Backoff != nil {
		wait = p.Backoff.Delay(attempt)
	}
	return domain.RetryAfter(f, wait)
}

// Classify converte qualquer erro devolvido por um thunk em *domain.Failure.
// Cancelamento explícito nunca é retentável.
func Classify(err error) *domain.Failure {
	if f, ok := domain.AsFailure(err); ok {
		return f
	}
	if errors.Is(err, context.Canceled) {
		return &domain.Failure{Kind: domain.KindClientError, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return domain.NewTransportFailure(err)
	}
	return &domain.Failure{Kind: domain.KindClientError, Err: err}
}

func (p RetryPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
