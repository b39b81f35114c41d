package domain

import (
	"errors"
	"fmt"
	"time"
)

// statusTooManyRequests evita importar net/http só pela constante.
const statusTooManyRequests = 429

// Kind classifica uma falha de execução.
type Kind int

const (
	KindNone Kind = iota
	KindTransientNetwork
	KindRateLimited
	KindServerError
	KindClientError
)

func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindClientError:
		return "client_error"
	default:
		return "none"
	}
}

// Failure é o único formato de erro que a política de retry entende.
//
// Exhausted=true indica que a falha era retentável mas as tentativas acabaram;
// Kind continua sendo o da última falha observada.
type Failure struct {
	Kind   Kind
	Status int

	// ResumeAfter é o tempo até o reset informado pelo servidor, medido quando
	// a resposta chegou; ResetAt é o instante absoluto, quando conhecido.
	// Só valem quando ResetKnown=true.
	ResumeAfter time.Duration
	ResetAt     time.Time
	ResetKnown  bool

	Exhausted bool
	Attempts  int

	Err error
}

func (f *Failure) Error() string {
	msg := f.Kind.String()
	if f.Status != 0 {
		msg = fmt.Sprintf("%s: HTTP %d", msg, f.Status)
	}
	if f.Kind == KindRateLimited && f.ResetKnown {
		msg += fmt.Sprintf(" (resume after %s)", f.ResumeAfter)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	if f.Exhausted {
		msg += fmt.Sprintf(" (gave up after %d attempts)", f.Attempts)
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Exhaust devolve uma cópia marcada como esgotada após `attempts` execuções.
func (f *Failure) Exhaust(attempts int) *Failure {
	c := *f
	c.Exhausted = true
	c.Attempts = attempts
	return &c
}

// Retryable informa se o tipo da falha admite nova tentativa.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case KindTransientNetwork, KindRateLimited, KindServerError:
		return true
	default:
		return false
	}
}

// NewHTTPFailure classifica uma resposta não-2xx pelo status.
// 429 sem reset conhecido vira RateLimited com fallback para backoff.
func NewHTTPFailure(status int) *Failure {
	switch {
	case status == statusTooManyRequests:
		return &Failure{Kind: KindRateLimited, Status: status}
	case status >= 500:
		return &Failure{Kind: KindServerError, Status: status}
	default:
		return &Failure{Kind: KindClientError, Status: status}
	}
}

// NewRateLimitFailure cria uma falha de quota que só deve ser retomada em resetAt.
func NewRateLimitFailure(status int, resetAt, now time.Time) *Failure {
	resume := resetAt.Sub(now)
	if resume < 0 {
		resume = 0
	}
	return &Failure{Kind: KindRateLimited, Status: status, ResumeAfter: resume, ResetAt: resetAt, ResetKnown: true}
}

// NewTransportFailure embrulha um erro de conexão/rede.
func NewTransportFailure(err error) *Failure {
	return &Failure{Kind: KindTransientNetwork, Err: err}
}

// AsFailure extrai um *Failure da cadeia de erros.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsRetriesExhausted indica que o erro é uma falha retentável que esgotou as tentativas.
func IsRetriesExhausted(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Exhausted
}

// IsRateLimited indica que a última falha foi de quota.
func IsRateLimited(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == KindRateLimited
}
