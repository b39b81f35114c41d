package domain

import "time"

// Decision é o resultado da política de retry para uma falha.
type Decision struct {
	Retry bool
	// Wait é quanto esperar fora do gate antes de voltar para a fila.
	// Só faz sentido quando Retry=true.
	Wait time.Duration

	// Failure é a falha já classificada (nunca nil quando a decisão vem da política).
	Failure *Failure
	// Exhausted indica que a falha era retentável, mas as tentativas acabaram.
	Exhausted bool
}

// Terminal devolve uma decisão de propagar a falha para quem chamou.
func Terminal(f *Failure) Decision { return Decision{Failure: f} }

// RetryAfter devolve uma decisão de nova tentativa após d (negativo vira 0).
func RetryAfter(f *Failure, d time.Duration) Decision {
	if d < 0 {
		d = 0
	}
	return Decision{Retry: true, Wait: d, Failure: f}
}
