package infra

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultBackoffBase       = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
	DefaultBackoffMax        = 30 * time.Second
)

// Backoff calcula o atraso de uma nova tentativa com full jitter:
// Delay = aleatório uniforme em [0, min(Max, Base * Multiplier^attempt)].
type Backoff struct {
	Base       time.Duration
	Multiplier float64
	Max        time.Duration

	mu     sync.Mutex
	random func() float64
}

type BackoffOption func(*Backoff)

// WithBackoffRandom troca a fonte de aleatoriedade (testes determinísticos).
// fn deve devolver valores em [0, 1).
func WithBackoffRandom(fn func() float64) BackoffOption {
	return func(b *Backoff) {
		if fn != nil {
			b.random = fn
		}
	}
}

// NewBackoff cria o calculador. Valores <= 0 caem nos padrões (500ms, x2, 30s).
func NewBackoff(base time.Duration, multiplier float64, max time.Duration, opts ...BackoffOption) *Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if multiplier <= 0 {
		multiplier = DefaultBackoffMultiplier
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	b := &Backoff{Base: base, Multiplier: multiplier, Max: max, random: rand.Float64}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Ceiling é o limite superior do sorteio para a tentativa `attempt` (1-indexada).
func (b *Backoff) Ceiling(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	c := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt))
	if math.IsInf(c, 0) || math.IsNaN(c) || c > float64(b.Max) {
		return b.Max
	}
	return time.Duration(c)
}

// Delay devolve um atraso em [0, Ceiling(attempt)].
func (b *Backoff) Delay(attempt int) time.Duration {
	b.mu.Lock()
	r := b.random()
	b.mu.Unlock()

	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return time.Duration(r * float64(b.Ceiling(attempt)))
}
