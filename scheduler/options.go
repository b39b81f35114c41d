package scheduler

import (
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"go.uber.org/zap"
)

const (
	DefaultMinInterval       = 50 * time.Millisecond
	DefaultMaxConcurrent     = 6
	DefaultMaxRetries        = 3
	DefaultBackoffBase       = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
	DefaultMaxBackoff        = 30 * time.Second
)

// Config é fixada na construção; não existe mutação em tempo de execução.
type Config struct {
	MinInterval       time.Duration
	MaxConcurrent     int
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInterval:       DefaultMinInterval,
		MaxConcurrent:     DefaultMaxConcurrent,
		MaxRetries:        DefaultMaxRetries,
		BackoffBase:       DefaultBackoffBase,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxBackoff:        DefaultMaxBackoff,
	}
}

type Option func(*Scheduler)

// WithConfig substitui a configuração inteira.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithMinInterval define o espaço mínimo entre dois despachos. 0 desliga.
func WithMinInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.cfg.MinInterval = d }
}

// WithMaxConcurrent define o teto de jobs em execução simultânea.
func WithMaxConcurrent(n int) Option {
	return func(s *Scheduler) { s.cfg.MaxConcurrent = n }
}

// WithMaxRetries define quantas novas tentativas uma falha retentável recebe.
// 0 significa uma única execução.
func WithMaxRetries(n int) Option {
	return func(s *Scheduler) { s.cfg.MaxRetries = n }
}

// WithBackoff define base, multiplicador e teto do backoff exponencial.
func WithBackoff(base time.Duration, multiplier float64, max time.Duration) Option {
	return func(s *Scheduler) {
		s.cfg.BackoffBase = base
		s.cfg.BackoffMultiplier = multiplier
		s.cfg.MaxBackoff = max
	}
}

// WithRandom troca a fonte de aleatoriedade do jitter. Usado em testes.
func WithRandom(fn func() float64) Option {
	return func(s *Scheduler) { s.random = fn }
}

// WithClock troca o relógio usado para calcular esperas de reset.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStats registra eventos de despacho (best-effort).
func WithStats(st domain.StatsStore) Option {
	return func(s *Scheduler) { s.stats = st }
}
