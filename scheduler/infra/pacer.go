package infra

import (
	"context"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"golang.org/x/time/rate"
)

// Pacer é um token-bucket de burst 1: cada token libera um despacho e o
// próximo só fica disponível depois de `interval`.
type Pacer struct {
	lim      *rate.Limiter
	interval time.Duration
}

var _ domain.Pacer = (*Pacer)(nil)

// NewPacer cria um pacer com intervalo mínimo `interval`. interval <= 0 desliga o espaçamento.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{lim: rate.NewLimiter(limit, 1), interval: interval}
}

func (p *Pacer) Interval() time.Duration { return p.interval }

func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
