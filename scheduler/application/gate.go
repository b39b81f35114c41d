package application

import (
	"context"
	"sync"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

// Gate concentra a regra de admissão: primeiro uma vaga no pool, depois o
// intervalo mínimo desde o último despacho. Sem saber nada sobre HTTP.
type Gate struct {
	Pool  domain.SlotPool
	Pacer domain.Pacer
	Now   func() time.Time

	mu           sync.Mutex
	lastDispatch time.Time
}

// Admit bloqueia até as duas condições valerem ou até o ctx encerrar.
// Em caso de sucesso devolve o release, que pode ser chamado mais de uma vez
// sem efeito extra; apenas a primeira chamada devolve a vaga.
func (g *Gate) Admit(ctx context.Context) (func(), error) {
	release := func() {}
	if g.Pool != nil {
		r, ok := g.Pool.Acquire(ctx)
		if !ok {
			return nil, ctx.Err()
		}
		release = r
	}

	// o intervalo é medido depois de obter a vaga: vale o instante do despacho,
	// não o da chegada na fila.
	if g.Pacer != nil {
		if err := g.Pacer.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}

	g.mu.Lock()
	g.lastDispatch = g.now()
	g.mu.Unlock()

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// Active é o número de vagas ocupadas.
func (g *Gate) Active() int {
	if g.Pool == nil {
		return 0
	}
	return g.Pool.InUse()
}

// LastDispatch é o instante da última admissão (zero se nunca admitiu).
func (g *Gate) LastDispatch() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastDispatch
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
