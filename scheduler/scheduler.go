package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/application"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/infra"

	"go.uber.org/zap"
)

// ErrClosed é entregue a jobs que ainda estavam na fila (ou esperando retry) quando o Close aconteceu.
var ErrClosed = errors.New("scheduler: closed")

// statsTimeout limita cada gravação de estatística.
const statsTimeout = 250 * time.Millisecond

// Scheduler é o dono exclusivo da fila e do gate. Só o laço retira jobs da
// fila e só o laço chama Admit; Submit e os timers de retry apenas inserem.
type Scheduler struct {
	cfg    Config
	logger *zap.Logger
	stats  domain.StatsStore
	random func() float64
	now    func() time.Time

	gate   *application.Gate
	policy application.RetryPolicy

	mu       sync.Mutex
	queue    *infra.PriorityQueue[*job]
	retrying map[*job]*time.Timer
	closed   bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	jobs   sync.WaitGroup
}

// Status é um retrato do agendador para monitoramento.
type Status struct {
	QueueLength   int
	Active        int
	MaxConcurrent int
	LastDispatch  time.Time
	Closed        bool
}

// New cria o agendador e inicia o laço de despacho. Pare com Close.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
		now:      time.Now,
		queue:    infra.NewPriorityQueue[*job](),
		retrying: make(map[*job]*time.Timer),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxConcurrent <= 0 {
		s.cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if s.cfg.MaxRetries < 0 {
		s.cfg.MaxRetries = 0
	}

	var boOpts []infra.BackoffOption
	if s.random != nil {
		boOpts = append(boOpts, infra.WithBackoffRandom(s.random))
	}
	bo := infra.NewBackoff(s.cfg.BackoffBase, s.cfg.BackoffMultiplier, s.cfg.MaxBackoff, boOpts...)

	s.gate = &application.Gate{
		Pool:  infra.NewChanPool(s.cfg.MaxConcurrent),
		Pacer: infra.NewPacer(s.cfg.MinInterval),
		Now:   s.now,
	}
	s.policy = application.RetryPolicy{
		MaxRetries: s.cfg.MaxRetries,
		Backoff:    bo,
		Now:        s.now,
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.loop()
	return s
}

// Config devolve a configuração efetiva.
func (s *Scheduler) Config() Config { return s.cfg }

// Submit enfileira o thunk e devolve o Future do resultado.
func (s *Scheduler) Submit(thunk Thunk, priority domain.Priority) *Future {
	j := newJob(thunk, priority)
	f := j.future
	s.enqueue(j)
	return f
}

// Schedule enfileira e espera o resultado. Cancelar ctx apenas para de esperar;
// o job segue até o fim e o corpo da resposta tardia é fechado.
func (s *Scheduler) Schedule(ctx context.Context, thunk Thunk, priority domain.Priority) (*http.Response, error) {
	f := s.Submit(thunk, priority)
	select {
	case <-f.Done():
		return f.Result()
	case <-ctx.Done():
		f.discard()
		return nil, ctx.Err()
	}
}

// Do é Schedule com PriorityDefault.
func (s *Scheduler) Do(ctx context.Context, thunk Thunk) (*http.Response, error) {
	return s.Schedule(ctx, thunk, domain.PriorityDefault)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	qlen, closed := s.queue.Len(), s.closed
	s.mu.Unlock()
	return Status{
		QueueLength:   qlen,
		Active:        s.gate.Active(),
		MaxConcurrent: s.cfg.MaxConcurrent,
		LastDispatch:  s.gate.LastDispatch(),
		Closed:        closed,
	}
}

// Close para o laço. Jobs na fila ou esperando retry recebem ErrClosed; jobs
// em execução terminam normalmente e Close espera por eles.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pending := s.queue.Drain()
	for j, t := range s.retrying {
		// Stop=false: o timer já disparou e o callback vai encontrar closed=true.
		if t.Stop() {
			pending = append(pending, j)
		}
		delete(s.retrying, j)
	}
	s.mu.Unlock()

	s.cancel()
	<-s.done

	for _, j := range pending {
		j.transition(StateFailed)
		j.finish(nil, ErrClosed)
	}
	s.jobs.Wait()
	return nil
}

func (s *Scheduler) enqueue(j *job) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		j.transition(StateFailed)
		j.finish(nil, ErrClosed)
		return
	}
	s.queue.Push(j.priority, j)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)

	for {
		if !s.waitForWork() {
			return
		}

		// admite antes de retirar: o job escolhido é o de maior prioridade
		// no instante do despacho, não no instante em que a espera começou.
		release, err := s.gate.Admit(s.ctx)
		if err != nil {
			return
		}

		s.mu.Lock()
		j, ok := s.queue.Pop()
		s.mu.Unlock()
		if !ok {
			release()
			continue
		}

		j.transition(StateAdmitted)
		s.logger.Debug("job admitted",
			zap.Int("priority", int(j.priority)),
			zap.Int("attempt", j.attempt),
			zap.Int("active", s.gate.Active()),
		)

		s.jobs.Add(1)
		go s.execute(j, release)
	}
}

func (s *Scheduler) waitForWork() bool {
	for {
		s.mu.Lock()
		n, closed := s.queue.Len(), s.closed
		s.mu.Unlock()
		if closed {
			return false
		}
		if n > 0 {
			return true
		}
		select {
		case <-s.wake:
		case <-s.ctx.Done():
			return false
		}
	}
}

func (s *Scheduler) execute(j *job, release func()) {
	defer s.jobs.Done()
	// release é idempotente; o defer garante a devolução mesmo se algo abaixo entrar em pânico.
	defer release()

	j.transition(StateExecuting)
	j.future.attempts.Add(1)

	resp, err := s.invoke(j)
	release()
	s.record(domain.StatsEvent{Outcome: domain.OutcomeDispatched, Priority: j.priority, Attempt: j.attempt})

	if err == nil {
		s.record(domain.StatsEvent{Outcome: domain.OutcomeSucceeded, Priority: j.priority, Attempt: j.attempt})
		j.transition(StateSucceeded)
		j.finish(resp, nil)
		return
	}

	j.attempt++
	dec := s.policy.Decide(err, j.attempt)
	f := dec.Failure

	if !dec.Retry {
		s.record(domain.StatsEvent{Outcome: domain.OutcomeFailed, Priority: j.priority, Attempt: j.attempt, Status: f.Status, Kind: f.Kind})
		if dec.Exhausted {
			s.logger.Info("request failed after exhausting retries",
				zap.Int("attempts", j.attempt),
				zap.Int("status", f.Status),
				zap.Stringer("kind", f.Kind),
			)
		}
		j.transition(StateFailed)
		j.finish(nil, f)
		return
	}

	s.record(domain.StatsEvent{Outcome: domain.OutcomeRetrying, Priority: j.priority, Attempt: j.attempt, Status: f.Status, Kind: f.Kind})
	s.logger.Warn("request failed, retrying",
		zap.Int("attempt", j.attempt),
		zap.Int("max_retries", s.cfg.MaxRetries),
		zap.Duration("delay", dec.Wait),
		zap.Int("status", f.Status),
		zap.Stringer("kind", f.Kind),
	)
	j.transition(StateRetrying)
	s.retryAfter(j, dec.Wait)
}

// retryAfter devolve o job à fila depois de wait. A espera acontece fora do
// gate: a vaga já foi devolvida antes de chegar aqui.
func (s *Scheduler) retryAfter(j *job, wait time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		j.transition(StateFailed)
		j.finish(nil, ErrClosed)
		return
	}
	s.retrying[j] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		delete(s.retrying, j)
		s.mu.Unlock()

		j.transition(StateQueued)
		s.enqueue(j)
	})
}

func (s *Scheduler) invoke(j *job) (resp *http.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &domain.Failure{Kind: domain.KindClientError, Err: fmt.Errorf("thunk panic: %v", r)}
		}
	}()
	return j.thunk(context.Background())
}

func (s *Scheduler) record(ev domain.StatsEvent) {
	if s.stats == nil {
		return
	}
	ev.At = s.now()
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()
	if err := s.stats.Record(ctx, ev); err != nil {
		s.logger.Debug("stats record failed", zap.Error(err))
	}
}
