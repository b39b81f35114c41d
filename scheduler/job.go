package scheduler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

// Thunk executa uma única chamada de rede. O agendador nunca chama o mesmo
// thunk em paralelo consigo mesmo.
type Thunk func(ctx context.Context) (*http.Response, error)

type job struct {
	thunk    Thunk
	priority domain.Priority
	// attempt conta as execuções que falharam.
	attempt int
	state   State
	future  *Future
}

func newJob(thunk Thunk, priority domain.Priority) *job {
	return &job{thunk: thunk, priority: priority, state: StateQueued, future: newFuture()}
}

// transition só é chamado por quem possui o job naquele momento
// (o laço, a goroutine de execução ou o timer de retry).
func (j *job) transition(to State) {
	if !CanTransition(j.state, to) {
		panic(fmt.Sprintf("scheduler: invalid transition %s -> %s", j.state, to))
	}
	j.state = to
	if j.future != nil {
		j.future.state.Store(int32(to))
	}
}

// finish entrega o resultado e consome o slot: uma segunda chamada entra em pânico.
func (j *job) finish(resp *http.Response, err error) {
	f := j.future
	j.future = nil
	f.resolve(resp, err)
}
