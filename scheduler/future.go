package scheduler

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Future é o slot de resultado de um job. É escrito exatamente uma vez.
type Future struct {
	done chan struct{}
	resp *http.Response
	err  error

	state    atomic.Int32
	attempts atomic.Int32
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done fecha quando o job chega a um estado terminal.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait bloqueia até o resultado ou até o ctx encerrar. Cancelar o ctx não
// cancela o job: ele continua até o fim e o resultado tardio é ignorado.
func (f *Future) Wait(ctx context.Context) (*http.Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result devolve o resultado; só é válido depois de Done.
func (f *Future) Result() (*http.Response, error) {
	<-f.done
	return f.resp, f.err
}

// State é o estado corrente do job.
func (f *Future) State() State { return State(f.state.Load()) }

// Attempts é o número de execuções do thunk até agora.
func (f *Future) Attempts() int { return int(f.attempts.Load()) }

// discard fecha o corpo da resposta quando o job terminar. Só quem é o único
// leitor do Future pode chamá-lo.
func (f *Future) discard() {
	go func() {
		<-f.done
		if f.resp != nil && f.resp.Body != nil {
			f.resp.Body.Close()
		}
	}()
}

func (f *Future) resolve(resp *http.Response, err error) {
	f.resp, f.err = resp, err
	close(f.done)
}
