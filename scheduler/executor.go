package scheduler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

const (
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"

	// sem header de reset, assume-se que a janela de quota volta em 1 minuto.
	defaultResetWindow = 60 * time.Second
	drainLimit         = 64 << 10
)

// Executor faz exatamente uma chamada HTTP por invocação e traduz a resposta
// em sucesso ou *domain.Failure. O corpo de respostas 2xx não é lido.
type Executor struct {
	Client *http.Client

	// nomes dos headers de quota; vazios usam os padrões X-RateLimit-*.
	RemainingHeader string
	ResetHeader     string

	Now func() time.Time
}

func NewExecutor(client *http.Client) *Executor {
	return &Executor{Client: client}
}

// Do executa req.
//
//   - erro de transporte: falha TransientNetwork (salvo cancelamento do próprio ctx)
//   - 403 com quota restante "0": RateLimited até o reset (ou +60s sem header)
//   - 429: RateLimited; usa Retry-After ou o header de reset se existirem
//   - demais não-2xx: falha com o status
func (e *Executor) Do(req *http.Request) (*http.Response, error) {
	resp, err := e.client().Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		return nil, domain.NewTransportFailure(err)
	}

	now := e.now()
	status := resp.StatusCode

	if status == http.StatusForbidden && strings.TrimSpace(resp.Header.Get(e.remainingHeader())) == "0" {
		resetAt, ok := e.serverReset(resp.Header, now, false)
		if !ok {
			resetAt = now.Add(defaultResetWindow)
		}
		discard(resp)
		return nil, domain.NewRateLimitFailure(status, resetAt, now)
	}

	if status == http.StatusTooManyRequests {
		discard(resp)
		if resetAt, ok := e.serverReset(resp.Header, now, true); ok {
			return nil, domain.NewRateLimitFailure(status, resetAt, now)
		}
		return nil, domain.NewHTTPFailure(status)
	}

	if status < 200 || status > 299 {
		discard(resp)
		return nil, domain.NewHTTPFailure(status)
	}
	return resp, nil
}

// Thunk adapta req para o agendador. Cada execução usa um clone com o ctx do
// agendador; requisições com corpo precisam de GetBody para sobreviver a retries.
func (e *Executor) Thunk(req *http.Request) Thunk {
	return func(ctx context.Context) (*http.Response, error) {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}
		return e.Do(r)
	}
}

// serverReset lê o instante de retomada: Retry-After (segundos) quando
// permitido, senão o header de reset (epoch em segundos).
func (e *Executor) serverReset(h http.Header, now time.Time, allowRetryAfter bool) (time.Time, bool) {
	if allowRetryAfter {
		if v := strings.TrimSpace(h.Get(headerRetryAfter)); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return now.Add(time.Duration(secs) * time.Second), true
			}
		}
	}
	if v := strings.TrimSpace(h.Get(e.resetHeader())); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(epoch, 0), true
		}
	}
	return time.Time{}, false
}

func (e *Executor) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

func (e *Executor) remainingHeader() string {
	if e.RemainingHeader != "" {
		return e.RemainingHeader
	}
	return HeaderRateLimitRemaining
}

func (e *Executor) resetHeader() string {
	if e.ResetHeader != "" {
		return e.ResetHeader
	}
	return HeaderRateLimitReset
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}
