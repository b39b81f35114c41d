package api

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/infra"

	"go.uber.org/zap"
)

// KeyFunc extrai a chave do cliente; "" significa que a fonte não se aplica.
type KeyFunc func(r *http.Request) string

// FirstKey consulta as fontes em ordem e fica com a primeira chave não vazia.
// Se nenhuma responder, a chave é "unknown".
func FirstKey(sources ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, src := range sources {
			if k := src(r); k != "" {
				return k
			}
		}
		return "unknown"
	}
}

// HeaderKey usa o valor do header, aparado.
func HeaderKey(name string) KeyFunc {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// ForwardedForKey usa o endereço mais à esquerda do X-Forwarded-For, desde que
// seja um IP válido. Só faz sentido atrás de um proxy confiável.
func ForwardedForKey(r *http.Request) string {
	leftmost, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	addr, err := netip.ParseAddr(strings.TrimSpace(leftmost))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

// RemoteAddrKey usa o IP da conexão; endereços que não são IP:porta (unix
// sockets, transportes de teste) entram como vieram.
func RemoteAddrKey(r *http.Request) string {
	raw := strings.TrimSpace(r.RemoteAddr)
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap().String()
	}
	if host, _, err := net.SplitHostPort(raw); err == nil && host != "" {
		return host
	}
	return raw
}

// ClientKey monta a cadeia padrão: header configurado, X-Forwarded-For
// (se confiável) e por fim o RemoteAddr.
func ClientKey(keyHeader string, trustXFF bool) KeyFunc {
	var sources []KeyFunc
	if keyHeader != "" {
		sources = append(sources, HeaderKey(keyHeader))
	}
	if trustXFF {
		sources = append(sources, ForwardedForKey)
	}
	return FirstKey(append(sources, RemoteAddrKey)...)
}

type RateLimitOptions struct {
	Limiter             *ClientLimiter
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	AddRateLimitHeaders bool
	Logger              *zap.Logger
}

// RateLimit rejeita com 429 + Retry-After o cliente sem tokens. Sem Limiter,
// o middleware é transparente.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKey(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(opts.Limiter.RPS(), 'f', -1, 64))
				w.Header().Set("X-RateLimit-Burst", strconv.Itoa(opts.Limiter.Burst()))
			}

			allowed, retryAfter := opts.Limiter.Decide(key)
			if !allowed {
				opts.Logger.Debug("inbound request rate limited",
					zap.String("key", key),
					zap.String("path", r.URL.Path),
					zap.Duration("retry_after", retryAfter),
				)
				w.Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
}

// Concurrency limita requisições simultâneas; quem não consegue vaga dentro
// de AcquireTimeout recebe 503. Max <= 0 desliga.
func Concurrency(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	pool := infra.NewChanPool(opts.Max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if opts.AcquireTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.AcquireTimeout)
				defer cancel()
			}
			release, ok := pool.Acquire(ctx)
			if !ok {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}
