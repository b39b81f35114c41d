package portfolio

import (
	"net/http"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/cache"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL     = "https://api.github.com"
	DefaultRawURL     = "https://raw.githubusercontent.com"
	DefaultConfigPath = "src/repo.config.json"
	DefaultUserAgent  = "portfolio-github-integration-server"
	DefaultMaxRepos   = 100
	DefaultCacheTTL   = 20 * time.Minute
)

// ProgressFunc recebe (processados, total, repositório) antes de cada sonda.
type ProgressFunc func(processed, total int, repo string)

// Options controla uma varredura.
type Options struct {
	// Token de acesso pessoal; vazio faz chamadas anônimas.
	Token string
	// MaxRepos limita quantos repositórios são sondados (0 = 100).
	MaxRepos int
	// Sequential sonda um repositório por vez em vez de todos de uma vez.
	Sequential bool
	// CacheTTL é a idade máxima aceita no cache (0 = 20 min, negativo desliga a leitura).
	CacheTTL   time.Duration
	OnProgress ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.MaxRepos <= 0 {
		o.MaxRepos = DefaultMaxRepos
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return o
}

type ClientOption func(*Client)

func WithAPIURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.apiURL = u
		}
	}
}

func WithRawURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.rawURL = u
		}
	}
}

func WithConfigPath(p string) ClientOption {
	return func(c *Client) {
		if p != "" {
			c.configPath = p
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.exec = scheduler.NewExecutor(hc)
		}
	}
}

// WithCache liga o cache de resultados; nil desliga.
func WithCache(s cache.Store) ClientOption {
	return func(c *Client) { c.cache = s }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
