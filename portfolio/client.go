package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/cache"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Scheduler é o que o Client precisa do agendador.
type Scheduler interface {
	Schedule(ctx context.Context, thunk scheduler.Thunk, priority domain.Priority) (*http.Response, error)
}

// Client varre contas do GitHub. É seguro para uso concorrente; varreduras
// simultâneas da mesma chave de cache compartilham uma única execução.
type Client struct {
	sched  Scheduler
	exec   *scheduler.Executor
	cache  cache.Store
	logger *zap.Logger
	now    func() time.Time

	apiURL     string
	rawURL     string
	configPath string
	userAgent  string

	flight singleflight.Group
}

func NewClient(sched Scheduler, opts ...ClientOption) *Client {
	c := &Client{
		sched:      sched,
		exec:       scheduler.NewExecutor(&http.Client{Timeout: 30 * time.Second}),
		logger:     zap.NewNop(),
		now:        time.Now,
		apiURL:     DefaultAPIURL,
		rawURL:     DefaultRawURL,
		configPath: DefaultConfigPath,
		userAgent:  DefaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	c.apiURL = strings.TrimRight(c.apiURL, "/")
	c.configPath = strings.TrimLeft(c.configPath, "/")
	return c
}

// CacheKey identifica o resultado de uma varredura.
func CacheKey(username string, authenticated bool) string {
	mode := "public"
	if authenticated {
		mode = "auth"
	}
	return "portfolio-" + username + "-" + mode
}

// GetRepos devolve os repositórios publicados da conta, na ordem da listagem.
// Falhas ao sondar um repositório apenas o excluem; falhar a listagem falha a
// varredura inteira.
func (c *Client) GetRepos(ctx context.Context, username string, opts Options) ([]RepoMetadata, error) {
	user, err := NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	key := CacheKey(user, opts.Token != "")

	if repos, ok := c.fromCache(ctx, key, opts.CacheTTL); ok {
		c.logger.Debug("serving from cache", zap.String("key", key), zap.Int("count", len(repos)))
		return repos, nil
	}

	// a varredura compartilhada ignora o cancelamento de quem a iniciou;
	// cada chamador desiste pelo próprio ctx.
	scanCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		repos, err := c.scan(scanCtx, user, opts)
		if err != nil {
			return nil, err
		}
		c.store(scanCtx, key, repos)
		return repos, nil
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "scan %s", user)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("joined in-flight scan", zap.String("key", key))
		}
		return res.Val.([]RepoMetadata), nil
	}
}

func (c *Client) fromCache(ctx context.Context, key string, ttl time.Duration) ([]RepoMetadata, bool) {
	if c.cache == nil || ttl <= 0 {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, key, ttl)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var repos []RepoMetadata
	if err := json.Unmarshal(raw, &repos); err != nil {
		c.logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return repos, true
}

func (c *Client) store(ctx context.Context, key string, repos []RepoMetadata) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(repos)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, raw); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Client) scan(ctx context.Context, user string, opts Options) ([]RepoMetadata, error) {
	repos, err := c.listRepos(ctx, user, opts)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("scanning repositories",
		zap.String("user", user),
		zap.Int("count", len(repos)),
		zap.Bool("parallel", !opts.Sequential),
	)

	results := make([]*RepoMetadata, len(repos))
	probe := func(i int) {
		md, err := c.probe(ctx, user, repos[i], opts.Token)
		if err != nil {
			c.logger.Warn("skipping repo", zap.String("repo", repos[i].Name), zap.Error(err))
			return
		}
		results[i] = md
	}

	if opts.Sequential {
		for i := range repos {
			c.progress(opts, i, repos)
			probe(i)
		}
	} else {
		var g errgroup.Group
		for i := range repos {
			// o callback roda na goroutine chamadora, nunca em paralelo.
			c.progress(opts, i, repos)
			g.Go(func() error {
				probe(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]RepoMetadata, 0, len(repos))
	for _, md := range results {
		if md != nil {
			out = append(out, *md)
		}
	}
	c.logger.Debug("scan finished", zap.String("user", user), zap.Int("published", len(out)))
	return out, nil
}

func (c *Client) progress(opts Options, i int, repos []githubRepo) {
	if opts.OnProgress != nil {
		opts.OnProgress(i+1, len(repos), repos[i].Name)
	}
}

func (c *Client) listRepos(ctx context.Context, user string, opts Options) ([]githubRepo, error) {
	u := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=updated", c.apiURL, url.PathEscape(user), opts.MaxRepos)
	var all []githubRepo
	if err := c.getJSON(ctx, u, opts.Token, domain.PriorityCritical, &all); err != nil {
		return nil, errors.Wrapf(err, "list repositories of %s", user)
	}

	repos := make([]githubRepo, 0, len(all))
	for _, r := range all {
		if r.Fork || r.Archived {
			continue
		}
		repos = append(repos, r)
	}
	if len(repos) > opts.MaxRepos {
		repos = repos[:opts.MaxRepos]
	}
	return repos, nil
}

// probe busca e interpreta o arquivo de configuração. Devolve nil, nil quando
// o repositório não tem o arquivo ou não está publicado.
func (c *Client) probe(ctx context.Context, user string, repo githubRepo, token string) (*RepoMetadata, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.apiURL, url.PathEscape(user), url.PathEscape(repo.Name), c.configPath)

	var fc fileContent
	err := c.getJSON(ctx, u, token, RepoPriority(repo.UpdatedAt, c.now()), &fc)
	if f, ok := domain.AsFailure(err); ok && f.Status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "fetch config")
	}

	cfg, err := DecodeConfig(fc.Content)
	if err != nil {
		return nil, err
	}
	if !cfg.Published {
		return nil, nil
	}
	md := buildMetadata(c.rawURL, user, repo, cfg)
	return &md, nil
}

func (c *Client) getJSON(ctx context.Context, u, token string, priority domain.Priority, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.sched.Schedule(ctx, c.exec.Thunk(req), priority)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
