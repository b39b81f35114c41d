package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/cache"
	"github.com/MatheusFonseca849/github-portfolio-integration/portfolio"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/infra"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// settings reúne as flags comuns a repos e serve.
type settings struct {
	token      string
	maxRepos   int
	parallel   bool
	cacheTTL   time.Duration
	cacheKind  string
	cacheDir   string
	sqlitePath string

	redisAddr     string
	redisPassword string
	redisDB       int

	minInterval   time.Duration
	maxConcurrent int
	maxRetries    int
	maxBackoff    time.Duration

	apiURL     string
	rawURL     string
	configPath string
	logLevel   string
	statsKind  string
}

func defaultSettings() *settings {
	return &settings{
		maxRepos:      portfolio.DefaultMaxRepos,
		parallel:      true,
		cacheTTL:      portfolio.DefaultCacheTTL,
		cacheKind:     "file",
		cacheDir:      cache.DefaultDir,
		sqlitePath:    "portfolio-cache.db",
		redisAddr:     "localhost:6379",
		minInterval:   scheduler.DefaultMinInterval,
		maxConcurrent: scheduler.DefaultMaxConcurrent,
		maxRetries:    scheduler.DefaultMaxRetries,
		maxBackoff:    scheduler.DefaultMaxBackoff,
		apiURL:        portfolio.DefaultAPIURL,
		rawURL:        portfolio.DefaultRawURL,
		configPath:    portfolio.DefaultConfigPath,
		logLevel:      "info",
		statsKind:     "none",
	}
}

func (s *settings) bindPersistent(fs *pflag.FlagSet) {
	fs.StringVar(&s.token, "token", s.token, "GitHub personal access token (anonymous when empty)")
	fs.IntVar(&s.maxRepos, "max-repos", s.maxRepos, "Maximum number of repositories to probe")
	fs.BoolVar(&s.parallel, "parallel", s.parallel, "Probe repositories concurrently")
	fs.DurationVar(&s.cacheTTL, "cache-ttl", s.cacheTTL, "Maximum age of a cached scan (negative disables cache reads)")
	fs.StringVar(&s.cacheKind, "cache", s.cacheKind, "Result cache backend (memory, file, redis, sqlite, none)")
	fs.StringVar(&s.cacheDir, "cache-dir", s.cacheDir, "Directory for the file cache")
	fs.StringVar(&s.sqlitePath, "sqlite-path", s.sqlitePath, "Database path for the sqlite cache")
	fs.StringVar(&s.redisAddr, "redis-addr", s.redisAddr, "Redis address for the redis cache and stats")
	fs.StringVar(&s.redisPassword, "redis-password", s.redisPassword, "Redis password")
	fs.IntVar(&s.redisDB, "redis-db", s.redisDB, "Redis database number")
	fs.DurationVar(&s.minInterval, "min-interval", s.minInterval, "Minimum spacing between GitHub requests")
	fs.IntVar(&s.maxConcurrent, "max-concurrent", s.maxConcurrent, "Maximum GitHub requests in flight")
	fs.IntVar(&s.maxRetries, "max-retries", s.maxRetries, "Retries for rate-limited, 5xx and network failures")
	fs.DurationVar(&s.maxBackoff, "max-backoff", s.maxBackoff, "Upper bound of a single backoff wait")
	fs.StringVar(&s.apiURL, "api-url", s.apiURL, "GitHub API base URL")
	fs.StringVar(&s.rawURL, "raw-url", s.rawURL, "Base URL for thumbnail links")
	fs.StringVar(&s.configPath, "config-path", s.configPath, "Path of the portfolio config file inside each repository")
	fs.StringVar(&s.logLevel, "log-level", s.logLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&s.statsKind, "stats", s.statsKind, "Dispatch statistics (none, memory, redis)")
}

func (s *settings) options() portfolio.Options {
	return portfolio.Options{
		Token:      s.token,
		MaxRepos:   s.maxRepos,
		Sequential: !s.parallel,
		CacheTTL:   s.cacheTTL,
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info", "":
		lvl = zapcore.InfoLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// app é o grafo montado a partir das settings. close libera tudo na
// ordem inversa da criação.
type app struct {
	logger *zap.Logger
	sched  *scheduler.Scheduler
	client *portfolio.Client
	stats  *infra.MemoryStatsStore

	closers []io.Closer
}

func (rt *app) close() {
	if rt.sched != nil {
		_ = rt.sched.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
	if rt.stats != nil {
		t := rt.stats.Total()
		rt.logger.Info("dispatch stats",
			zap.Int64("dispatched", t.Dispatched),
			zap.Int64("succeeded", t.Succeeded),
			zap.Int64("retrying", t.Retrying),
			zap.Int64("failed", t.Failed),
		)
	}
	_ = rt.logger.Sync()
}

func (s *settings) build(ctx context.Context) (*app, error) {
	logger, err := buildLogger(s.logLevel)
	if err != nil {
		return nil, err
	}
	rt := &app{logger: logger}

	var rdb *redis.Client
	redisClient := func() (*redis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		c := redis.NewClient(&redis.Options{Addr: s.redisAddr, Password: s.redisPassword, DB: s.redisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx).Err(); err != nil {
			_ = c.Close()
			return nil, errors.Wrapf(err, "redis ping %s", s.redisAddr)
		}
		rdb = c
		rt.closers = append(rt.closers, c)
		return c, nil
	}

	var statsStore domain.StatsStore
	switch strings.ToLower(s.statsKind) {
	case "none", "":
	case "memory":
		rt.stats = infra.NewMemoryStatsStore()
		statsStore = rt.stats
	case "redis":
		c, err := redisClient()
		if err != nil {
			rt.close()
			return nil, err
		}
		statsStore = infra.NewRedisStatsStore(c)
	default:
		rt.close()
		return nil, fmt.Errorf("unknown stats backend %q (expected none, memory or redis)", s.statsKind)
	}

	var store cache.Store
	switch strings.ToLower(s.cacheKind) {
	case "none", "":
	case "memory":
		store = cache.NewMemoryStore()
	case "file":
		store = cache.NewFileStore(s.cacheDir)
	case "redis":
		c, err := redisClient()
		if err != nil {
			rt.close()
			return nil, err
		}
		ttl := 2 * s.cacheTTL
		if ttl < 0 {
			ttl = 0
		}
		store = cache.NewRedisStore(c, cache.WithRedisTTL(ttl))
	case "sqlite":
		sq, err := cache.OpenSQLiteStore(ctx, s.sqlitePath)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, sq)
		store = sq
	default:
		rt.close()
		return nil, fmt.Errorf("unknown cache backend %q (expected memory, file, redis, sqlite or none)", s.cacheKind)
	}

	rt.sched = scheduler.New(
		scheduler.WithMinInterval(s.minInterval),
		scheduler.WithMaxConcurrent(s.maxConcurrent),
		scheduler.WithMaxRetries(s.maxRetries),
		scheduler.WithBackoff(scheduler.DefaultBackoffBase, scheduler.DefaultBackoffMultiplier, s.maxBackoff),
		scheduler.WithLogger(logger.Named("scheduler")),
		scheduler.WithStats(statsStore),
	)
	rt.client = portfolio.NewClient(rt.sched,
		portfolio.WithAPIURL(s.apiURL),
		portfolio.WithRawURL(s.rawURL),
		portfolio.WithConfigPath(s.configPath),
		portfolio.WithCache(store),
		portfolio.WithLogger(logger.Named("portfolio")),
	)

	logger.Debug("runtime ready",
		zap.String("cache", s.cacheKind),
		zap.String("stats", s.statsKind),
		zap.Duration("min_interval", s.minInterval),
		zap.Int("max_concurrent", s.maxConcurrent),
		zap.Int("max_retries", s.maxRetries),
		zap.Bool("authenticated", s.token != ""),
	)
	return rt, nil
}
