package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/api"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveSettings struct {
	listen             string
	rateRPS            float64
	rateBurst          int
	keyHeader          string
	trustXFF           bool
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration
}

func newServeCommand(s *settings) *cobra.Command {
	ss := serveSettings{
		listen:             ":8080",
		rateRPS:            1,
		rateBurst:          5,
		concurrencyMax:     32,
		concurrencyTimeout: 2 * time.Second,
	}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /portfolio/{username} over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), s, ss)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&ss.listen, "listen", ss.listen, "Address to listen on")
	fs.Float64Var(&ss.rateRPS, "rate-rps", ss.rateRPS, "Inbound requests per second per client (0 disables)")
	fs.IntVar(&ss.rateBurst, "rate-burst", ss.rateBurst, "Inbound burst per client")
	fs.StringVar(&ss.keyHeader, "rate-key-header", ss.keyHeader, "Header that identifies the client for inbound limits")
	fs.BoolVar(&ss.trustXFF, "trust-xff", ss.trustXFF, "Use the first X-Forwarded-For address as client key")
	fs.BoolVar(&ss.addHeaders, "rate-headers", ss.addHeaders, "Add X-RateLimit-* headers to responses")
	fs.IntVar(&ss.concurrencyMax, "concurrency-max", ss.concurrencyMax, "Maximum inbound requests in flight (0 disables)")
	fs.DurationVar(&ss.concurrencyTimeout, "concurrency-timeout", ss.concurrencyTimeout, "How long a request waits for a slot before 503")
	return cmd
}

func runServe(ctx context.Context, s *settings, ss serveSettings) error {
	rt, err := s.build(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	logger := rt.logger

	h := (&api.Handler{
		Repos:    rt.client,
		Status:   rt.sched.Status,
		Defaults: s.options(),
		Logger:   logger.Named("api"),
	}).Routes()

	h = api.Concurrency(api.ConcurrencyOptions{
		Max:            ss.concurrencyMax,
		AcquireTimeout: ss.concurrencyTimeout,
	})(h)

	if ss.rateRPS > 0 {
		limiter := api.NewClientLimiter(ss.rateRPS, ss.rateBurst)
		limiter.StartJanitor(ctx)
		h = api.RateLimit(api.RateLimitOptions{
			Limiter:             limiter,
			KeyHeader:           ss.keyHeader,
			TrustXForwardedFor:  ss.trustXFF,
			AddRateLimitHeaders: ss.addHeaders,
			Logger:              logger.Named("ratelimit"),
		})(h)
	}

	srv := &http.Server{
		Addr:              ss.listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// uma varredura sem cache pode levar bem mais que uma requisição comum.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("portfolio server listening",
		zap.String("addr", ss.listen),
		zap.Float64("rate_rps", ss.rateRPS),
		zap.Int("rate_burst", ss.rateBurst),
		zap.Int("concurrency_max", ss.concurrencyMax),
		zap.Duration("concurrency_timeout", ss.concurrencyTimeout),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
