package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/portfolio"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"

	"go.uber.org/zap"
)

// RepoGetter é o que o handler precisa do portfolio.Client.
type RepoGetter interface {
	GetRepos(ctx context.Context, username string, opts portfolio.Options) ([]portfolio.RepoMetadata, error)
}

// StatusFunc devolve o retrato do agendador para o /healthz.
type StatusFunc func() scheduler.Status

type Handler struct {
	Repos    RepoGetter
	Status   StatusFunc
	Defaults portfolio.Options
	Logger   *zap.Logger
}

// Routes monta o mux: GET /portfolio/{username} e GET /healthz.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /portfolio/{username}", h.getPortfolio)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	opts := h.Defaults
	q := r.URL.Query()
	if v := q.Get("max_repos"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "max_repos must be a positive integer")
			return
		}
		opts.MaxRepos = n
	}
	if v := q.Get("sequential"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sequential must be a boolean")
			return
		}
		opts.Sequential = b
	}
	// progresso não faz sentido numa resposta única.
	opts.OnProgress = nil

	username := r.PathValue("username")
	repos, err := h.Repos.GetRepos(r.Context(), username, opts)
	if err != nil {
		h.writeScanError(w, r, username, err)
		return
	}
	if repos == nil {
		repos = []portfolio.RepoMetadata{}
	}
	writeJSON(w, http.StatusOK, repos)
}

// writeScanError traduz a falha da varredura para HTTP.
func (h *Handler) writeScanError(w http.ResponseWriter, r *http.Request, username string, err error) {
	switch {
	case errors.Is(err, portfolio.ErrUsernameRequired), errors.Is(err, portfolio.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case r.Context().Err() != nil:
		// o cliente foi embora; não há para quem responder.
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger().Warn("portfolio scan interrupted", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "scan interrupted")
		return
	}

	f, ok := domain.AsFailure(err)
	switch {
	case ok && f.Kind == domain.KindRateLimited:
		if f.ResumeAfter > 0 {
			w.Header().Set("Retry-After", retryAfterSeconds(f.ResumeAfter))
		}
		h.logger().Warn("upstream rate limit exhausted", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusTooManyRequests, "upstream rate limit exhausted")
	case ok && f.Kind == domain.KindClientError && f.Status == http.StatusNotFound:
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, scheduler.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting down")
	default:
		h.logger().Error("portfolio scan failed", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}

type healthResponse struct {
	Status        string    `json:"status"`
	QueueLength   int       `json:"queueLength"`
	Active        int       `json:"active"`
	MaxConcurrent int       `json:"maxConcurrent"`
	LastDispatch  time.Time `json:"lastDispatch,omitzero"`
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	if h.Status == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	st := h.Status()
	resp := healthResponse{
		Status:        "ok",
		QueueLength:   st.QueueLength,
		Active:        st.Active,
		MaxConcurrent: st.MaxConcurrent,
		LastDispatch:  st.LastDispatch,
	}
	code := http.StatusOK
	if st.Closed {
		resp.Status = "closed"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
