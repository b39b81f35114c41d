package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MatheusFonseca849/github-portfolio-integration/portfolio"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler"
	"github.com/MatheusFonseca849/github-portfolio-integration/scheduler/domain"
)

type fakeRepos struct {
	repos []portfolio.RepoMetadata
	err   error

	gotUser string
	gotOpts portfolio.Options
}

func (f *fakeRepos) GetRepos(_ context.Context, username string, opts portfolio.Options) ([]portfolio.RepoMetadata, error) {
	f.gotUser, f.gotOpts = username, opts
	return f.repos, f.err
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandler_ReturnsPortfolio(t *testing.T) {
	repos := &fakeRepos{repos: []portfolio.RepoMetadata{{Name: "site", Title: "Site", URL: "https://github.com/octocat/site"}}}
	h := &Handler{Repos: repos, Defaults: portfolio.Options{Token: "server-token", MaxRepos: 50}}

	w := serve(h, "/portfolio/octocat?max_repos=10&sequential=true")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var got []portfolio.RepoMetadata
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "site" {
		t.Fatalf("unexpected body: %s", w.Body)
	}
	if repos.gotUser != "octocat" || repos.gotOpts.MaxRepos != 10 || !repos.gotOpts.Sequential || repos.gotOpts.Token != "server-token" {
		t.Fatalf("unexpected call: user=%q opts=%+v", repos.gotUser, repos.gotOpts)
	}
}

func TestHandler_EmptyResultIsArray(t *testing.T) {
	w := serve(&Handler{Repos: &fakeRepos{}}, "/portfolio/octocat")
	if w.Code != http.StatusOK || w.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %d %q", w.Code, w.Body)
	}
}

func TestHandler_BadQuery(t *testing.T) {
	h := &Handler{Repos: &fakeRepos{}}
	for _, target := range []string{"/portfolio/octocat?max_repos=-1", "/portfolio/octocat?sequential=maybe"} {
		if w := serve(h, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestHandler_ErrorMapping(t *testing.T) {
	rateLimited := domain.NewRateLimitFailure(http.StatusForbidden, time.Unix(130, 0), time.Unix(100, 0)).Exhaust(4)

	tests := []struct {
		name       string
		err        error
		want       int
		retryAfter string
	}{
		{"invalid username", portfolio.ErrInvalidUsername, http.StatusBadRequest, ""},
		{"missing username", portfolio.ErrUsernameRequired, http.StatusBadRequest, ""},
		{"rate limit exhausted", rateLimited, http.StatusTooManyRequests, "30"},
		{"user not found", domain.NewHTTPFailure(http.StatusNotFound), http.StatusNotFound, ""},
		{"server error", domain.NewHTTPFailure(http.StatusBadGateway).Exhaust(4), http.StatusBadGateway, ""},
		{"closed", scheduler.ErrClosed, http.StatusServiceUnavailable, ""},
		{"canceled upstream", fmt.Errorf("scan octocat: %w", context.Canceled), http.StatusServiceUnavailable, ""},
		{"deadline upstream", context.DeadlineExceeded, http.StatusServiceUnavailable, ""},
		{"other", errors.New("boom"), http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		w := serve(&Handler{Repos: &fakeRepos{err: tt.err}}, "/portfolio/octocat")
		if w.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, w.Code)
		}
		if got := w.Header().Get("Retry-After"); got != tt.retryAfter {
			t.Errorf("%s: expected Retry-After %q, got %q", tt.name, tt.retryAfter, got)
		}
	}
}

func TestHandler_CanceledScanStillAnswersLiveRequest(t *testing.T) {
	h := &Handler{Repos: &fakeRepos{err: fmt.Errorf("fetch config: %w", context.Canceled)}}

	w := serve(h, "/portfolio/octocat")
	if w.Code == http.StatusOK {
		t.Fatalf("expected an error status, got 200 with %q", w.Body)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected a JSON error body, got %q (%v)", w.Body, err)
	}
}

func TestHandler_GoneClientGetsNoBody(t *testing.T) {
	h := &Handler{Repos: &fakeRepos{err: context.Canceled}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolio/octocat", nil).WithContext(ctx))
	if w.Body.Len() != 0 {
		t.Fatalf("expected no body for a gone client, got %q", w.Body)
	}
}

func TestHandler_Healthz(t *testing.T) {
	st := scheduler.Status{QueueLength: 3, Active: 2, MaxConcurrent: 6}
	h := &Handler{Repos: &fakeRepos{}, Status: func() scheduler.Status { return st }}

	w := serve(h, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.QueueLength != 3 || body.Active != 2 || body.MaxConcurrent != 6 || body.Status != "ok" {
		t.Fatalf("unexpected health body: %+v", body)
	}

	st.Closed = true
	if w := serve(h, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when closed, got %d", w.Code)
	}
}

func TestHandler_UnknownMethod(t *testing.T) {
	w := httptest.NewRecorder()
	(&Handler{Repos: &fakeRepos{}}).Routes().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/portfolio/octocat", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
