package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/services/health"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, perMinute int) http.Handler {
	t.Helper()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	svc := &analyses.Service{Repo: analyses.NewMemoryRepo()}
	return NewRouter(RouterDeps{
		Config:          config.Config{Env: "test", AnalyzePerMinute: perMinute},
		AnalysisHandler: analyses.NewHandler(svc),
		Limiter:         middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, 0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "gap_analysis_started_total") {
		t.Fatalf("metrics endpoint unexpected: %d %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

type downPinger struct{}

func (downPinger) PingContext(context.Context) error { return errors.New("dial tcp: refused") }

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	r := NewRouter(RouterDeps{
		Config: config.Config{Env: "test"},
		Health: health.NewService(map[string]health.Pinger{"database": downPinger{}}),
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"database":"dial tcp: refused"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAnalyzeRouteIsRateLimited(t *testing.T) {
	r := newTestRouter(t, 1)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/gap-analyses", strings.NewReader(`{"sections":{}}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-Id", "client-1")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp.Code
	}
	if code := post(); code != http.StatusAccepted {
		t.Fatalf("first analyze expected 202, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second analyze expected 429, got %d", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gap-analyses?clientId=client-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("listing is not rate limited, got %d", resp.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
