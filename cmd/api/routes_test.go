package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcircle/devcircle-go/internal/crypto"
	"github.com/devcircle/devcircle-go/internal/handler"
	"github.com/devcircle/devcircle-go/internal/metrics"
)

type pingerFunc func() error

func (f pingerFunc) PingContext(context.Context) error { return f() }

func newTestRouter(t *testing.T) (http.Handler, *crypto.TokenIssuer) {
	t.Helper()
	registry := prometheus.NewRegistry()
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	return newRouter(routerDeps{
		Auth:          handler.NewAuthHandler(nil, 1<<10),
		Users:         handler.NewUserHandler(nil, 1<<10),
		Posts:         handler.NewPostHandler(nil, 1<<10),
		Tags:          handler.NewTagHandler(nil),
		DB:            pingerFunc(func() error { return nil }),
		Tokens:        tokens,
		Metrics:       metrics.NewCollector(registry),
		Gatherer:      registry,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		AuthRateRPS:   1,
		AuthRateBurst: 1,
	}), tokens
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := do(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))

	rr = do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `devcircle_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodPatch, "/users/u1"},
		{http.MethodGet, "/users/u1/notifications"},
		{http.MethodPost, "/users/follow"},
		{http.MethodPost, "/users/unfollow"},
		{http.MethodPost, "/posts"},
		{http.MethodPost, "/tags/go/follow"},
		{http.MethodPost, "/tags/go/unfollow"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := do(r, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestRouter_TokenReachesHandler(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, err := tokens.Issue("u1", "u1@x.io")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/u2/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := do(r, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	r, _ := newTestRouter(t)

	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		if do(r, req).Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 19, limited, "forwarding headers must not create fresh rate limit buckets")
}

func TestRouter_AuthRoutesAreRateLimited(t *testing.T) {
	r, _ := newTestRouter(t)

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		return req
	}

	first := do(r, newReq())
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := do(r, newReq())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
