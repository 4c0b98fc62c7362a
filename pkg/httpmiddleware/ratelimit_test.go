package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, remote string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{RPS: 0.001, Burst: 3})(okHandler())

	for i := range 3 {
		w := serve(h, "192.168.1.1:1234", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := serve(h, "192.168.1.1:1234", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t,
		`{"statusCode":429,"status":"error","data":{"err":"Too many requests!"}}`,
		w.Body.String(),
	)
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{RPS: 0.001, Burst: 1})(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:2", nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.2:1", nil).Code)
}

func TestRateLimit_XForwardedFor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{RPS: 0.001, Burst: 1})(okHandler())
	hdr := http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}}

	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", hdr).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.9:1", hdr).Code,
		"same forwarded client behind another proxy")
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{
		RPS:   0.001,
		Burst: 1,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("Authorization")
		},
	})(okHandler())

	a := http.Header{"Authorization": {"Bearer a"}}
	b := http.Header{"Authorization": {"Bearer b"}}
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", a).Code)
	assert.Equal(t, http.StatusOK, serve(h, "10.0.0.1:1", b).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "10.0.0.1:1", a).Code)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Now()

	rl.limiter("old", now.Add(-2*time.Minute))
	rl.limiter("fresh", now)
	rl.evict(now)

	assert.NotContains(t, rl.clients, "old")
	assert.Contains(t, rl.clients, "fresh")
}
