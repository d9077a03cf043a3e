package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/jobdesk/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock Cache ---

type mockCache struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newMockCache() *mockCache { return &mockCache{counts: map[string]int64{}} }

func (m *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (m *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (m *mockCache) Delete(_ context.Context, _ string) error                          { return nil }
func (m *mockCache) Ping(_ context.Context) error                                      { return nil }
func (m *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func hashToken(t *testing.T, token string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func errBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ========================================
// Auth Middleware Tests
// ========================================

func TestAuth_DisabledWithoutHash(t *testing.T) {
	auth := mw.NewAuth("")
	assert.False(t, auth.Enabled())

	w := serve(auth.Authenticate(okHandler()), httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_MissingAuthHeader(t *testing.T) {
	auth := mw.NewAuth(hashToken(t, "office-token"))

	w := serve(auth.Authenticate(okHandler()), httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errBody(t, w)["code"])
}

func TestAuth_InvalidBearerFormat(t *testing.T) {
	auth := mw.NewAuth(hashToken(t, "office-token"))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Basic office-token")
	w := serve(auth.Authenticate(okHandler()), req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongToken(t *testing.T) {
	auth := mw.NewAuth(hashToken(t, "office-token"))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer someone-else")
	w := serve(auth.Authenticate(okHandler()), req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API token", errBody(t, w)["message"])
}

func TestAuth_ValidToken(t *testing.T) {
	auth := mw.NewAuth(hashToken(t, "office-token"))
	assert.True(t, auth.Enabled())

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "bearer  office-token ")
	w := serve(auth.Authenticate(okHandler()), req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Rate Limit Middleware Tests
// ========================================

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(newMockCache(), 5)

	w := serve(rl.Limit(okHandler()), httptest.NewRequest("POST", "/intake", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rl := mw.NewRateLimit(newMockCache(), 2)
	h := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		w := serve(h, httptest.NewRequest("POST", "/intake", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(h, httptest.NewRequest("POST", "/intake", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errBody(t, w)["code"])
}

func TestRateLimit_CountsPerClient(t *testing.T) {
	mc := newMockCache()
	h := mw.NewRateLimit(mc, 1).Limit(okHandler())

	a := httptest.NewRequest("POST", "/intake", nil)
	a.RemoteAddr = "10.0.0.1:5000"
	b := httptest.NewRequest("POST", "/intake", nil)
	b.RemoteAddr = "10.0.0.2:5000"

	assert.Equal(t, http.StatusOK, serve(h, a).Code)
	assert.Equal(t, http.StatusOK, serve(h, b).Code)

	again := httptest.NewRequest("POST", "/intake", nil)
	again.RemoteAddr = "10.0.0.1:6000"
	assert.Equal(t, http.StatusTooManyRequests, serve(h, again).Code)

	assert.Equal(t, int64(2), mc.counts["ratelimit:10.0.0.1"])
	assert.Equal(t, int64(1), mc.counts["ratelimit:10.0.0.2"])
}

func TestRateLimit_CacheErrorFailsOpen(t *testing.T) {
	mc := newMockCache()
	mc.err = errors.New("redis down")

	w := serve(mw.NewRateLimit(mc, 1).Limit(okHandler()), httptest.NewRequest("POST", "/intake", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_NilCacheNeverLimits(t *testing.T) {
	h := mw.NewRateLimit(nil, 1).Limit(okHandler())
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest("POST", "/intake", nil)).Code)
	}
}

// ========================================
// Request ID Middleware Tests
// ========================================

func TestRequestID_Generated(t *testing.T) {
	var got string
	h := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mw.GetRequestID(r.Context())
	}))

	w := serve(h, httptest.NewRequest("GET", "/test", nil))

	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, w.Header().Get(mw.RequestIDHeader))
}

func TestRequestID_ReusesCallerValue(t *testing.T) {
	var got string
	h := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mw.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(mw.RequestIDHeader, "trace-42")
	w := serve(h, req)

	assert.Equal(t, "trace-42", got)
	assert.Equal(t, "trace-42", w.Header().Get(mw.RequestIDHeader))
}

func TestRequestID_RejectsOversizedValue(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(mw.RequestIDHeader, strings.Repeat("r", 100))
	w := serve(mw.RequestID(okHandler()), req)

	_, err := uuid.Parse(w.Header().Get(mw.RequestIDHeader))
	assert.NoError(t, err)
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, mw.GetRequestID(context.Background()))
}

// ========================================
// Recovery Middleware Tests
// ========================================

func TestRecovery_CatchesPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("something went wrong")
	})

	w := serve(mw.Recovery(panicking), httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errBody(t, w)["code"])
}

func TestRecovery_NoPanic(t *testing.T) {
	w := serve(mw.Recovery(okHandler()), httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ========================================
// Logging Middleware Tests
// ========================================

func TestLogger_SetsStatus(t *testing.T) {
	created := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	w := serve(mw.Logger(created), httptest.NewRequest("POST", "/test", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
