package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/backend-subshop/internal/common"
)

func newMemoryLimiter(t *testing.T, formatted string) Middleware {
	t.Helper()
	lim, err := New(memory.NewStore(), formatted)
	require.NoError(t, err)
	return Middleware{Limiter: lim}
}

func TestMiddlewareAllowsWithinLimit(t *testing.T) {
	mw := newMemoryLimiter(t, "3-M")
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mw := newMemoryLimiter(t, "1-M")
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareKeysAuthenticatedUsersSeparately(t *testing.T) {
	mw := newMemoryLimiter(t, "1-M")
	handler := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, userID := range []string{"user-a", "user-b"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		req = req.WithContext(common.WithUserID(req.Context(), userID))
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, userID)
	}
}
