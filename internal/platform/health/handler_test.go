package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := serve(New("test"), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	readiness := func(t *testing.T, h *Handler) (int, ReadinessResponse) {
		t.Helper()
		w := serve(h, "/health/ready")
		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	t.Run("all checks up", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })

		code, body := readiness(t, h)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, "up", body.Checks["database"].Status)
		assert.True(t, body.Checks["database"].Critical)
	})

	t.Run("critical check down", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("redis", func(context.Context) error { return errors.New("connection refused") })

		code, body := readiness(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "down", body.Checks["redis"].Status)
		assert.Equal(t, "connection refused", body.Checks["redis"].Error)
	})

	t.Run("degradable check down keeps the instance ready", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheckWith("kafka", func(context.Context) error { return errors.New("no brokers") }, Degradable)

		code, body := readiness(t, h)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", body.Status)
		assert.False(t, body.Checks["kafka"].Critical)
	})

	t.Run("critical failure wins over degraded", func(t *testing.T) {
		h := New("test")
		h.RegisterCheckWith("kafka", func(context.Context) error { return errors.New("no brokers") }, Degradable)
		h.RegisterCheck("identity_provider", func(context.Context) error { return errors.New("503") })

		code, body := readiness(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
	})

	t.Run("checks run concurrently under a deadline", func(t *testing.T) {
		h := New("test")
		release := make(chan struct{})
		h.RegisterCheck("first", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			<-release
			return nil
		})
		h.RegisterCheck("second", func(context.Context) error {
			close(release)
			return nil
		})

		code, _ := readiness(t, h)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("re-registering replaces the check", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return errors.New("down") })
		h.RegisterCheck("database", func(context.Context) error { return nil })

		code, body := readiness(t, h)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, body.Checks, 1)
	})
}

func TestStatus(t *testing.T) {
	w := serve(New("staging"), "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "staging", body.Environment)
}
