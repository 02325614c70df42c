package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approvalhub.io/approvalhub/internal/api/handlers"
	"approvalhub.io/approvalhub/internal/config"
)

func newBareRouter(t *testing.T) http.Handler {
	t.Helper()
	server := handlers.NewServer(handlers.ServerDeps{})
	return newRouter(&config.Config{}, server, []byte("router-test-key-1234567890123456"))
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	r := newBareRouter(t)

	for _, path := range []string{
		"/api/v1/approvals",
		"/api/v1/approvals/1",
		"/api/v1/approvals/pending-count",
		"/api/v1/auth/me",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
	}
}

func TestRouterHealthIsPublic(t *testing.T) {
	r := newBareRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newBareRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
