package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("preflight", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/anything", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, called)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "GET,POST,PUT,DELETE,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Empty(t, rec.Body.String())
	})

	t.Run("regular request", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.True(t, called)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
