package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/transferly/internal/log"
)

func TestLoggerRecordsStatus(t *testing.T) {
	var seen *statusRecorder
	h := Logger(log.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.(*statusRecorder)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tiers", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, http.StatusTeapot, seen.status)
	require.Equal(t, int64(len("short and stout")), seen.bytes)
	require.Equal(t, rec, seen.Unwrap())
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(log.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}
