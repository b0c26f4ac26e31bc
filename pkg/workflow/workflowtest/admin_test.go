package workflowtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/remoteflow/pkg/telemetry"
)

func TestAdminRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewEngine(WithMetrics(telemetry.NewMetrics(reg)))
	e.Create([]string{"field"}, []string{"output"})
	router := e.AdminRouter(reg)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, float64(1), body["live"])
	})

	t.Run("handles", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/handles", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Handles []Handle `json:"handles"`
			Deletes int      `json:"deletes"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Handles, 1)
		assert.Equal(t, "wf-1", body.Handles[0].Token)
		assert.Equal(t, []string{"output"}, body.Handles[0].Outputs)
	})

	t.Run("handle by token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/handles/wf-1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/handles/wf-404", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "remoteflow_engine_handles_live 1"))
	})
}
