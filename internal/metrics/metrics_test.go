package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", metrics.Outcome(nil))
	require.Equal(t, "state", metrics.Outcome(crop.ErrStageNotActive))
	require.Equal(t, "order_violation", metrics.Outcome(crop.ErrDoneBeforeEvents))
	require.Equal(t, "not_found", metrics.Outcome(crop.ErrEventNotFound))
	require.Equal(t, "validation", metrics.Outcome(crop.ErrMissingDate))
	require.Equal(t, "conflict", metrics.Outcome(crop.ErrConflict))
	require.Equal(t, "error", metrics.Outcome(errors.New("boom")))
}

func TestRecorder(t *testing.T) {
	rec := metrics.New()
	rec.ObserveTransition("finish_stage", 10*time.Millisecond, nil)
	rec.ObserveTransition("finish_stage", time.Millisecond, crop.ErrStageNotActive)
	rec.ObserveRequest("/api/crops", http.StatusOK)

	n, err := testutil.GatherAndCount(rec.Registry(), "cropline_transitions_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, `cropline_transitions_total{op="finish_stage",outcome="state"} 1`))
	require.True(t, strings.Contains(body, `cropline_http_requests_total{code="200",route="/api/crops"} 1`))
}
