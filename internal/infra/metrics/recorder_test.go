package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exam-portal/internal/app"
	"exam-portal/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsSessions(t *testing.T) {
	r := NewRecorder()

	r.SessionStarted("exam-1")
	r.SessionStarted("exam-1")
	r.SessionSubmitted("exam-1", app.TriggerManual, domain.Outcome{Score: 75})
	r.SessionSubmitted("exam-1", app.TriggerAuto, domain.Outcome{Score: 20})

	require.Equal(t, 2.0, testutil.ToFloat64(r.started.WithLabelValues("exam-1")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("manual")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("auto")))
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	r := NewRecorder()
	r.SessionSubmitted("exam-1", app.TriggerManual, domain.Outcome{Score: 100})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `exam_portal_submissions_total{trigger="manual"} 1`), body)
	require.True(t, strings.Contains(body, "exam_portal_score_percent_count 1"), body)
}
