package metrics

import (
	"net/http"

	"exam-portal/internal/app"
	"exam-portal/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements app.SessionObserver with Prometheus collectors.
type Recorder struct {
	registry    *prometheus.Registry
	started     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	scores      prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exam_portal",
			Name:      "sessions_started_total",
			Help:      "Exam sessions moved to IN_PROGRESS.",
		}, []string{"exam_id"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exam_portal",
			Name:      "submissions_total",
			Help:      "Scored submissions by trigger.",
		}, []string{"trigger"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exam_portal",
			Name:      "score_percent",
			Help:      "Distribution of submitted scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	r.registry.MustRegister(r.started, r.submissions, r.scores)
	return r
}

var _ app.SessionObserver = (*Recorder)(nil)

func (r *Recorder) SessionStarted(examID string) {
	r.started.WithLabelValues(examID).Inc()
}

func (r *Recorder) SessionSubmitted(_ string, trigger app.SubmitTrigger, outcome domain.Outcome) {
	r.submissions.WithLabelValues(string(trigger)).Inc()
	r.scores.Observe(float64(outcome.Score))
}

// Handler serves the registry at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the collectors for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
