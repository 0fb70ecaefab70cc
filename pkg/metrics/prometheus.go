package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	reportsParsed   *prometheus.CounterVec
	stageLatency    *prometheus.HistogramVec
	compositeScore  prometheus.Histogram
	providerFetches *prometheus.CounterVec
	jobsEnqueued    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
}

// New registers the recorder's collectors on reg. A nil reg means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		reportsParsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentimentdesk_reports_parsed_total",
			Help: "Reports parsed by validation status",
		}, []string{"status"}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentimentdesk_pipeline_stage_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"stage"}),
		compositeScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentimentdesk_composite_score",
			Help:    "Composite sentiment scores of parsed reports",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		providerFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentimentdesk_provider_fetches_total",
			Help: "Market data fetches by provider and snapshot status",
		}, []string{"provider", "status"}),
		jobsEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentimentdesk_jobs_enqueued_total",
			Help: "Background jobs enqueued by type and result",
		}, []string{"job", "result"}),
		eventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentimentdesk_events_published_total",
			Help: "Report events published by type and result",
		}, []string{"type", "result"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sentimentdesk_errors_total",
			Help: "Errors by kind",
		}, []string{"kind"}),
	}
}

func (r *Recorder) RecordReportParsed(status string, composite float64) {
	r.reportsParsed.WithLabelValues(status).Inc()
	r.compositeScore.Observe(composite)
}

func (r *Recorder) RecordStage(stage string, d time.Duration) {
	r.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) RecordProviderFetch(provider, status string) {
	r.providerFetches.WithLabelValues(provider, status).Inc()
}

func (r *Recorder) RecordJobEnqueued(job string, err error) {
	r.jobsEnqueued.WithLabelValues(job, result(err)).Inc()
}

func (r *Recorder) RecordEventPublished(eventType string, err error) {
	r.eventsPublished.WithLabelValues(eventType, result(err)).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
