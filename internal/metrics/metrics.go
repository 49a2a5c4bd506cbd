package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "videochat"

// Recorder owns the service metrics and the registry they are served from.
type Recorder struct {
	registry *prometheus.Registry

	samplingDuration   *prometheus.HistogramVec
	framesSampled      prometheus.Histogram
	generationDuration *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	turnsTotal         *prometheus.CounterVec
	sessionsActive     prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		samplingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "video_sampling_duration_seconds",
				Help:      "Time spent decoding and sampling an uploaded video",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		framesSampled: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "video_frames_sampled",
				Help:      "Number of frames sampled per video",
				Buckets:   []float64{1, 5, 10, 20, 30},
			},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of model generation calls in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"backend"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of model generation calls",
			},
			[]string{"backend", "status"},
		),
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of chat turns by template and outcome",
			},
			[]string{"template", "status"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Chat sessions created and not yet deleted by this process",
			},
		),
	}

	r.registry.MustRegister(
		r.samplingDuration,
		r.framesSampled,
		r.generationDuration,
		r.generationsTotal,
		r.turnsTotal,
		r.sessionsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (r *Recorder) ObserveSampling(d time.Duration, frames int, err error) {
	r.samplingDuration.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		r.framesSampled.Observe(float64(frames))
	}
}

func (r *Recorder) ObserveGeneration(backend string, d time.Duration, err error) {
	r.generationsTotal.WithLabelValues(backend, status(err)).Inc()
	if err == nil {
		r.generationDuration.WithLabelValues(backend).Observe(d.Seconds())
	}
}

func (r *Recorder) ObserveTurn(template string, err error) {
	r.turnsTotal.WithLabelValues(template, status(err)).Inc()
}

func (r *Recorder) SessionCreated() { r.sessionsActive.Inc() }

func (r *Recorder) SessionDeleted() { r.sessionsActive.Dec() }

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
