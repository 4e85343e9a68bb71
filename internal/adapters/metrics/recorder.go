// Package metrics records pipeline measurements with Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
)

const namespace = "press"

var _ ports.Metrics = (*Recorder)(nil)

// Recorder implements ports.Metrics on its own Prometheus registry.
type Recorder struct {
	reg              *prom.Registry
	pipelineDuration *prom.HistogramVec
	pipelineRuns     *prom.CounterVec
	stageDuration    *prom.HistogramVec
	imageCache       *prom.CounterVec
	liveReload       prom.Gauge
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prom.NewRegistry(),
		pipelineDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of pipeline runs by asset class and build mode",
			Buckets:   prom.DefBuckets,
		}, []string{"class", "mode"}),
		pipelineRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by asset class, build mode and result",
		}, []string{"class", "mode", "result"}),
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of transform stage invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"stage", "result"}),
		imageCache: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "image_cache_lookups_total",
			Help:      "Image cache lookups by outcome",
		}, []string{"outcome"}),
		liveReload: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
	}
	r.reg.MustRegister(
		r.pipelineDuration, r.pipelineRuns, r.stageDuration, r.imageCache, r.liveReload,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prom.Registry {
	return r.reg
}

// Handler serves the metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObservePipeline implements ports.Metrics.
func (r *Recorder) ObservePipeline(class, mode string, d time.Duration, err error) {
	r.pipelineDuration.WithLabelValues(class, mode).Observe(d.Seconds())
	r.pipelineRuns.WithLabelValues(class, mode, result(err)).Inc()
}

// ObserveStage implements ports.Metrics.
func (r *Recorder) ObserveStage(stage string, d time.Duration, err error) {
	r.stageDuration.WithLabelValues(stage, result(err)).Observe(d.Seconds())
}

// IncImageCache implements ports.Metrics.
func (r *Recorder) IncImageCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.imageCache.WithLabelValues(outcome).Inc()
}

// SetLiveReloadClients implements ports.Metrics.
func (r *Recorder) SetLiveReloadClients(n int) {
	r.liveReload.Set(float64(n))
}

func result(err error) string {
	var toolErr *domain.ToolError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &toolErr):
		return "tool_error"
	default:
		return "failed"
	}
}
