// Package metrics exposes prometheus collectors for extraction and generation.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowstory"

// Metrics holds the collectors of one process on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	FrameVisits        prometheus.Counter
	Truncations        prometheus.Counter
	Extractions        *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	FlowFrames         prometheus.Histogram
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	Messages           *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FrameVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_visits_total",
			Help:      "Total number of frames added to extracted flows",
		}),
		Truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncations_total",
			Help:      "Extractions that reached the frame cap",
		}),
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Flow extractions by outcome",
		}, []string{"status"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of flow traversals",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		FlowFrames: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_frames",
			Help:      "Number of frames per extracted flow",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Story generation calls by outcome",
		}, []string{"status"}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of story generation calls",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages posted to the presentation layer by type",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FrameVisits, m.Truncations, m.Extractions, m.ExtractionDuration,
		m.FlowFrames, m.Generations, m.GenerationDuration, m.Messages,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks recording into the collectors.
// The result can be merged with other hooks via Chain.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFrameVisit: func(ctx context.Context, e *domain.FrameEvent) {
			m.FrameVisits.Inc()
		},
		OnTruncated: func(ctx context.Context, e *domain.FlowEvent) {
			m.Truncations.Inc()
		},
		OnExtracted: func(ctx context.Context, e *domain.FlowEvent) {
			m.Extractions.WithLabelValues(status(e.Err)).Inc()
			m.ExtractionDuration.Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.FlowFrames.Observe(float64(e.Frames))
			}
		},
		OnGenerated: func(ctx context.Context, e *domain.GenerationEvent) {
			m.Generations.WithLabelValues(status(e.Err)).Inc()
			m.GenerationDuration.Observe(e.Duration.Seconds())
		},
	}
}

// Publisher counts every message passed on to next.
func (m *Metrics) Publisher(next ports.Publisher) ports.Publisher {
	return ports.PublisherFunc(func(ctx context.Context, msg domain.Message) error {
		m.Messages.WithLabelValues(msg.Type).Inc()
		return next.Publish(ctx, msg)
	})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Chain merges hooks so that every non-nil callback runs, in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out.OnFrameVisit = chain(out.OnFrameVisit, h.OnFrameVisit)
		out.OnTruncated = chain(out.OnTruncated, h.OnTruncated)
		out.OnExtracted = chain(out.OnExtracted, h.OnExtracted)
		out.OnGenerated = chain(out.OnGenerated, h.OnGenerated)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
