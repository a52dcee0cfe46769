package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	registry *prometheus.Registry

	Messages      *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	ModelCalls    *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec
	SessionsEnded *prometheus.CounterVec
	Turns         prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on a dedicated registry
// (which also exposes the Go runtime and process collectors).
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_messages_total",
				Help: "Messages appended to transcripts, by role.",
			},
			[]string{"role"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_transitions_total",
				Help: "Moves to a next scripted question, by target question index.",
			},
			[]string{"question"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_model_calls_total",
				Help: "Model gateway calls by operation and outcome (ok, fallback, error).",
			},
			[]string{"op", "outcome"},
		),
		ModelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "debrief_model_call_duration_seconds",
				Help:    "Duration of model gateway calls.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "debrief_sessions_ended_total",
				Help: "Ended sessions, by whether the summary fell back to the default.",
			},
			[]string{"fallback"},
		),
		Turns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "debrief_session_turns",
			Help:    "User turns per ended session.",
			Buckets: prometheus.LinearBuckets(2, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.Messages, m.Transitions, m.ModelCalls, m.ModelDuration, m.SessionsEnded, m.Turns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.Messages.WithLabelValues(string(e.Message.Role)).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(itoa(e.To)).Inc()
		},
		OnModelCall: func(_ context.Context, e *domain.ModelCallEvent) {
			outcome := "ok"
			switch {
			case e.Err != nil:
				outcome = "error"
			case e.Fallback:
				outcome = "fallback"
			}
			m.ModelCalls.WithLabelValues(string(e.Op), outcome).Inc()
			m.ModelDuration.WithLabelValues(string(e.Op)).Observe(e.Duration.Seconds())
		},
		OnSessionEnd: func(_ context.Context, e *domain.SessionEndEvent) {
			fallback := "false"
			if e.Fallback {
				fallback = "true"
			}
			m.SessionsEnded.WithLabelValues(fallback).Inc()
			m.Turns.Observe(float64(e.Turns))
		},
	}
}
