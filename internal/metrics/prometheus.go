package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "planneat"

// Label names
const (
	LabelMethod  = "method"
	LabelOutcome = "outcome"
	LabelCommand = "command"
)

// Collectors holds the Prometheus instruments for one registry.
type Collectors struct {
	SourceCallsTotal   *prometheus.CounterVec
	SourceCallDuration *prometheus.HistogramVec
	CommandsTotal      *prometheus.CounterVec
	FavoritesCount     prometheus.Gauge
	PlannedMeals       prometheus.Gauge
}

// NewCollectors registers the instruments on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		SourceCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_calls_total",
				Help:      "Total number of recipe source calls by method and outcome",
			},
			[]string{LabelMethod, LabelOutcome},
		),
		SourceCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_call_duration_seconds",
				Help:      "Recipe source call latency in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{LabelMethod},
		),
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of front-end commands handled",
			},
			[]string{LabelCommand},
		),
		FavoritesCount: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "favorites",
				Help:      "Number of saved favorite recipes",
			},
		),
		PlannedMeals: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "planned_meals",
				Help:      "Number of filled meal-plan slots",
			},
		),
	}
}
