package metrics

import (
	"context"
	"time"

	"planneat/internal/logger"

	"go.uber.org/zap"
)

// Recorder observes recipe Source calls, feeding the Prometheus collectors
// and, when a Store is set, the persisted call history.
type Recorder struct {
	collectors *Collectors
	store      *Store
	logger     *zap.Logger
}

// NewRecorder creates a Recorder. store may be nil.
func NewRecorder(collectors *Collectors, store *Store, l *zap.Logger) *Recorder {
	return &Recorder{collectors: collectors, store: store, logger: logger.OrNop(l)}
}

// ObserveCall implements the Source instrumentation hook.
func (r *Recorder) ObserveCall(method string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if r.collectors != nil {
		r.collectors.SourceCallsTotal.WithLabelValues(method, outcome).Inc()
		r.collectors.SourceCallDuration.WithLabelValues(method).Observe(d.Seconds())
	}
	if r.store == nil {
		return
	}

	call := SourceCall{
		Method:    method,
		Success:   err == nil,
		LatencyMS: d.Milliseconds(),
		Timestamp: time.Now(),
	}
	if recErr := r.store.Record(context.Background(), call); recErr != nil {
		r.logger.Warn("failed to persist source call", zap.String("method", method), zap.Error(recErr))
	}
}

// CountCommand increments the handled-command counter. It is safe on a nil
// Recorder.
func (r *Recorder) CountCommand(command string) {
	if r != nil && r.collectors != nil {
		r.collectors.CommandsTotal.WithLabelValues(command).Inc()
	}
}

// SetCollections publishes the current favorites and planned-meal counts.
func (r *Recorder) SetCollections(favorites, plannedMeals int) {
	if r.collectors != nil {
		r.collectors.FavoritesCount.Set(float64(favorites))
		r.collectors.PlannedMeals.Set(float64(plannedMeals))
	}
}
