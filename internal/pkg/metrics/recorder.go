package metrics

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
)

// Recorder feeds generation outcomes into Prometheus and the daily counters.
// Either sink may be nil.
type Recorder struct {
	metrics *Metrics
	daily   *DailyCounter
	now     func() time.Time
}

func NewRecorder(m *Metrics, daily *DailyCounter) *Recorder {
	return &Recorder{metrics: m, daily: daily, now: time.Now}
}

func (r *Recorder) RecordGeneration(ctx context.Context, outcome generation.Outcome) {
	if r.metrics != nil {
		r.metrics.GenerationsTotal.WithLabelValues(string(outcome)).Inc()
	}
	if r.daily == nil {
		return
	}
	// The request may already be cancelled; the counter must still land.
	if err := r.daily.Incr(context.WithoutCancel(ctx), r.now(), string(outcome)); err != nil {
		log.Warnf("[Metrics] daily counter update failed: %v", err)
	}
}
