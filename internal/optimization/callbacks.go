package optimization

import (
	"time"

	"go.uber.org/zap"
)

// NewProgressLogger returns a tell callback logging optimization progress
// every intervalTells accepted losses and at most once per
// intervalDuration. Register it with RegisterCallback(EventTell, ...).
func NewProgressLogger(logger *zap.Logger, intervalTells int, intervalDuration time.Duration) Callback {
	if intervalTells < 1 {
		intervalTells = 1
	}
	logger = logger.Named("progress")
	var last time.Time
	return func(p *Protocol, c *Candidate, loss *float64) {
		if p.NumTell()%intervalTells != 0 {
			return
		}
		if !last.IsZero() && time.Since(last) < intervalDuration {
			return
		}
		last = time.Now()
		fields := []zap.Field{
			zap.Int("num_ask", p.NumAsk()),
			zap.Int("num_tell", p.NumTell()),
		}
		if loss != nil {
			fields = append(fields, zap.Float64("loss", *loss))
		}
		if rec := p.ProvideRecommendation(); rec.Loss != nil {
			fields = append(fields, zap.Float64("best_loss", *rec.Loss))
		}
		logger.Info("optimization progress", fields...)
	}
}
