package profiler

import (
	"time"

	"go.uber.org/zap"
)

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often Tick logs.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogger sets the logger the stats line is written to.
func WithLogger(logger *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
