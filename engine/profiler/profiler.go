package profiler

import (
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval, together with the render stats of the
// most recent frame.
type Profiler struct {
	logger         *zap.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options (interval, logger)
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs FPS, heap usage, allocation rate, GC pauses and the frame's render stats when the update
// interval has elapsed.
//
// Parameters:
//   - stats: the render stats of the frame that just finished
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats RenderStats) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := 0.0
	if elapsed > 0 {
		fps = float64(p.frameCount) / elapsed.Seconds()
	}

	runtime.ReadMemStats(&p.memStats)
	allocRate := uint64(0)
	if elapsed > 0 {
		allocRate = uint64(float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / elapsed.Seconds())
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	p.logger.Info("profiler",
		zap.String("fps", humanize.FormatFloat("#,###.##", fps)),
		zap.String("heap", humanize.IBytes(p.memStats.Alloc)),
		zap.String("alloc_rate", humanize.IBytes(allocRate)+"/s"),
		zap.Uint32("gc", gcCount),
		zap.Duration("gc_last_pause", lastPause),
		zap.Duration("gc_max_pause", maxPause),
		zap.String("sys", humanize.IBytes(p.memStats.Sys)),
		zap.String("entities", humanize.Comma(int64(stats.EntitiesRendered))+"/"+humanize.Comma(int64(stats.EntitiesTotal))),
		zap.Int("culled", stats.EntitiesCulled),
		zap.Int("draw_calls", stats.DrawCalls),
		zap.Int("instanced_draw_calls", stats.InstancedDrawCalls),
		zap.String("instances", humanize.Comma(int64(stats.InstancesRendered))),
		zap.String("triangles", humanize.Comma(int64(stats.TrianglesRendered))),
		zap.Int("material_changes", stats.MaterialChanges),
		zap.Int("shadow_draw_calls", stats.ShadowDrawCalls),
		zap.Int("prepass_draw_calls", stats.DepthPrepassDrawCalls),
		zap.Int("skipped_batches", stats.SkippedBatches),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
