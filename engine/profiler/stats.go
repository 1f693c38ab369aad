package profiler

// RenderStats holds the counters of one rendered frame. It is reset at frame start and is purely
// observational.
//
// DrawCalls, InstancedDrawCalls, InstancesRendered, MaterialChanges and TrianglesRendered count
// the color pass only; the shadow pass and the depth pre-pass have their own draw counters.
type RenderStats struct {
	EntitiesTotal    int
	EntitiesCulled   int
	EntitiesRendered int

	DrawCalls          int
	InstancedDrawCalls int
	InstancesRendered  int
	MaterialChanges    int
	TrianglesRendered  int

	ShadowDrawCalls       int
	DepthPrepassDrawCalls int
	SkippedBatches        int
	ShadowCastersCulled   int
}

// Reset zeroes every counter.
func (s *RenderStats) Reset() {
	*s = RenderStats{}
}
