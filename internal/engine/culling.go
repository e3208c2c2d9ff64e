package engine

// CullingEngine combines a camera view with the spatial index to produce the
// set of objects worth rendering.
type CullingEngine struct {
	index *SpatialIndex
}

// NewCullingEngine creates a culling engine over the given index.
func NewCullingEngine(index *SpatialIndex) *CullingEngine {
	return &CullingEngine{index: index}
}

// VisibleObjects returns the ids of all objects intersecting the world-space
// rect covered by the viewport, expanded by margin world units on each side.
// The margin hides pop-in at the viewport edge during pans and drags.
func (c *CullingEngine) VisibleObjects(cam CameraState, viewport Size, margin float64) []string {
	rect := ViewportWorldRect(cam, viewport).Expand(margin)
	return c.index.Query(rect)
}
