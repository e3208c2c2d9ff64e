package engine

import "time"

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// WorldBounds is the quadtree root extent. Objects outside it are still
	// stored (at the root node) but query performance is best inside.
	WorldBounds Rect

	// Camera zoom range.
	MinScale float64
	MaxScale float64

	// Quadtree subdivision limits.
	MaxObjects int
	MaxDepth   int

	// CullMargin is the world-unit margin added around the viewport when
	// computing the visible set.
	CullMargin float64

	// LOD thresholds.
	FullAbove     float64
	AbstractBelow float64
}

// DefaultWorldBounds is the root extent used when none is configured,
// generous enough that ordinary boards never leave it.
var DefaultWorldBounds = Rect{X: -1 << 20, Y: -1 << 20, Width: 1 << 21, Height: 1 << 21}

func (c Config) withDefaults() Config {
	if c.WorldBounds.IsEmpty() {
		c.WorldBounds = DefaultWorldBounds
	}
	if c.CullMargin <= 0 {
		c.CullMargin = 100
	}
	return c
}

// Engine is the spatial core: one camera, one spatial index, and the culling
// and LOD logic that together answer "what is visible, and at what fidelity".
// It is single-threaded by design — every mutation and query runs on the
// owning tick loop, so no operation blocks and no locks are needed. Index
// mutations are synchronous and tolerate per-pointer-move rates; only camera
// transitions span ticks.
type Engine struct {
	camera    *Camera
	index     *SpatialIndex
	culling   *CullingEngine
	lod       LODConfig
	margin    float64
	listeners Listeners
}

// New creates an engine with the given viewport and notification listeners.
func New(cfg Config, viewport Size, listeners Listeners) *Engine {
	cfg = cfg.withDefaults()

	index := NewSpatialIndex(cfg.WorldBounds, IndexConfig{
		MaxObjects: cfg.MaxObjects,
		MaxDepth:   cfg.MaxDepth,
	})

	camera := NewCamera(CameraConfig{
		MinScale: cfg.MinScale,
		MaxScale: cfg.MaxScale,
	}, viewport, listeners.CameraChanged)

	return &Engine{
		camera:    camera,
		index:     index,
		culling:   NewCullingEngine(index),
		lod:       LODConfig{FullAbove: cfg.FullAbove, AbstractBelow: cfg.AbstractBelow}.withDefaults(),
		margin:    cfg.CullMargin,
		listeners: listeners,
	}
}

// Camera returns the engine's camera.
func (e *Engine) Camera() *Camera {
	return e.camera
}

// Index returns the underlying spatial index for read-only use. Mutations go
// through InsertObject/UpdateObject/RemoveObject so notifications fire.
func (e *Engine) Index() *SpatialIndex {
	return e.index
}

// InsertObject registers an object with the index and notifies listeners.
func (e *Engine) InsertObject(obj SpatialObject) error {
	if err := e.index.Insert(obj); err != nil {
		return err
	}
	e.listeners.emitInserted(ObjectInserted{ID: obj.ID, Bounds: obj.Bounds})
	return nil
}

// UpdateObject moves an object and notifies listeners with old and new
// bounds. Called once per pointer-move event during a drag.
func (e *Engine) UpdateObject(obj SpatialObject) error {
	old, err := e.index.Bounds(obj.ID)
	if err != nil {
		return err
	}
	if err := e.index.Update(obj); err != nil {
		return err
	}
	e.listeners.emitUpdated(ObjectUpdated{ID: obj.ID, OldBounds: old, NewBounds: obj.Bounds})
	return nil
}

// RemoveObject deletes an object and notifies listeners.
func (e *Engine) RemoveObject(id string) error {
	if err := e.index.Remove(id); err != nil {
		return err
	}
	e.listeners.emitRemoved(ObjectRemoved{ID: id})
	return nil
}

// Clear resets the index, used on full board reload.
func (e *Engine) Clear() {
	e.index.Clear()
}

// VisibleObjects returns the ids visible through the engine's own camera.
// Collaborators with their own camera state call the CullingEngine directly.
func (e *Engine) VisibleObjects() []string {
	return e.culling.VisibleObjects(e.camera.State(), e.camera.Viewport(), e.margin)
}

// VisibleFor returns the ids visible through an arbitrary camera view, using
// the engine's configured margin.
func (e *Engine) VisibleFor(cam CameraState, viewport Size) []string {
	return e.culling.VisibleObjects(cam, viewport, e.margin)
}

// DetailLevel returns the detail tier for the current camera scale. Called
// once per render tick by the rendering collaborator.
func (e *Engine) DetailLevel() DetailTier {
	return e.lod.DetailLevel(e.camera.State().Scale)
}

// Tick advances time-dependent state (camera transitions) and reports
// whether anything is still animating. Called once per render tick.
func (e *Engine) Tick(now time.Time) bool {
	return e.camera.Tick(now)
}
