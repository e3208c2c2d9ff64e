package engine

import "time"

// CameraConfig bounds the zoom range. Zoom requests outside the range are
// clamped, never rejected.
type CameraConfig struct {
	MinScale float64
	MaxScale float64
}

// DefaultCameraConfig returns the zoom bounds used when none are configured.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{MinScale: 0.1, MaxScale: 10}
}

func (c CameraConfig) withDefaults() CameraConfig {
	d := DefaultCameraConfig()
	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale <= 0 {
		c.MaxScale = d.MaxScale
	}
	return c
}

// transition is an in-flight eased interpolation toward a target state.
// Starting a new one replaces any previous one (last-request-wins).
type transition struct {
	from     CameraState
	to       CameraState
	start    time.Time
	duration time.Duration
}

// Camera owns the viewport state and all pan/zoom/transition logic. It emits
// a change notification on every state mutation, including each transition
// tick. Not safe for concurrent use; all access happens on the owning tick
// loop.
type Camera struct {
	state    CameraState
	cfg      CameraConfig
	viewport Size
	inFlight *transition
	onChange func(CameraState)
}

// NewCamera creates a camera at the world origin with scale 1. onChange may
// be nil if no collaborator subscribes.
func NewCamera(cfg CameraConfig, viewport Size, onChange func(CameraState)) *Camera {
	return &Camera{
		state:    CameraState{X: 0, Y: 0, Scale: 1},
		cfg:      cfg.withDefaults(),
		viewport: viewport,
		onChange: onChange,
	}
}

// State returns the current camera state.
func (c *Camera) State() CameraState {
	return c.state
}

// Viewport returns the current viewport size in pixels.
func (c *Camera) Viewport() Size {
	return c.viewport
}

// SetViewport updates the viewport size (window resize).
func (c *Camera) SetViewport(viewport Size) {
	c.viewport = viewport
}

// Pan moves the camera by a screen-pixel delta. The delta is converted to
// world units so pan speed is visually constant across zoom levels.
func (c *Camera) Pan(dx, dy float64) {
	if !isFinite(dx) || !isFinite(dy) {
		return
	}
	c.state.X += dx / c.state.Scale
	c.state.Y += dy / c.state.Scale
	c.emit()
}

// Zoom applies a cursor-centric zoom: the world point under the given screen
// pixel stays under that pixel after the scale change. The anchor correction
// uses the clamped scale, so the guarantee holds even when the factor pushes
// the scale against a bound. Non-finite or non-positive factors are ignored:
// clamp passes NaN through (both comparisons are false), and a NaN scale
// would break the scale invariant with no way back.
func (c *Camera) Zoom(factor, screenX, screenY float64) {
	if !isFinite(factor) || factor <= 0 || !isFinite(screenX) || !isFinite(screenY) {
		return
	}

	anchor, err := ScreenToWorld(Point{X: screenX, Y: screenY}, c.state, c.viewport)
	if err != nil {
		// Unreachable while the scale invariant holds.
		return
	}

	newScale := clamp(c.state.Scale*factor, c.cfg.MinScale, c.cfg.MaxScale)
	c.state.Scale = newScale

	newScreen := WorldToScreen(anchor, c.state, c.viewport)
	c.state.X += (newScreen.X - screenX) / newScale
	c.state.Y += (newScreen.Y - screenY) / newScale
	c.emit()
}

// SetPosition jumps the camera to a world position (programmatic navigation).
func (c *Camera) SetPosition(x, y float64) {
	if !isFinite(x) || !isFinite(y) {
		return
	}
	c.state.X = x
	c.state.Y = y
	c.emit()
}

// SetZoom sets the scale directly, clamped to the configured range.
// Non-finite scales are ignored.
func (c *Camera) SetZoom(scale float64) {
	if !isFinite(scale) {
		return
	}
	c.state.Scale = clamp(scale, c.cfg.MinScale, c.cfg.MaxScale)
	c.emit()
}

// LerpTo starts an eased transition from the current state to the target.
// Any in-flight transition is discarded; the camera continues from its
// current interpolated position toward the new target. The transition is
// advanced by Tick, so completion is observed through change notifications.
func (c *Camera) LerpTo(x, y, scale float64, duration time.Duration) {
	if !isFinite(x) || !isFinite(y) || !isFinite(scale) {
		return
	}

	target := CameraState{
		X:     x,
		Y:     y,
		Scale: clamp(scale, c.cfg.MinScale, c.cfg.MaxScale),
	}

	if duration <= 0 {
		c.inFlight = nil
		c.state = target
		c.emit()
		return
	}

	c.inFlight = &transition{
		from:     c.state,
		to:       target,
		start:    time.Now(),
		duration: duration,
	}
}

// Tick advances the in-flight transition, if any, and reports whether one is
// still running. Called once per render tick.
func (c *Camera) Tick(now time.Time) bool {
	tr := c.inFlight
	if tr == nil {
		return false
	}

	t := float64(now.Sub(tr.start)) / float64(tr.duration)
	if t >= 1 {
		c.inFlight = nil
		c.state = tr.to
		c.emit()
		return false
	}
	if t < 0 {
		t = 0
	}

	e := easeInOut(t)
	c.state = CameraState{
		X:     tr.from.X + (tr.to.X-tr.from.X)*e,
		Y:     tr.from.Y + (tr.to.Y-tr.from.Y)*e,
		Scale: tr.from.Scale + (tr.to.Scale-tr.from.Scale)*e,
	}
	c.emit()
	return true
}

// Transitioning reports whether a transition is in flight.
func (c *Camera) Transitioning() bool {
	return c.inFlight != nil
}

func (c *Camera) emit() {
	if c.onChange != nil {
		c.onChange(c.state)
	}
}

// easeInOut applies quadratic ease-in-out to interpolation factor t (0-1).
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
