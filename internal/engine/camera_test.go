package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testViewport = Size{Width: 800, Height: 600}

func TestCameraPanIsScaleCompensated(t *testing.T) {
	cam := NewCamera(CameraConfig{}, testViewport, nil)

	cam.SetZoom(2)
	cam.Pan(100, -50)

	state := cam.State()
	assert.InDelta(t, 50.0, state.X, 1e-9)
	assert.InDelta(t, -25.0, state.Y, 1e-9)
}

func TestCameraZoomKeepsCursorAnchored(t *testing.T) {
	anchors := []Point{{400, 300}, {0, 0}, {799, 599}, {123, 456}}
	factors := []float64{0.1, 0.5, 0.9, 1.1, 2, 5, 10}

	for _, anchor := range anchors {
		for _, factor := range factors {
			cam := NewCamera(CameraConfig{MinScale: 0.1, MaxScale: 10}, testViewport, nil)
			cam.SetPosition(250, -80)
			cam.SetZoom(1.3)

			before, err := ScreenToWorld(anchor, cam.State(), testViewport)
			require.NoError(t, err)

			cam.Zoom(factor, anchor.X, anchor.Y)

			after := WorldToScreen(before, cam.State(), testViewport)
			assert.InDelta(t, anchor.X, after.X, 1.0, "factor %v anchor %+v", factor, anchor)
			assert.InDelta(t, anchor.Y, after.Y, 1.0, "factor %v anchor %+v", factor, anchor)
		}
	}
}

func TestCameraRejectsNonFiniteInput(t *testing.T) {
	cam := NewCamera(CameraConfig{MinScale: 0.1, MaxScale: 10}, testViewport, nil)
	cam.SetPosition(250, -80)
	cam.SetZoom(1.3)
	want := cam.State()

	// None of these may disturb the state: NaN slips through clamp (both
	// comparisons are false), and a NaN scale would be unrecoverable.
	cam.Zoom(math.NaN(), 400, 300)
	cam.Zoom(math.Inf(1), 400, 300)
	cam.Zoom(0, 400, 300)
	cam.Zoom(-2, 400, 300)
	cam.Zoom(2, math.NaN(), 300)
	cam.SetZoom(math.NaN())
	cam.SetZoom(math.Inf(-1))
	cam.Pan(math.NaN(), 0)
	cam.SetPosition(math.Inf(1), 0)
	cam.LerpTo(0, 0, math.NaN(), 100*time.Millisecond)

	assert.Equal(t, want, cam.State())
	assert.False(t, cam.Transitioning())

	// The camera still works afterwards.
	cam.Zoom(2, 400, 300)
	assert.InDelta(t, 2.6, cam.State().Scale, 1e-9)
}

func TestCameraZoomAnchorHoldsAtClampBoundary(t *testing.T) {
	cam := NewCamera(CameraConfig{MinScale: 0.5, MaxScale: 2}, testViewport, nil)
	anchor := Point{X: 200, Y: 100}

	before, err := ScreenToWorld(anchor, cam.State(), testViewport)
	require.NoError(t, err)

	// Factor 100 saturates at MaxScale; the anchor correction still applies.
	cam.Zoom(100, anchor.X, anchor.Y)
	assert.Equal(t, 2.0, cam.State().Scale)

	after := WorldToScreen(before, cam.State(), testViewport)
	assert.InDelta(t, anchor.X, after.X, 1.0)
	assert.InDelta(t, anchor.Y, after.Y, 1.0)
}

func TestCameraZoomSaturatesInsteadOfFailing(t *testing.T) {
	cam := NewCamera(CameraConfig{MinScale: 0.1, MaxScale: 10}, testViewport, nil)

	cam.Zoom(0.000001, 400, 300)
	assert.Equal(t, 0.1, cam.State().Scale)

	cam.Zoom(1e9, 400, 300)
	assert.Equal(t, 10.0, cam.State().Scale)
}

func TestCameraEmitsChangeOnEveryMutation(t *testing.T) {
	var changes []CameraState
	cam := NewCamera(CameraConfig{}, testViewport, func(s CameraState) {
		changes = append(changes, s)
	})

	cam.Pan(10, 10)
	cam.Zoom(2, 400, 300)
	cam.SetPosition(5, 5)
	cam.SetZoom(1)

	assert.Len(t, changes, 4)
	assert.Equal(t, cam.State(), changes[3])
}

func TestCameraLerpReachesTarget(t *testing.T) {
	cam := NewCamera(CameraConfig{}, testViewport, nil)
	start := time.Now()

	cam.LerpTo(100, 200, 2, 100*time.Millisecond)
	assert.True(t, cam.Transitioning())

	// Midway the state is strictly between start and target.
	cam.Tick(start.Add(50 * time.Millisecond))
	mid := cam.State()
	assert.Greater(t, mid.X, 0.0)
	assert.Less(t, mid.X, 100.0)

	// Past the duration the transition completes exactly at the target.
	still := cam.Tick(start.Add(200 * time.Millisecond))
	assert.False(t, still)
	assert.False(t, cam.Transitioning())
	assert.Equal(t, CameraState{X: 100, Y: 200, Scale: 2}, cam.State())
}

func TestCameraLerpLastRequestWins(t *testing.T) {
	cam := NewCamera(CameraConfig{}, testViewport, nil)
	start := time.Now()

	cam.LerpTo(100, 0, 1, 100*time.Millisecond)
	cam.Tick(start.Add(50 * time.Millisecond))

	// A new transition replaces the old one and starts from the current
	// interpolated position, not from the original start.
	cam.LerpTo(-100, 0, 1, 100*time.Millisecond)
	cam.Tick(time.Now().Add(200 * time.Millisecond))

	assert.Equal(t, -100.0, cam.State().X)
}

func TestCameraLerpZeroDurationJumps(t *testing.T) {
	cam := NewCamera(CameraConfig{}, testViewport, nil)

	cam.LerpTo(10, 20, 1.5, 0)

	assert.False(t, cam.Transitioning())
	assert.Equal(t, CameraState{X: 10, Y: 20, Scale: 1.5}, cam.State())
}

func TestCameraLerpClampsTargetScale(t *testing.T) {
	cam := NewCamera(CameraConfig{MinScale: 0.5, MaxScale: 2}, testViewport, nil)

	cam.LerpTo(0, 0, 50, 0)
	assert.Equal(t, 2.0, cam.State().Scale)
}
