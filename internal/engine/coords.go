package engine

import "errors"

// ErrDegenerateScale is returned when a transform is asked to invert a camera
// with scale <= 0. Camera clamps its scale so this should never happen in
// practice; the guard exists to catch programming errors early.
var ErrDegenerateScale = errors.New("degenerate camera scale")

// CameraState is the world position the viewport is centered on plus the zoom
// factor. Scale is always > 0 and bounded by the camera's configured range.
type CameraState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Transform holds the derived affine parameters of a camera view, in the form
// a renderer applies directly: screen = world*Scale + Translate. Computing it
// once per frame avoids per-object matrix recomputation.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

// WorldToScreen maps a world-space point to screen pixels for the given
// camera and viewport: screen = (p - camera) * scale + viewport center.
func WorldToScreen(p Point, cam CameraState, viewport Size) Point {
	return Point{
		X: (p.X-cam.X)*cam.Scale + viewport.Width/2,
		Y: (p.Y-cam.Y)*cam.Scale + viewport.Height/2,
	}
}

// ScreenToWorld maps a screen pixel back to world space. It is the exact
// inverse of WorldToScreen and fails with ErrDegenerateScale if the camera
// scale is not positive.
func ScreenToWorld(p Point, cam CameraState, viewport Size) (Point, error) {
	if cam.Scale <= 0 {
		return Point{}, ErrDegenerateScale
	}
	return Point{
		X: (p.X-viewport.Width/2)/cam.Scale + cam.X,
		Y: (p.Y-viewport.Height/2)/cam.Scale + cam.Y,
	}, nil
}

// TransformMatrix returns the affine parameters equivalent to WorldToScreen
// for the given camera and viewport.
func TransformMatrix(cam CameraState, viewport Size) Transform {
	return Transform{
		Scale:      cam.Scale,
		TranslateX: viewport.Width/2 - cam.X*cam.Scale,
		TranslateY: viewport.Height/2 - cam.Y*cam.Scale,
	}
}

// Matrix returns the transform as a full affine matrix, for renderers that
// compose the camera view with per-object matrices.
func (t Transform) Matrix() Matrix2D {
	return Translate(t.TranslateX, t.TranslateY).Multiply(Scale(t.Scale))
}

// ViewportWorldRect computes the world-space rect currently covered by the
// screen viewport. The viewport is axis-aligned in screen space, so the rect
// follows directly from the camera center and scale.
func ViewportWorldRect(cam CameraState, viewport Size) Rect {
	worldW := viewport.Width / cam.Scale
	worldH := viewport.Height / cam.Scale
	return Rect{
		X:      cam.X - worldW/2,
		Y:      cam.Y - worldH/2,
		Width:  worldW,
		Height: worldH,
	}
}
