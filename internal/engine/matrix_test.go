package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixMatchesWorldToScreen(t *testing.T) {
	cam := CameraState{X: 120, Y: -45, Scale: 1.75}
	viewport := Size{Width: 800, Height: 600}
	m := TransformMatrix(cam, viewport).Matrix()

	points := []Point{{X: 0, Y: 0}, {X: 120, Y: -45}, {X: -300, Y: 512}}
	for _, p := range points {
		want := WorldToScreen(p, cam, viewport)
		got := m.TransformPoint(p)
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
	}
}

func TestMatrixInvertRoundTrip(t *testing.T) {
	m := Translate(40, -12).Multiply(Scale(2.5))
	inv := m.Invert()

	p := Point{X: 17, Y: 23}
	back := inv.TransformPoint(m.TransformPoint(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestMatrixInvertSingular(t *testing.T) {
	m := Scale(0).Invert()
	assert.Equal(t, Identity(), m)
}

func TestMatrixTransformRect(t *testing.T) {
	m := Translate(10, 20).Multiply(Scale(2))
	r := m.TransformRect(Rect{X: 1, Y: 1, Width: 3, Height: 4})

	require.Equal(t, Rect{X: 12, Y: 22, Width: 6, Height: 8}, r)
}

func TestMatrixToSlice(t *testing.T) {
	m := Translate(5, 6)
	assert.Equal(t, []float64{1, 0, 0, 1, 5, 6}, m.ToSlice())
}
