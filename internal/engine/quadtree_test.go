package engine

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *SpatialIndex {
	return NewSpatialIndex(Rect{X: -10000, Y: -10000, Width: 20000, Height: 20000}, IndexConfig{})
}

func TestIndexInsertAndQuery(t *testing.T) {
	idx := testIndex()

	require.NoError(t, idx.Insert(SpatialObject{ID: "a", Bounds: Rect{X: 0, Y: 0, Width: 10, Height: 10}}))
	require.NoError(t, idx.Insert(SpatialObject{ID: "b", Bounds: Rect{X: 5000, Y: 5000, Width: 10, Height: 10}}))

	got := idx.Query(Rect{X: -50, Y: -50, Width: 100, Height: 100})
	assert.ElementsMatch(t, []string{"a"}, got)

	got = idx.Query(Rect{X: -10000, Y: -10000, Width: 20000, Height: 20000})
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestIndexCompleteness(t *testing.T) {
	idx := testIndex()
	rng := rand.New(rand.NewSource(7))

	const n = 10000
	for i := 0; i < n; i++ {
		obj := SpatialObject{
			ID: fmt.Sprintf("obj-%d", i),
			Bounds: Rect{
				X:      rng.Float64()*19000 - 9500,
				Y:      rng.Float64()*19000 - 9500,
				Width:  rng.Float64() * 200,
				Height: rng.Float64() * 200,
			},
		}
		require.NoError(t, idx.Insert(obj))
	}

	assert.Equal(t, n, idx.Len())

	got := idx.Query(Rect{X: -10000, Y: -10000, Width: 20000, Height: 20000})
	require.Len(t, got, n)

	seen := make(map[string]bool, n)
	for _, id := range got {
		assert.False(t, seen[id], "duplicate id %s in query result", id)
		seen[id] = true
	}
}

func TestIndexUpdateMovesObjectAcrossTree(t *testing.T) {
	idx := testIndex()

	require.NoError(t, idx.Insert(SpatialObject{ID: "n", Bounds: Rect{X: -10, Y: -10, Width: 20, Height: 20}}))
	require.NoError(t, idx.Update(SpatialObject{ID: "n", Bounds: Rect{X: 990, Y: 990, Width: 20, Height: 20}}))

	assert.Empty(t, idx.Query(Rect{X: -20, Y: -20, Width: 40, Height: 40}))
	assert.ElementsMatch(t, []string{"n"}, idx.Query(Rect{X: 980, Y: 980, Width: 40, Height: 40}))
}

func TestIndexCrossValidationAgainstLinearScan(t *testing.T) {
	idx := testIndex()
	rng := rand.New(rand.NewSource(42))

	objects := make(map[string]Rect)
	for i := 0; i < 2000; i++ {
		b := Rect{
			X:      rng.Float64()*18000 - 9000,
			Y:      rng.Float64()*18000 - 9000,
			Width:  rng.Float64() * 500,
			Height: rng.Float64() * 500,
		}
		id := fmt.Sprintf("o%d", i)
		objects[id] = b
		require.NoError(t, idx.Insert(SpatialObject{ID: id, Bounds: b}))
	}

	for i := 0; i < 200; i++ {
		query := Rect{
			X:      rng.Float64()*20000 - 10000,
			Y:      rng.Float64()*20000 - 10000,
			Width:  rng.Float64() * 3000,
			Height: rng.Float64() * 3000,
		}

		var want []string
		for id, b := range objects {
			if b.Intersects(query) {
				want = append(want, id)
			}
		}

		assert.ElementsMatch(t, want, idx.Query(query), "query %+v", query)
	}
}

func TestIndexUpdateHighFrequencyDrag(t *testing.T) {
	idx := testIndex()
	require.NoError(t, idx.Insert(SpatialObject{ID: "drag", Bounds: Rect{X: 0, Y: 0, Width: 50, Height: 50}}))

	// Simulate a long drag: one update per pointer move.
	for i := 0; i < 5000; i++ {
		b := Rect{X: float64(i), Y: float64(i) / 2, Width: 50, Height: 50}
		require.NoError(t, idx.Update(SpatialObject{ID: "drag", Bounds: b}))
	}

	assert.ElementsMatch(t, []string{"drag"}, idx.Query(Rect{X: 4990, Y: 2480, Width: 100, Height: 100}))
	assert.Empty(t, idx.Query(Rect{X: -100, Y: -100, Width: 50, Height: 50}))
}

func TestIndexRemove(t *testing.T) {
	idx := testIndex()
	require.NoError(t, idx.Insert(SpatialObject{ID: "x", Bounds: Rect{X: 0, Y: 0, Width: 1, Height: 1}}))

	require.NoError(t, idx.Remove("x"))
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Query(Rect{X: -10, Y: -10, Width: 20, Height: 20}))

	assert.ErrorIs(t, idx.Remove("x"), ErrObjectNotFound)
	assert.ErrorIs(t, idx.Remove("nonexistent"), ErrObjectNotFound)
}

func TestIndexRejectsInvalidBounds(t *testing.T) {
	idx := testIndex()

	cases := []Rect{
		{X: math.NaN(), Y: 0, Width: 1, Height: 1},
		{X: 0, Y: math.Inf(1), Width: 1, Height: 1},
		{X: 0, Y: 0, Width: -1, Height: 1},
		{X: 0, Y: 0, Width: 1, Height: math.NaN()},
	}
	for _, b := range cases {
		assert.ErrorIs(t, idx.Insert(SpatialObject{ID: "bad", Bounds: b}), ErrInvalidBounds)
		assert.Zero(t, idx.Len(), "index size changed after rejected insert %+v", b)
	}

	require.NoError(t, idx.Insert(SpatialObject{ID: "ok", Bounds: Rect{X: 0, Y: 0, Width: 1, Height: 1}}))
	assert.ErrorIs(t, idx.Update(SpatialObject{ID: "ok", Bounds: cases[0]}), ErrInvalidBounds)

	got, err := idx.Bounds("ok")
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 1, Height: 1}, got)
}

func TestIndexRejectsDuplicateID(t *testing.T) {
	idx := testIndex()
	require.NoError(t, idx.Insert(SpatialObject{ID: "a", Bounds: Rect{X: 0, Y: 0, Width: 1, Height: 1}}))
	assert.ErrorIs(t, idx.Insert(SpatialObject{ID: "a", Bounds: Rect{X: 5, Y: 5, Width: 1, Height: 1}}), ErrDuplicateObject)
	assert.Equal(t, 1, idx.Len())
}

func TestIndexUpdateUnknownID(t *testing.T) {
	idx := testIndex()
	err := idx.Update(SpatialObject{ID: "ghost", Bounds: Rect{X: 0, Y: 0, Width: 1, Height: 1}})
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestIndexStraddlingObjectStoredOnce(t *testing.T) {
	idx := NewSpatialIndex(Rect{X: 0, Y: 0, Width: 100, Height: 100}, IndexConfig{MaxObjects: 1, MaxDepth: 4})

	// Force subdivision, then insert an object spanning the center split.
	require.NoError(t, idx.Insert(SpatialObject{ID: "a", Bounds: Rect{X: 10, Y: 10, Width: 5, Height: 5}}))
	require.NoError(t, idx.Insert(SpatialObject{ID: "b", Bounds: Rect{X: 80, Y: 80, Width: 5, Height: 5}}))
	require.NoError(t, idx.Insert(SpatialObject{ID: "straddle", Bounds: Rect{X: 40, Y: 40, Width: 20, Height: 20}}))

	got := idx.Query(Rect{X: 0, Y: 0, Width: 100, Height: 100})
	assert.ElementsMatch(t, []string{"a", "b", "straddle"}, got)

	// Querying either side of the split finds the straddler exactly once.
	assert.Contains(t, idx.Query(Rect{X: 0, Y: 0, Width: 45, Height: 45}), "straddle")
	assert.Contains(t, idx.Query(Rect{X: 55, Y: 55, Width: 45, Height: 45}), "straddle")
}

func TestIndexDepthCapAcceptsOverflow(t *testing.T) {
	idx := NewSpatialIndex(Rect{X: 0, Y: 0, Width: 100, Height: 100}, IndexConfig{MaxObjects: 2, MaxDepth: 2})

	// Pile many objects into the same tiny region; at MaxDepth the leaf
	// simply accepts them all.
	for i := 0; i < 50; i++ {
		obj := SpatialObject{
			ID:     fmt.Sprintf("dense-%d", i),
			Bounds: Rect{X: 1, Y: 1, Width: 0.5, Height: 0.5},
		}
		require.NoError(t, idx.Insert(obj))
	}

	got := idx.Query(Rect{X: 0, Y: 0, Width: 5, Height: 5})
	assert.Len(t, got, 50)
}

func TestIndexObjectOutsideRootStaysQueryable(t *testing.T) {
	idx := NewSpatialIndex(Rect{X: 0, Y: 0, Width: 100, Height: 100}, IndexConfig{})

	require.NoError(t, idx.Insert(SpatialObject{ID: "far", Bounds: Rect{X: 1e6, Y: 1e6, Width: 10, Height: 10}}))
	assert.ElementsMatch(t, []string{"far"}, idx.Query(Rect{X: 1e6 - 5, Y: 1e6 - 5, Width: 20, Height: 20}))
}

func TestIndexClear(t *testing.T) {
	idx := testIndex()
	for i := 0; i < 100; i++ {
		require.NoError(t, idx.Insert(SpatialObject{
			ID:     fmt.Sprintf("c%d", i),
			Bounds: Rect{X: float64(i) * 10, Y: 0, Width: 5, Height: 5},
		}))
	}

	idx.Clear()

	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Query(Rect{X: -10000, Y: -10000, Width: 20000, Height: 20000}))

	// Reusable after reset.
	require.NoError(t, idx.Insert(SpatialObject{ID: "again", Bounds: Rect{X: 0, Y: 0, Width: 1, Height: 1}}))
	assert.Equal(t, 1, idx.Len())
}

func TestIndexTouchingEdgeIsIncluded(t *testing.T) {
	idx := testIndex()
	require.NoError(t, idx.Insert(SpatialObject{ID: "edge", Bounds: Rect{X: 100, Y: 0, Width: 10, Height: 10}}))

	// Query rect ends exactly where the object begins.
	assert.ElementsMatch(t, []string{"edge"}, idx.Query(Rect{X: 0, Y: 0, Width: 100, Height: 100}))
}
