package engine

import "errors"

var (
	// ErrObjectNotFound is returned by Remove/Update when the id is not in
	// the index. It is surfaced rather than swallowed because it signals a
	// desync between the entity layer and the index.
	ErrObjectNotFound = errors.New("object not found in spatial index")

	// ErrInvalidBounds is returned when a non-finite or negative-size rect
	// reaches Insert/Update. The index is left unchanged.
	ErrInvalidBounds = errors.New("invalid object bounds")

	// ErrDuplicateObject is returned when Insert is called with an id that
	// is already indexed. Callers that mean to move an object use Update.
	ErrDuplicateObject = errors.New("object already in spatial index")
)

// SpatialObject is a positioned object as the index sees it: a unique id and
// axis-aligned bounds in world space. Content lives in the entity layer.
type SpatialObject struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
}

// IndexConfig tunes quadtree subdivision.
type IndexConfig struct {
	// MaxObjects is the leaf occupancy that triggers subdivision.
	MaxObjects int
	// MaxDepth is the hard subdivision cap. Leaves at MaxDepth accept any
	// number of objects rather than recursing further.
	MaxDepth int
}

// DefaultIndexConfig returns the subdivision limits used when none are
// configured.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{MaxObjects: 8, MaxDepth: 8}
}

func (c IndexConfig) withDefaults() IndexConfig {
	d := DefaultIndexConfig()
	if c.MaxObjects <= 0 {
		c.MaxObjects = d.MaxObjects
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	return c
}

// quadNode is a node in the loose quadtree. An object lives in the deepest
// node whose bounds fully contain it; an object straddling a split stays at
// the parent. Every id therefore appears in exactly one node.
type quadNode struct {
	bounds   Rect
	depth    int
	objects  map[string]Rect
	children *[4]*quadNode // nil for leaves
}

func newQuadNode(bounds Rect, depth int) *quadNode {
	return &quadNode{
		bounds:  bounds,
		depth:   depth,
		objects: make(map[string]Rect),
	}
}

// SpatialIndex is a loose quadtree over the world plane. It owns the
// authoritative set of positioned objects and answers range queries in
// sub-linear time. An id → node back-reference map makes Remove and the
// Update fast path O(1), which is what keeps per-pointer-move drag updates
// cheap. Nodes are never merged back; node count only grows.
//
// Not safe for concurrent use: all mutations and queries are serialized
// through the single owning tick loop.
type SpatialIndex struct {
	cfg   IndexConfig
	root  *quadNode
	nodes map[string]*quadNode // id -> owning node
}

// NewSpatialIndex creates an index over the given root bounds. Objects
// outside the root are still accepted: no quadrant contains them, so the
// straddling rule keeps them at the root node. The root should be generous
// enough for the expected world extent so that stays rare.
func NewSpatialIndex(worldBounds Rect, cfg IndexConfig) *SpatialIndex {
	return &SpatialIndex{
		cfg:   cfg.withDefaults(),
		root:  newQuadNode(worldBounds, 0),
		nodes: make(map[string]*quadNode),
	}
}

// Len returns the number of indexed objects.
func (s *SpatialIndex) Len() int {
	return len(s.nodes)
}

// Insert adds an object to the index.
func (s *SpatialIndex) Insert(obj SpatialObject) error {
	if !obj.Bounds.IsValid() {
		return ErrInvalidBounds
	}
	if _, ok := s.nodes[obj.ID]; ok {
		return ErrDuplicateObject
	}
	s.place(obj.ID, obj.Bounds)
	return nil
}

// Remove deletes an object by id. O(1) via the back-reference map.
func (s *SpatialIndex) Remove(id string) error {
	node, ok := s.nodes[id]
	if !ok {
		return ErrObjectNotFound
	}
	delete(node.objects, id)
	delete(s.nodes, id)
	return nil
}

// Update moves an object to new bounds. If the new bounds still fit the
// owning node without a single child now containing them, the bounds are
// rewritten in place; otherwise the object is removed and re-inserted.
func (s *SpatialIndex) Update(obj SpatialObject) error {
	node, ok := s.nodes[obj.ID]
	if !ok {
		return ErrObjectNotFound
	}
	if !obj.Bounds.IsValid() {
		return ErrInvalidBounds
	}

	stillFits := node == s.root || node.bounds.ContainsRect(obj.Bounds)
	if stillFits && (node.children == nil || node.childContaining(obj.Bounds) == nil) {
		node.objects[obj.ID] = obj.Bounds
		return nil
	}

	delete(node.objects, obj.ID)
	delete(s.nodes, obj.ID)
	s.place(obj.ID, obj.Bounds)
	return nil
}

// Bounds returns the indexed bounds for an id.
func (s *SpatialIndex) Bounds(id string) (Rect, error) {
	node, ok := s.nodes[id]
	if !ok {
		return Rect{}, ErrObjectNotFound
	}
	return node.objects[id], nil
}

// Query collects the ids of all objects whose bounds intersect rect. Each
// object lives in exactly one node, so the result needs no deduplication.
func (s *SpatialIndex) Query(rect Rect) []string {
	var out []string
	s.root.query(rect, &out)
	return out
}

// Clear resets the index to an empty root, keeping the configured bounds.
// Used on full data reload.
func (s *SpatialIndex) Clear() {
	s.root = newQuadNode(s.root.bounds, 0)
	s.nodes = make(map[string]*quadNode)
}

// place walks from the root to the deepest node whose bounds fully contain
// the object, subdividing overfull leaves along the way, and records the
// back-reference.
func (s *SpatialIndex) place(id string, bounds Rect) {
	node := s.root
	for {
		if node.children != nil {
			if child := node.childContaining(bounds); child != nil {
				node = child
				continue
			}
			// Straddles the split: stays here.
			break
		}
		if len(node.objects) >= s.cfg.MaxObjects && node.depth < s.cfg.MaxDepth {
			s.subdivide(node)
			continue
		}
		break
	}
	node.objects[id] = bounds
	s.nodes[id] = node
}

// subdivide splits a leaf into four equal quadrants and redistributes its
// objects using the straddling rule. Objects that now fit a single quadrant
// move down; the rest stay.
func (s *SpatialIndex) subdivide(n *quadNode) {
	halfW := n.bounds.Width / 2
	halfH := n.bounds.Height / 2
	depth := n.depth + 1

	n.children = &[4]*quadNode{
		newQuadNode(Rect{X: n.bounds.X, Y: n.bounds.Y, Width: halfW, Height: halfH}, depth),
		newQuadNode(Rect{X: n.bounds.X + halfW, Y: n.bounds.Y, Width: halfW, Height: halfH}, depth),
		newQuadNode(Rect{X: n.bounds.X, Y: n.bounds.Y + halfH, Width: halfW, Height: halfH}, depth),
		newQuadNode(Rect{X: n.bounds.X + halfW, Y: n.bounds.Y + halfH, Width: halfW, Height: halfH}, depth),
	}

	for id, b := range n.objects {
		if child := n.childContaining(b); child != nil {
			delete(n.objects, id)
			child.objects[id] = b
			s.nodes[id] = child
		}
	}
}

// childContaining returns the single child quadrant whose bounds fully
// contain b, or nil if b straddles a split (or the node is a leaf).
func (n *quadNode) childContaining(b Rect) *quadNode {
	if n.children == nil {
		return nil
	}
	for _, child := range n.children {
		if child.bounds.ContainsRect(b) {
			return child
		}
	}
	return nil
}

func (n *quadNode) query(rect Rect, out *[]string) {
	for id, b := range n.objects {
		if b.Intersects(rect) {
			*out = append(*out, id)
		}
	}
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		if child.bounds.Intersects(rect) {
			child.query(rect, out)
		}
	}
}
