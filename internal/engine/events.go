package engine

// Change notifications emitted by the engine. Each is a one-way signal with
// no return value, delivered synchronously within the same tick as the
// mutation that caused it. Listeners are injected at construction instead of
// going through a global bus, so a test harness can intercept every signal.

// ObjectInserted is emitted after an object enters the index.
type ObjectInserted struct {
	ID     string `json:"id"`
	Bounds Rect   `json:"bounds"`
}

// ObjectUpdated is emitted after an object's bounds change.
type ObjectUpdated struct {
	ID        string `json:"id"`
	OldBounds Rect   `json:"oldBounds"`
	NewBounds Rect   `json:"newBounds"`
}

// ObjectRemoved is emitted after an object leaves the index.
type ObjectRemoved struct {
	ID string `json:"id"`
}

// Listeners bundles the notification callbacks a collaborator subscribes to.
// Any field may be nil. Camera changes are delivered through the camera's own
// onChange callback wired by New.
type Listeners struct {
	ObjectInserted func(ObjectInserted)
	ObjectUpdated  func(ObjectUpdated)
	ObjectRemoved  func(ObjectRemoved)
	CameraChanged  func(CameraState)
}

func (l Listeners) emitInserted(ev ObjectInserted) {
	if l.ObjectInserted != nil {
		l.ObjectInserted(ev)
	}
}

func (l Listeners) emitUpdated(ev ObjectUpdated) {
	if l.ObjectUpdated != nil {
		l.ObjectUpdated(ev)
	}
}

func (l Listeners) emitRemoved(ev ObjectRemoved) {
	if l.ObjectRemoved != nil {
		l.ObjectRemoved(ev)
	}
}
