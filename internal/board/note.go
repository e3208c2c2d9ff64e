package board

import (
	"time"

	"github.com/notefield/notefield/backend-go/internal/engine"
)

// Note is an informational object placed on a board's plane. Its bounds feed
// the spatial index; content and metadata are opaque to the engine.
type Note struct {
	ID       string            `json:"id"`
	BoardID  string            `json:"boardId"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bounds derives the note's world-space bounds for the spatial index.
func (n *Note) Bounds() engine.Rect {
	return engine.Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// NoteState is the presentation state of a note. It lives in the entity
// layer; the spatial engine only ever sees bounds changes and is indifferent
// to it.
type NoteState int

const (
	// StateIdle is the resting state.
	StateIdle NoteState = iota
	// StateFocused means the note is selected.
	StateFocused
	// StateDragged means the note is being moved; every pointer move updates
	// the spatial index, and the release schedules a debounced save.
	StateDragged
)

func (s NoteState) String() string {
	switch s {
	case StateFocused:
		return "focused"
	case StateDragged:
		return "dragged"
	default:
		return "idle"
	}
}

// validTransitions is the explicit presentation state machine:
// Idle→Focused (select), Focused→Dragged (begin drag), Dragged→Idle
// (release), plus Focused→Idle (deselect).
var validTransitions = map[NoteState][]NoteState{
	StateIdle:    {StateFocused},
	StateFocused: {StateDragged, StateIdle},
	StateDragged: {StateIdle},
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s NoteState) CanTransition(next NoteState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
