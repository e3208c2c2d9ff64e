package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notefield/notefield/backend-go/internal/engine"
	"github.com/notefield/notefield/backend-go/internal/typeid"
)

var (
	ErrNoteNotFound      = errors.New("note not found")
	ErrInvalidTransition = errors.New("invalid note state transition")
)

// Store is the persistence contract the manager consumes. All operations are
// asynchronous from the engine's point of view: the manager never saves on
// the synchronous mutation path, only through the Saver.
type Store interface {
	SaveNote(ctx context.Context, note *Note) error
	LoadNotes(ctx context.Context, boardID string) ([]*Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Saver schedules debounced, fire-and-forget save intents. Repeated requests
// for the same note coalesce into one write.
type Saver interface {
	Request(note *Note)
	Cancel(id string)
}

// Manager owns the notes of a single board: the note records, their
// presentation state machine, and their registration with the spatial
// engine. A mutex serializes access because the collab hub drives it from
// connection goroutines while the engine core itself is lock-free.
type Manager struct {
	mu      sync.RWMutex
	boardID string
	eng     *engine.Engine
	store   Store
	saver   Saver
	notes   map[string]*Note
	states  map[string]NoteState
}

// NewManager creates a manager for one board around an engine instance.
func NewManager(boardID string, eng *engine.Engine, store Store, saver Saver) *Manager {
	return &Manager{
		boardID: boardID,
		eng:     eng,
		store:   store,
		saver:   saver,
		notes:   make(map[string]*Note),
		states:  make(map[string]NoteState),
	}
}

// BoardID returns the board this manager owns.
func (m *Manager) BoardID() string {
	return m.boardID
}

// Engine returns the spatial engine behind this board.
func (m *Manager) Engine() *engine.Engine {
	return m.eng
}

// Load replaces the in-memory state with the board's persisted notes.
func (m *Manager) Load(ctx context.Context) error {
	notes, err := m.store.LoadNotes(ctx, m.boardID)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.eng.Clear()
	m.notes = make(map[string]*Note, len(notes))
	m.states = make(map[string]NoteState, len(notes))

	for _, n := range notes {
		if err := m.eng.InsertObject(engine.SpatialObject{ID: n.ID, Bounds: n.Bounds()}); err != nil {
			return fmt.Errorf("index note %s: %w", n.ID, err)
		}
		m.notes[n.ID] = n
		m.states[n.ID] = StateIdle
	}

	return nil
}

// CreateNote places a new note on the board and schedules its first save.
func (m *Manager) CreateNote(x, y, width, height float64, content string, metadata map[string]string) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        typeid.NewNoteID(),
		BoardID:   m.boardID,
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.eng.InsertObject(engine.SpatialObject{ID: note.ID, Bounds: note.Bounds()}); err != nil {
		return nil, err
	}
	m.notes[note.ID] = note
	m.states[note.ID] = StateIdle

	m.saver.Request(note.clone())
	return note.clone(), nil
}

// AddNote registers an existing note (for example one received from a
// collaborator) without generating a new id.
func (m *Manager) AddNote(note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.eng.InsertObject(engine.SpatialObject{ID: note.ID, Bounds: note.Bounds()}); err != nil {
		return err
	}
	m.notes[note.ID] = note.clone()
	m.states[note.ID] = StateIdle

	m.saver.Request(note.clone())
	return nil
}

// MoveNote repositions a note. Called once per pointer-move event during a
// drag; it only touches the index, never the store — persistence happens on
// release.
func (m *Manager) MoveNote(id string, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok {
		return ErrNoteNotFound
	}

	note.X = x
	note.Y = y
	note.UpdatedAt = time.Now().UTC()

	return m.eng.UpdateObject(engine.SpatialObject{ID: id, Bounds: note.Bounds()})
}

// UpdateContent rewrites a note's content and schedules a save.
func (m *Manager) UpdateContent(id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok {
		return ErrNoteNotFound
	}

	note.Content = content
	note.UpdatedAt = time.Now().UTC()
	m.saver.Request(note.clone())
	return nil
}

// SetState drives the presentation state machine. Illegal transitions are
// rejected. A release (Dragged→Idle) schedules the debounced save of the
// final position.
func (m *Manager) SetState(id string, next NoteState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok {
		return ErrNoteNotFound
	}

	current := m.states[id]
	if !current.CanTransition(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, next)
	}

	m.states[id] = next
	if current == StateDragged && next == StateIdle {
		m.saver.Request(note.clone())
	}
	return nil
}

// State returns a note's presentation state.
func (m *Manager) State(id string) (NoteState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.notes[id]; !ok {
		return StateIdle, ErrNoteNotFound
	}
	return m.states[id], nil
}

// DeleteNote removes a note from the board and the store.
func (m *Manager) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return ErrNoteNotFound
	}

	if err := m.eng.RemoveObject(id); err != nil {
		return err
	}
	delete(m.notes, id)
	delete(m.states, id)
	m.saver.Cancel(id)

	if err := m.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Note returns a copy of a note by id.
func (m *Manager) Note(id string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note, ok := m.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	return note.clone(), nil
}

// Notes returns copies of all notes on the board.
func (m *Manager) Notes() []*Note {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n.clone())
	}
	return out
}

// VisibleNotes returns the notes visible through a collaborator's camera.
func (m *Manager) VisibleNotes(cam engine.CameraState, viewport engine.Size) []*Note {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.eng.VisibleFor(cam, viewport)
	out := make([]*Note, 0, len(ids))
	for _, id := range ids {
		if n, ok := m.notes[id]; ok {
			out = append(out, n.clone())
		}
	}
	return out
}

func (n *Note) clone() *Note {
	c := *n
	if n.Metadata != nil {
		c.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
