package collab

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefield/notefield/backend-go/internal/board"
	"github.com/notefield/notefield/backend-go/internal/engine"
	"github.com/notefield/notefield/backend-go/internal/store"
)

// writeThroughSaver persists immediately instead of debouncing, so tests can
// assert against store contents without sleeping.
type writeThroughSaver struct {
	store    *store.MemoryStore
	requests int
}

func (s *writeThroughSaver) Request(n *board.Note) {
	s.requests++
	s.store.SaveNote(context.Background(), n)
}

func (s *writeThroughSaver) Cancel(string) {}

func newTestRoom(t *testing.T) (*Room, *board.Manager, *writeThroughSaver) {
	t.Helper()

	eng := engine.New(engine.Config{}, engine.Size{Width: 800, Height: 600}, engine.Listeners{})
	mem := store.NewMemoryStore()
	saver := &writeThroughSaver{store: mem}
	manager := board.NewManager("board_test", eng, mem, saver)
	return NewRoom("board_test", manager), manager, saver
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRoomApplyCreate(t *testing.T) {
	room, manager, _ := newTestRoom(t)

	msg := &Message{
		Type:    TypeNoteCreate,
		UserID:  "user_a",
		Payload: mustMarshal(t, NoteCreatePayload{X: 100, Y: 200, Width: 160, Height: 120, Content: "hello"}),
	}

	out, err := room.Apply(msg)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, TypeNoteCreate, out.Type)
	assert.Equal(t, "user_a", out.UserID)

	var created NoteCreatedPayload
	require.NoError(t, json.Unmarshal(out.Payload, &created))
	require.NotNil(t, created.Note)
	assert.NotEmpty(t, created.Note.ID)
	assert.Equal(t, 100.0, created.Note.X)
	assert.Equal(t, "hello", created.Note.Content)

	got, err := manager.Note(created.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, "board_test", got.BoardID)
}

func TestRoomApplyMovePhases(t *testing.T) {
	room, manager, saver := newTestRoom(t)

	note, err := manager.CreateNote(0, 0, 100, 80, "drag me", nil)
	require.NoError(t, err)
	savesBefore := saver.requests

	start := &Message{Type: TypeNoteMove, Payload: mustMarshal(t, NoteMovePayload{NoteID: note.ID, X: 10, Y: 10, Phase: PhaseStart})}
	_, err = room.Apply(start)
	require.NoError(t, err)

	st, err := manager.State(note.ID)
	require.NoError(t, err)
	assert.Equal(t, board.StateDragged, st)

	for i := 1; i <= 50; i++ {
		move := &Message{Type: TypeNoteMove, Payload: mustMarshal(t, NoteMovePayload{NoteID: note.ID, X: float64(i * 10), Y: 10, Phase: PhaseMove})}
		_, err = room.Apply(move)
		require.NoError(t, err)
	}

	// Pointer moves alone never persist.
	assert.Equal(t, savesBefore, saver.requests)

	end := &Message{Type: TypeNoteMove, Payload: mustMarshal(t, NoteMovePayload{NoteID: note.ID, X: 500, Y: 10, Phase: PhaseEnd})}
	_, err = room.Apply(end)
	require.NoError(t, err)

	st, err = manager.State(note.ID)
	require.NoError(t, err)
	assert.Equal(t, board.StateIdle, st)
	assert.Equal(t, savesBefore+1, saver.requests)

	got, err := manager.Note(note.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.X)
}

func TestRoomApplyUpdateContent(t *testing.T) {
	room, manager, _ := newTestRoom(t)

	note, err := manager.CreateNote(0, 0, 100, 80, "before", nil)
	require.NoError(t, err)

	msg := &Message{Type: TypeNoteUpdate, Payload: mustMarshal(t, NoteUpdatePayload{NoteID: note.ID, Content: "after"})}
	out, err := room.Apply(msg)
	require.NoError(t, err)
	assert.Equal(t, TypeNoteUpdate, out.Type)

	got, err := manager.Note(note.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
}

func TestRoomApplyDelete(t *testing.T) {
	room, manager, _ := newTestRoom(t)

	note, err := manager.CreateNote(0, 0, 100, 80, "doomed", nil)
	require.NoError(t, err)

	msg := &Message{Type: TypeNoteDelete, Payload: mustMarshal(t, NoteDeletePayload{NoteID: note.ID})}
	out, err := room.Apply(msg)
	require.NoError(t, err)
	assert.Equal(t, TypeNoteDelete, out.Type)

	_, err = manager.Note(note.ID)
	assert.ErrorIs(t, err, board.ErrNoteNotFound)
}

func TestRoomApplyUnknownNote(t *testing.T) {
	room, _, _ := newTestRoom(t)

	msg := &Message{Type: TypeNoteMove, Payload: mustMarshal(t, NoteMovePayload{NoteID: "note_missing", X: 1, Y: 1, Phase: PhaseMove})}
	_, err := room.Apply(msg)
	assert.ErrorIs(t, err, board.ErrNoteNotFound)
}

func TestRoomApplyInvalidPayload(t *testing.T) {
	room, _, _ := newTestRoom(t)

	msg := &Message{Type: TypeNoteCreate, Payload: json.RawMessage(`{not json`)}
	_, err := room.Apply(msg)
	assert.Error(t, err)
}

func TestRoomApplyInvalidPhase(t *testing.T) {
	room, manager, _ := newTestRoom(t)

	note, err := manager.CreateNote(0, 0, 100, 80, "", nil)
	require.NoError(t, err)

	msg := &Message{Type: TypeNoteMove, Payload: mustMarshal(t, NoteMovePayload{NoteID: note.ID, X: 1, Y: 1, Phase: "wiggle"})}
	_, err = room.Apply(msg)
	assert.Error(t, err)
}

func TestPresenceManager(t *testing.T) {
	pm := NewPresenceManager()
	assert.Nil(t, pm.StateMessage())

	pm.Update("user_a", "Ada", &PresencePayload{Cursor: &CursorPos{X: 5, Y: 6}})
	pm.Update("user_b", "Bea", &PresencePayload{Camera: &engine.CameraState{X: 1, Y: 2, Scale: 2}})

	all := pm.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, 5.0, all["user_a"].Cursor.X)

	msg := pm.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Len(t, state.Presences, 2)

	pm.Remove("user_a")
	assert.Len(t, pm.GetAll(), 1)
}

func TestPresenceUpdateStampsDisplayName(t *testing.T) {
	pm := NewPresenceManager()

	// The wire payload's name is ignored: the connection's authenticated
	// display name wins.
	stamped := pm.Update("user_a", "Ada", &PresencePayload{DisplayName: "Impostor"})
	assert.Equal(t, "Ada", stamped.DisplayName)
	assert.Equal(t, "Ada", pm.GetAll()["user_a"].DisplayName)
}

func TestPresenceGetAllReturnsCopies(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_a", "Ada", &PresencePayload{Selection: []string{"note_1"}})

	pm.GetAll()["user_a"].DisplayName = "mutated"
	assert.Equal(t, "Ada", pm.GetAll()["user_a"].DisplayName)
}

func TestSendAfterClientRemoved(t *testing.T) {
	h := NewHub(func(_ context.Context, boardID string) (*board.Manager, error) {
		eng := engine.New(engine.Config{}, engine.Size{Width: 800, Height: 600}, engine.Listeners{})
		mem := store.NewMemoryStore()
		return board.NewManager(boardID, eng, mem, &writeThroughSaver{store: mem}), nil
	})

	c := NewClient(h, nil, "user_a", "Ada", "board_test", "client_1")
	h.addClient(c)
	h.removeClient(c)

	// A broadcast racing with teardown must drop messages, not panic on a
	// closed channel.
	assert.NotPanics(t, func() {
		c.Send(&Message{Type: TypeWelcome})
		h.broadcastToRoom("board_test", &Message{Type: TypePresenceUpdate}, "")
	})
}

func TestClientShutdownIdempotent(t *testing.T) {
	c := NewClient(nil, nil, "user_a", "Ada", "board_test", "client_1")
	assert.NotPanics(t, func() {
		c.shutdown()
		c.shutdown()
		c.Send(&Message{Type: TypeWelcome})
	})
}
