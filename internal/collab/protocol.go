package collab

import (
	"encoding/json"

	"github.com/notefield/notefield/backend-go/internal/board"
	"github.com/notefield/notefield/backend-go/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome   = "welcome"
	TypeBoardSync = "board.sync"

	// Note operations
	TypeNoteCreate = "note.create"
	TypeNoteMove   = "note.move"
	TypeNoteUpdate = "note.update"
	TypeNoteDelete = "note.delete"
)

// Drag phases carried by note.move messages.
const (
	PhaseStart = "start"
	PhaseMove  = "move"
	PhaseEnd   = "end"
)

type PresencePayload struct {
	Cursor      *CursorPos          `json:"cursor,omitempty"`
	Camera      *engine.CameraState `json:"camera,omitempty"`
	Selection   []string            `json:"selection,omitempty"`
	DisplayName string              `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// BoardSyncPayload carries the full note set sent to a client on join.
type BoardSyncPayload struct {
	Notes []*board.Note `json:"notes"`
}

// NoteCreatePayload asks the server to place a new note. The broadcast echo
// carries the created note with its server-assigned id.
type NoteCreatePayload struct {
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type NoteCreatedPayload struct {
	Note *board.Note `json:"note"`
}

// NoteMovePayload carries one pointer-move step of a drag. Phase "start"
// begins the drag, "move" repositions, "end" releases (which schedules the
// debounced save server-side).
type NoteMovePayload struct {
	NoteID string  `json:"noteId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Phase  string  `json:"phase"`
}

type NoteUpdatePayload struct {
	NoteID  string `json:"noteId"`
	Content string `json:"content"`
}

type NoteDeletePayload struct {
	NoteID string `json:"noteId"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}
