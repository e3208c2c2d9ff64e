package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notefield/notefield/backend-go/internal/auth"
	"github.com/notefield/notefield/backend-go/internal/board"
	"github.com/notefield/notefield/backend-go/internal/typeid"
)

// Snapshot is a portable, self-contained copy of a board and its notes, used
// for backups and board duplication on the client.
type Snapshot struct {
	ID         string        `json:"id"`
	BoardID    string        `json:"boardId"`
	Name       string        `json:"name"`
	ExportedAt time.Time     `json:"exportedAt"`
	Notes      []*board.Note `json:"notes"`
}

// Export assembles a snapshot of the board's persisted state.
func (s *Service) Export(ctx context.Context, boardID, userID string) (*Snapshot, error) {
	b, err := s.boardOwnedBy(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}

	notes, err := s.store.LoadNotes(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*board.Note{}
	}

	return &Snapshot{
		ID:         typeid.NewSnapshotID(),
		BoardID:    b.ID,
		Name:       b.Name,
		ExportedAt: time.Now().UTC(),
		Notes:      notes,
	}, nil
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	snap, err := h.service.Export(r.Context(), boardID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
