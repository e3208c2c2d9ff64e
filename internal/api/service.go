package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/notefield/notefield/backend-go/internal/board"
	"github.com/notefield/notefield/backend-go/internal/store"
	"github.com/notefield/notefield/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("board not found")
	ErrForbidden = errors.New("forbidden")
)

// BoardStore is the slice of the store the boards API needs. *store.PGStore
// satisfies it.
type BoardStore interface {
	CreateBoard(ctx context.Context, id, name, ownerID string) (*store.Board, error)
	GetBoard(ctx context.Context, id string) (*store.Board, error)
	ListBoardsForUser(ctx context.Context, ownerID string) ([]*store.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	LoadNotes(ctx context.Context, boardID string) ([]*board.Note, error)
}

type Service struct {
	store BoardStore
}

func NewService(st BoardStore) *Service {
	return &Service{store: st}
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*store.Board, error) {
	b, err := s.store.CreateBoard(ctx, typeid.NewBoardID(), name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, boardID, userID string) (*store.Board, error) {
	b, err := s.boardOwnedBy(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*store.Board, error) {
	boards, err := s.store.ListBoardsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *Service) Delete(ctx context.Context, boardID, userID string) error {
	if _, err := s.boardOwnedBy(ctx, boardID, userID); err != nil {
		return err
	}
	return s.store.DeleteBoard(ctx, boardID)
}

// Notes returns the persisted notes of a board. Live positions mid-drag may
// be ahead of this snapshot; the websocket stream is the source of truth for
// connected clients.
func (s *Service) Notes(ctx context.Context, boardID, userID string) ([]*board.Note, error) {
	if _, err := s.boardOwnedBy(ctx, boardID, userID); err != nil {
		return nil, err
	}

	notes, err := s.store.LoadNotes(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	if notes == nil {
		notes = []*board.Note{}
	}
	return notes, nil
}

func (s *Service) boardOwnedBy(ctx context.Context, boardID, userID string) (*store.Board, error) {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	if b.OwnerID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}
