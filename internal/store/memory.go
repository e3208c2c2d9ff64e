package store

import (
	"context"
	"sort"
	"sync"

	"github.com/notefield/notefield/backend-go/internal/board"
)

// MemoryStore keeps notes in memory. It backs the anonymous playground board
// and the test suites; it implements the same contract as PGStore's note
// methods.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*board.Note
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]*board.Note)}
}

func (s *MemoryStore) SaveNote(_ context.Context, note *board.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *note
	s.notes[note.ID] = &c
	return nil
}

func (s *MemoryStore) GetNote(_ context.Context, id string) (*board.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	note, ok := s.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *note
	return &c, nil
}

func (s *MemoryStore) LoadNotes(_ context.Context, boardID string) ([]*board.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []*board.Note
	for _, n := range s.notes {
		if n.BoardID == boardID {
			c := *n
			notes = append(notes, &c)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.Before(notes[j].CreatedAt) })
	return notes, nil
}

func (s *MemoryStore) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// Len returns the number of stored notes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
