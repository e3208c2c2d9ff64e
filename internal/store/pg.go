package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notefield/notefield/backend-go/internal/board"
)

// ErrEmailTaken is returned by CreateUser when the email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

// PGStore persists boards, notes and users in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// --- Notes ---

// SaveNote upserts a note record.
func (s *PGStore) SaveNote(ctx context.Context, note *board.Note) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, board_id, x, y, width, height, content, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		note.ID, note.BoardID, note.X, note.Y, note.Width, note.Height,
		note.Content, note.Metadata, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

// GetNote loads a single note by id.
func (s *PGStore) GetNote(ctx context.Context, id string) (*board.Note, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, board_id, x, y, width, height, content, metadata, created_at, updated_at
		FROM notes WHERE id = $1`, id)

	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// LoadNotes loads all notes on a board.
func (s *PGStore) LoadNotes(ctx context.Context, boardID string) ([]*board.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, board_id, x, y, width, height, content, metadata, created_at, updated_at
		FROM notes WHERE board_id = $1 ORDER BY created_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	defer rows.Close()

	var notes []*board.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// DeleteNote removes a note record.
func (s *PGStore) DeleteNote(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Boards ---

func (s *PGStore) CreateBoard(ctx context.Context, id, name, ownerID string) (*Board, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO boards (id, name, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, owner_id, created_at, updated_at`,
		id, name, ownerID)

	b, err := scanBoard(row)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return b, nil
}

func (s *PGStore) GetBoard(ctx context.Context, id string) (*Board, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM boards WHERE id = $1`, id)

	b, err := scanBoard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

func (s *PGStore) ListBoardsForUser(ctx context.Context, ownerID string) ([]*Board, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM boards WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	var boards []*Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (s *PGStore) DeleteBoard(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

func (s *PGStore) CreateUser(ctx context.Context, id, email, passwordHash, displayName string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password, display_name`,
		id, email, passwordHash, displayName)

	u, err := scanUser(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PGStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name FROM users WHERE email = $1`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PGStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password, display_name FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// --- scanning ---

func scanNote(row pgx.Row) (*board.Note, error) {
	var n board.Note
	err := row.Scan(&n.ID, &n.BoardID, &n.X, &n.Y, &n.Width, &n.Height,
		&n.Content, &n.Metadata, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanBoard(row pgx.Row) (*Board, error) {
	var b Board
	if err := row.Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName); err != nil {
		return nil, err
	}
	return &u, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
