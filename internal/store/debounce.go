package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/notefield/notefield/backend-go/internal/board"
)

// DebouncedSaver coalesces save intents on a trailing-edge timer: a note is
// written once, a fixed delay after the last request for it. Drag releases
// and rapid content edits therefore cost one write each, not one per event.
// Saves are fire-and-forget — the engine never waits on them, and a failed
// save is logged without touching in-memory state.
type DebouncedSaver struct {
	mu      sync.Mutex
	delay   time.Duration
	save    func(ctx context.Context, note *board.Note) error
	pending map[string]*pendingSave
	wg      sync.WaitGroup
	closed  bool
}

type pendingSave struct {
	note     *board.Note
	deadline time.Time
}

// NewDebouncedSaver creates a saver with the given trailing delay.
func NewDebouncedSaver(delay time.Duration, save func(ctx context.Context, note *board.Note) error) *DebouncedSaver {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &DebouncedSaver{
		delay:   delay,
		save:    save,
		pending: make(map[string]*pendingSave),
	}
}

// Request schedules a save for the note. A request for an already-pending id
// replaces the payload and pushes the deadline back out.
func (d *DebouncedSaver) Request(note *board.Note) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	deadline := time.Now().Add(d.delay)
	if p, ok := d.pending[note.ID]; ok {
		p.note = note
		p.deadline = deadline
		return
	}

	d.pending[note.ID] = &pendingSave{note: note, deadline: deadline}
	d.wg.Add(1)
	id := note.ID
	time.AfterFunc(d.delay, func() { d.fire(id) })
}

// Cancel drops any pending save for the id (used when the note is deleted
// before the timer fires).
func (d *DebouncedSaver) Cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[id]; ok {
		delete(d.pending, id)
		d.wg.Done()
	}
}

// Flush writes all pending notes immediately. Called on shutdown.
func (d *DebouncedSaver) Flush() {
	d.mu.Lock()
	var notes []*board.Note
	for id, p := range d.pending {
		notes = append(notes, p.note)
		delete(d.pending, id)
	}
	d.mu.Unlock()

	for _, note := range notes {
		d.write(note)
		d.wg.Done()
	}
	d.wg.Wait()
}

// Close flushes and rejects further requests.
func (d *DebouncedSaver) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Flush()
}

// fire runs when a timer elapses. If the deadline moved (the note was
// requested again since), it re-arms instead of writing; the entry is only
// consumed once its trailing edge is quiet.
func (d *DebouncedSaver) fire(id string) {
	d.mu.Lock()
	p, ok := d.pending[id]
	if !ok {
		// Canceled or flushed in the meantime.
		d.mu.Unlock()
		return
	}
	if wait := time.Until(p.deadline); wait > 0 {
		d.mu.Unlock()
		time.AfterFunc(wait, func() { d.fire(id) })
		return
	}
	delete(d.pending, id)
	note := p.note
	d.mu.Unlock()

	d.write(note)
	d.wg.Done()
}

func (d *DebouncedSaver) write(note *board.Note) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.save(ctx, note); err != nil {
		slog.Error("debounced save failed", "note", note.ID, "error", err)
	}
}
