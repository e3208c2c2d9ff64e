package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/notefield/notefield/backend-go/internal/board"
)

// ManagerFactory builds (or loads) the board manager for a room the first
// time someone joins it.
type ManagerFactory func(ctx context.Context, boardID string) (*board.Manager, error)

type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	manager  *board.Manager
}

func NewRoom(boardID string, manager *board.Manager) *Room {
	return &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		manager:  manager,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // boardID -> room
	newManager ManagerFactory
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
}

func NewHub(newManager ManagerFactory) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		newManager: newManager,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			return
		}
	}
}

// Stop terminates the run loop. Pending saves are flushed by the saver the
// hub's managers share, owned by the caller.
func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		manager, err := h.newManager(context.Background(), client.BoardID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load board for room", "board", client.BoardID, "error", err)
			client.SendError("board unavailable")
			return
		}
		room = NewRoom(client.BoardID, manager)
		h.rooms[client.BoardID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// Full note set first, then current presence, so the client renders
	// before the first delta arrives.
	syncPayload, err := json.Marshal(BoardSyncPayload{Notes: room.manager.Notes()})
	if err == nil {
		client.Send(&Message{Type: TypeBoardSync, BoardID: client.BoardID, Payload: syncPayload})
	}

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.BoardID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.shutdown()
	room.presence.Remove(client.UserID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.BoardID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypeNoteCreate, TypeNoteMove, TypeNoteUpdate, TypeNoteDelete:
		out, err := room.Apply(msg)
		if err != nil {
			slog.Warn("note operation rejected", "type", msg.Type, "user", sender.UserID, "error", err)
			sender.SendError(err.Error())
			return
		}
		if out != nil {
			h.broadcastToRoom(sender.BoardID, out, sender.ClientID)
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	stamped := room.presence.Update(sender.UserID, sender.DisplayName, &presence)

	outPayload, _ := json.Marshal(stamped)
	h.broadcastToRoom(sender.BoardID, &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// Apply runs a note operation against the room's board manager and returns
// the message to broadcast to the other clients, or nil for silent drops.
func (r *Room) Apply(msg *Message) (*Message, error) {
	switch msg.Type {
	case TypeNoteCreate:
		var p NoteCreatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid note.create payload")
		}
		note, err := r.manager.CreateNote(p.X, p.Y, p.Width, p.Height, p.Content, p.Metadata)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(NoteCreatedPayload{Note: note})
		if err != nil {
			return nil, err
		}
		return &Message{Type: TypeNoteCreate, BoardID: r.boardID, UserID: msg.UserID, Payload: out}, nil

	case TypeNoteMove:
		var p NoteMovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid note.move payload")
		}
		if err := r.applyMove(p); err != nil {
			return nil, err
		}
		return &Message{Type: TypeNoteMove, BoardID: r.boardID, UserID: msg.UserID, Payload: msg.Payload}, nil

	case TypeNoteUpdate:
		var p NoteUpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid note.update payload")
		}
		if err := r.manager.UpdateContent(p.NoteID, p.Content); err != nil {
			return nil, err
		}
		return &Message{Type: TypeNoteUpdate, BoardID: r.boardID, UserID: msg.UserID, Payload: msg.Payload}, nil

	case TypeNoteDelete:
		var p NoteDeletePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid note.delete payload")
		}
		if err := r.manager.DeleteNote(context.Background(), p.NoteID); err != nil {
			return nil, err
		}
		return &Message{Type: TypeNoteDelete, BoardID: r.boardID, UserID: msg.UserID, Payload: msg.Payload}, nil
	}

	return nil, errors.New("unsupported operation")
}

// applyMove drives the drag lifecycle: start focuses and begins the drag,
// moves reposition, end repositions and releases (triggering the debounced
// save in the entity layer).
func (r *Room) applyMove(p NoteMovePayload) error {
	switch p.Phase {
	case PhaseStart:
		if err := r.manager.SetState(p.NoteID, board.StateFocused); err != nil && !errors.Is(err, board.ErrInvalidTransition) {
			return err
		}
		if err := r.manager.SetState(p.NoteID, board.StateDragged); err != nil {
			return err
		}
		return r.manager.MoveNote(p.NoteID, p.X, p.Y)

	case PhaseMove:
		return r.manager.MoveNote(p.NoteID, p.X, p.Y)

	case PhaseEnd:
		if err := r.manager.MoveNote(p.NoteID, p.X, p.Y); err != nil {
			return err
		}
		return r.manager.SetState(p.NoteID, board.StateIdle)

	default:
		return errors.New("invalid drag phase")
	}
}
