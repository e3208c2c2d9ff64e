package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
	maxMessageLen = 64 * 1024
	sendBuffer    = 256
)

// Client is one websocket connection bound to a board room. The hub never
// touches the connection or the send channel directly: outbound messages go
// through Send, and teardown goes through shutdown, which unblocks WritePump.
// The send channel is never closed, so a broadcast racing with teardown drops
// its message instead of panicking.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once

	UserID      string
	DisplayName string
	BoardID     string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, boardID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
		UserID:      userID,
		DisplayName: displayName,
		BoardID:     boardID,
		ClientID:    clientID,
	}
}

// shutdown signals both pumps to stop. Idempotent.
func (c *Client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageLen)

	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "user", c.UserID)
			}
			return
		}
		if msg == nil {
			// Unparseable frame, already logged.
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) readMessage(ctx context.Context) (*Message, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "error", err, "user", c.UserID)
		return nil, nil
	}

	// Identity fields come from the connection, never from the wire.
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.BoardID = c.BoardID
	return &msg, nil
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}
		case <-ticker.C:
			if err := c.ping(ctx); err != nil {
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Client) ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Ping(pingCtx)
}

// Send queues a message for WritePump. It never blocks: messages for a
// departed client or a full buffer are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

// SendError sends an error message to this client only.
func (c *Client) SendError(reason string) {
	payload, _ := json.Marshal(ErrorPayload{Reason: reason})
	c.Send(&Message{Type: TypeError, Payload: payload})
}
