package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks what each connected user is doing on a board:
// cursor position, camera view and selection. Entries are keyed by user id.
// The manager stores and hands out copies, and it stamps the display name
// server-side, so neither callers nor clients can mutate or spoof another
// user's presence.
type PresenceManager struct {
	mu      sync.RWMutex
	entries map[string]PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		entries: make(map[string]PresencePayload),
	}
}

// Update records a user's presence and returns the stored copy with the
// authoritative display name applied, ready for broadcast.
func (pm *PresenceManager) Update(userID, displayName string, p *PresencePayload) *PresencePayload {
	entry := *p
	entry.DisplayName = displayName

	pm.mu.Lock()
	pm.entries[userID] = entry
	pm.mu.Unlock()

	return &entry
}

// Remove drops a user's presence when their last connection leaves.
func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.entries, userID)
}

// GetAll returns a copy of every user's current presence.
func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.entries))
	for id, entry := range pm.entries {
		e := entry
		result[id] = &e
	}
	return result
}

// StateMessage builds the full presence snapshot sent to a client on join,
// or nil for an empty room.
func (pm *PresenceManager) StateMessage() *Message {
	all := pm.GetAll()
	if len(all) == 0 {
		return nil
	}

	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
