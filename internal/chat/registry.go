package chat

import "sync"

// Registry tracks which locally-connected sessions occupy which room.
// It knows nothing about other processes; remote members become visible
// only through backplane events relayed to whoever is registered here.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Session
	byID  map[string]string // sessionID -> room, for O(1) removal
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Session),
		byID:  make(map[string]string),
	}
}

// Join moves a session into room and returns the room it previously
// occupied ("" if none). Joining the room it is already in is a no-op.
// A session is never registered under two rooms at once.
func (r *Registry) Join(s *Session, room string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev = r.byID[s.ID]
	if prev == room {
		return prev
	}
	if prev != "" {
		r.removeLocked(s.ID, prev)
	}

	members := r.rooms[room]
	if members == nil {
		members = make(map[string]*Session)
		r.rooms[room] = members
	}
	members[s.ID] = s
	r.byID[s.ID] = room
	return prev
}

// Remove takes the session out of whatever room it occupies and returns
// that room ("" if it never joined one).
func (r *Registry) Remove(sessionID string) (room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room = r.byID[sessionID]
	if room != "" {
		r.removeLocked(sessionID, room)
	}
	return room
}

func (r *Registry) removeLocked(sessionID, room string) {
	delete(r.byID, sessionID)
	if members, ok := r.rooms[room]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Room reports the room the session currently occupies.
func (r *Registry) Room(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byID[sessionID]
	return room, ok && room != ""
}

// Count returns the number of local sessions in a room.
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Broadcast delivers payload to every local member of room except
// excludeID. Delivery happens under the read lock so a session can never
// receive a frame after Remove returned for it; the non-blocking Send
// keeps the critical section short.
func (r *Registry) Broadcast(room, excludeID string, payload []byte) (delivered int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, s := range r.rooms[room] {
		if id == excludeID {
			continue
		}
		if s.Send(payload) {
			delivered++
		}
	}
	return delivered
}
