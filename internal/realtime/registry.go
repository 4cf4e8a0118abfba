package realtime

import "sync"

// Sender delivers one named event to a single connection. Implemented by the
// transport layer; a send on a torn-down connection returns an error.
type Sender interface {
	Send(event string, payload any) error
}

type connection struct {
	identity Identity
	sender   Sender
	rooms    map[string]struct{}
}

// Registry is the authoritative bidirectional index of live connections,
// their rooms and their users. All mutations update the forward index
// (connection→rooms) and the reverse index (room→connections) under one
// lock, so readers never observe the two out of sync. The lock is never
// held across network I/O; fan-out takes a snapshot and sends outside it.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
	rooms map[string]map[string]struct{}
	users map[string]map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connection),
		rooms: make(map[string]map[string]struct{}),
		users: make(map[string]map[string]struct{}),
	}
}

// Register creates the connection record. Authenticated connections are
// added to their user's presence set and auto-join their private user room.
// connID must be fresh; ids are never reused.
func (r *Registry) Register(connID string, identity Identity, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := &connection{
		identity: identity,
		sender:   sender,
		rooms:    make(map[string]struct{}),
	}
	r.conns[connID] = conn

	if identity.Anonymous() {
		return
	}
	set := r.users[identity.UserID]
	if set == nil {
		set = make(map[string]struct{})
		r.users[identity.UserID] = set
	}
	set[connID] = struct{}{}
	r.joinLocked(connID, conn, UserRoom(identity.UserID))
}

// Unregister removes the connection from every room and from its user's
// presence set, deleting the user entry when its last connection closes.
// Returns the rooms the connection was in so the router can emit leave
// notifications. Unknown ids are a no-op, defending against double
// disconnect.
func (r *Registry) Unregister(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil
	}

	vacated := make([]string, 0, len(conn.rooms))
	for roomID := range conn.rooms {
		vacated = append(vacated, roomID)
		r.leaveLocked(connID, conn, roomID)
	}

	if !conn.identity.Anonymous() {
		if set := r.users[conn.identity.UserID]; set != nil {
			delete(set, connID)
			if len(set) == 0 {
				delete(r.users, conn.identity.UserID)
			}
		}
	}

	delete(r.conns, connID)
	return vacated
}

// Join adds the connection to a room. Idempotent; re-joining is a no-op.
// Returns false if the connection is unknown or already a member.
func (r *Registry) Join(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return false
	}
	if _, joined := conn.rooms[roomID]; joined {
		return false
	}
	r.joinLocked(connID, conn, roomID)
	return true
}

// Leave removes the connection from a room; no-op if not a member.
func (r *Registry) Leave(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return false
	}
	if _, joined := conn.rooms[roomID]; !joined {
		return false
	}
	r.leaveLocked(connID, conn, roomID)
	return true
}

func (r *Registry) joinLocked(connID string, conn *connection, roomID string) {
	conn.rooms[roomID] = struct{}{}
	members := r.rooms[roomID]
	if members == nil {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

func (r *Registry) leaveLocked(connID string, conn *connection, roomID string) {
	delete(conn.rooms, roomID)
	if members := r.rooms[roomID]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// Identity returns the identity of a live connection.
func (r *Registry) Identity(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	if !ok {
		return Identity{}, false
	}
	return conn.identity, true
}

// InRoom reports whether the connection is currently a member of the room.
func (r *Registry) InRoom(connID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	if !ok {
		return false
	}
	_, joined := conn.rooms[roomID]
	return joined
}

// MembersOf returns a snapshot of the connection ids in a room.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.rooms[roomID])
}

// ConnectionsOf returns a snapshot of the connection ids for a user.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keys(r.users[userID])
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// UserCount returns the number of distinct online users.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func keys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
