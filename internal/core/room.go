package core

import (
	"strings"
	"sync"
)

// roomKey canonicalizes a room name; room names are case-insensitive.
func roomKey(name string) string {
	return strings.ToLower(name)
}

// Rooms tracks per-room membership and fans out room events. Each room
// has its own lock; membership changes and event enqueueing for a room
// happen under that lock, which gives every member one consistent order
// of joins, leaves and messages without a global bottleneck.
type Rooms struct {
	mu       sync.RWMutex // guards the rooms table only
	rooms    map[string]*room
	registry *Registry
}

type room struct {
	mu      sync.Mutex
	name    string // display name, as first joined
	members map[string]struct{}
}

// NewRooms constructs the room broadcaster.
func NewRooms(registry *Registry) *Rooms {
	return &Rooms{
		rooms:    make(map[string]*room),
		registry: registry,
	}
}

// get returns the room for name, creating it lazily on first use.
// Empty rooms are kept; membership, not the room record, is the scarce
// resource.
func (rs *Rooms) get(name string) *room {
	key := roomKey(name)

	rs.mu.RLock()
	r, ok := rs.rooms[key]
	rs.mu.RUnlock()
	if ok {
		return r
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r, ok = rs.rooms[key]; ok {
		return r
	}
	r = &room{name: name, members: make(map[string]struct{})}
	rs.rooms[key] = r
	return r
}

// Join adds the connection to the room and announces it to every current
// member, the joiner included. Joining twice is a no-op.
func (rs *Rooms) Join(c *Client, name string) {
	r := rs.get(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[c.ID]; ok {
		return
	}
	r.members[c.ID] = struct{}{}
	c.trackRoom(roomKey(name))

	r.deliverLocked(rs.registry, &Event{Kind: EventUserJoined, Room: r.name, User: c.Name})
}

// Leave removes the connection and announces it to the remaining members.
// Leaving a room the connection is not in is a no-op.
func (rs *Rooms) Leave(c *Client, name string) {
	rs.mu.RLock()
	r, ok := rs.rooms[roomKey(name)]
	rs.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, member := r.members[c.ID]; !member {
		return
	}
	delete(r.members, c.ID)
	c.untrackRoom(roomKey(name))

	r.deliverLocked(rs.registry, &Event{Kind: EventUserLeft, Room: r.name, User: c.Name})
}

// Drop removes the connection without announcing it. Used by the
// disconnect cascade, where a global user_disconnected event is emitted
// instead of per-room leave events.
func (rs *Rooms) Drop(c *Client, key string) {
	rs.mu.RLock()
	r, ok := rs.rooms[key]
	rs.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, c.ID)
	c.untrackRoom(key)
}

// Broadcast delivers the event to the members present when the broadcast
// begins; connections joining afterwards do not receive it.
func (rs *Rooms) Broadcast(name string, ev *Event) {
	r := rs.get(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverLocked(rs.registry, ev)
}

// Members returns the current member connection ids of a room.
func (rs *Rooms) Members(name string) []string {
	rs.mu.RLock()
	r, ok := rs.rooms[roomKey(name)]
	rs.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	return out
}

// deliverLocked enqueues ev to every member. Callers hold r.mu; the
// per-client sends never block, so holding the lock across the fan-out
// is what keeps the per-room event order consistent.
func (r *room) deliverLocked(registry *Registry, ev *Event) {
	for id := range r.members {
		c, err := registry.Lookup(id)
		if err != nil {
			// Mid-cleanup straggler; the disconnect cascade will drop it.
			continue
		}
		c.send(ev)
	}
}
