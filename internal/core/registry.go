package core

import "sync"

// Registry is the single source of truth for live connections. Every
// other component references connections by opaque id and resolves them
// here, so nothing holds a connection handle past its disconnect.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Add registers a connection under its id.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// Remove deregisters a connection and returns it, or nil when the id is
// unknown. Removing first guarantees no future delivery to the
// connection while membership cleanup is still running.
func (r *Registry) Remove(id string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil
	}
	delete(r.clients, id)
	return c
}

// Lookup resolves a connection id.
func (r *Registry) Lookup(id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Snapshot returns all currently registered connections.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Others returns all registered connections except the given one.
func (r *Registry) Others(exceptID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		if id == exceptID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// BroadcastAll enqueues an event to every registered connection.
func (r *Registry) BroadcastAll(ev *Event) {
	for _, c := range r.Snapshot() {
		c.send(ev)
	}
}
