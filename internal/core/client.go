package core

import "sync"

// DefaultEventQueue is the outbound buffer used when no explicit size is given.
const DefaultEventQueue = 64

// Client is one live connection as seen by the hub. Identity is bound at
// connect time and never changes. The rooms and streams sets are the
// registry's record of what this connection is a member of; each entry is
// mutated only under the corresponding room/stream serialization point.
type Client struct {
	ID      string
	Name    string
	UserID  int64
	IsGuest bool

	Commands chan *Command
	Events   chan *Event

	// done is closed when the connection is being torn down; loopDone is
	// closed when the command loop has exited. Commands itself is never
	// closed, so producers can always attempt a send guarded by Done.
	done     chan struct{}
	loopDone chan struct{}

	mu      sync.Mutex
	rooms   map[string]struct{} // canonical (lowercased) room keys
	streams map[int64]struct{}

	stopOnce sync.Once
}

// NewClient constructs a client with the default outbound queue size.
func NewClient(id, name string, userID int64, isGuest bool) *Client {
	return NewClientQueue(id, name, userID, isGuest, DefaultEventQueue)
}

// NewClientQueue constructs a client with an explicit outbound queue size.
func NewClientQueue(id, name string, userID int64, isGuest bool, queue int) *Client {
	if name == "" {
		name = id
	}
	if queue <= 0 {
		queue = DefaultEventQueue
	}
	return &Client{
		ID:       id,
		Name:     name,
		UserID:   userID,
		IsGuest:  isGuest,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, queue),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		rooms:    make(map[string]struct{}),
		streams:  make(map[int64]struct{}),
	}
}

// Done is closed when the connection is being torn down. Transports
// select on it when feeding Commands so a send never races teardown.
func (c *Client) Done() <-chan struct{} { return c.done }

// send enqueues an event without blocking. When the queue is full the
// oldest pending event is dropped, so one slow consumer never stalls a
// broadcast for the rest of its room.
func (c *Client) send(ev *Event) {
	for {
		select {
		case c.Events <- ev:
			return
		default:
		}
		select {
		case <-c.Events:
		default:
		}
	}
}

// stop signals the command loop to exit. Idempotent.
func (c *Client) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *Client) trackRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[key] = struct{}{}
}

func (c *Client) untrackRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, key)
}

func (c *Client) trackStream(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[id] = struct{}{}
}

func (c *Client) untrackStream(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.streams, id)
}

// roomList returns a snapshot of the rooms this connection belongs to.
func (c *Client) roomList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.rooms))
	for k := range c.rooms {
		keys = append(keys, k)
	}
	return keys
}

// streamList returns a snapshot of the streams this connection views.
func (c *Client) streamList() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int64, 0, len(c.streams))
	for id := range c.streams {
		ids = append(ids, id)
	}
	return ids
}

// InRoom reports whether the connection is currently a member of the room.
func (c *Client) InRoom(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomKey(name)]
	return ok
}

// InStream reports whether the connection is currently viewing the stream.
func (c *Client) InStream(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.streams[id]
	return ok
}
