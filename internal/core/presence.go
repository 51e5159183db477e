package core

import "sync"

// Presence tracks stream viewer sets. A stream's viewer count is always
// the cardinality of its set, never a separately mutated counter, so
// cleanup cannot leave the count out of sync with membership.
type Presence struct {
	mu       sync.RWMutex // guards the streams table only
	streams  map[int64]*streamChannel
	registry *Registry
}

type streamChannel struct {
	mu      sync.Mutex
	id      int64
	viewers map[string]struct{}
	gone    bool // set under mu when the entry is removed from the table
}

// NewPresence constructs the presence counter.
func NewPresence(registry *Registry) *Presence {
	return &Presence{
		streams:  make(map[int64]*streamChannel),
		registry: registry,
	}
}

func (p *Presence) get(id int64) *streamChannel {
	p.mu.RLock()
	s, ok := p.streams[id]
	p.mu.RUnlock()
	if ok {
		return s
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok = p.streams[id]; ok {
		return s
	}
	s = &streamChannel{id: id, viewers: make(map[string]struct{})}
	p.streams[id] = s
	return s
}

// JoinViewer adds the connection to the stream's viewer set (idempotent)
// and announces the updated count to every viewer, the joiner included.
// Returns the new count. A concurrent last-leave can remove the entry
// between the table lookup and the entry lock, so a stale entry is
// detected by its gone flag and the lookup retried.
func (p *Presence) JoinViewer(c *Client, streamID int64) int {
	for {
		s := p.get(streamID)
		s.mu.Lock()
		if s.gone {
			s.mu.Unlock()
			continue
		}

		if _, ok := s.viewers[c.ID]; !ok {
			s.viewers[c.ID] = struct{}{}
			c.trackStream(streamID)
		}
		count := len(s.viewers)
		s.deliverLocked(p.registry, &Event{
			Kind:   EventViewerCountUpdated,
			Stream: &StreamInfo{ID: streamID, Count: count},
		})
		s.mu.Unlock()
		return count
	}
}

// LeaveViewer removes the connection from the viewer set (no-op when
// absent) and announces the updated count to the remaining viewers.
// Returns the new count.
func (p *Presence) LeaveViewer(c *Client, streamID int64) int {
	p.mu.RLock()
	s, ok := p.streams[streamID]
	p.mu.RUnlock()
	if !ok {
		return 0
	}

	s.mu.Lock()
	if _, viewer := s.viewers[c.ID]; viewer {
		delete(s.viewers, c.ID)
		c.untrackStream(streamID)
	}
	count := len(s.viewers)
	s.deliverLocked(p.registry, &Event{
		Kind:   EventViewerCountUpdated,
		Stream: &StreamInfo{ID: streamID, Count: count},
	})
	s.mu.Unlock()

	if count == 0 {
		p.mu.Lock()
		if s, ok := p.streams[streamID]; ok {
			s.mu.Lock()
			if len(s.viewers) == 0 {
				s.gone = true
				delete(p.streams, streamID)
			}
			s.mu.Unlock()
		}
		p.mu.Unlock()
	}
	return count
}

// Count returns the current viewer count, 0 for an unknown stream.
func (p *Presence) Count(streamID int64) int {
	p.mu.RLock()
	s, ok := p.streams[streamID]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Broadcast delivers the event to the stream's current viewer set.
func (p *Presence) Broadcast(streamID int64, ev *Event) {
	p.mu.RLock()
	s, ok := p.streams[streamID]
	p.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverLocked(p.registry, ev)
}

// Viewers returns the connection ids currently viewing the stream.
func (p *Presence) Viewers(streamID int64) []string {
	p.mu.RLock()
	s, ok := p.streams[streamID]
	p.mu.RUnlock()
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.viewers))
	for id := range s.viewers {
		out = append(out, id)
	}
	return out
}

func (s *streamChannel) deliverLocked(registry *Registry, ev *Event) {
	for id := range s.viewers {
		c, err := registry.Lookup(id)
		if err != nil {
			continue
		}
		c.send(ev)
	}
}
