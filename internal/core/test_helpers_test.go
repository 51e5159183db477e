package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chatstream/chatstream-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent drains ch for the duration and fails if kind shows up.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, dur time.Duration) {
	t.Helper()

	deadline := time.Now().Add(dur)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

// fakeGateway is an in-memory Gateway for hub tests.
type fakeGateway struct {
	mu      sync.Mutex
	nextID  int64
	history map[string][]*store.Message
	streams map[int64]*store.StreamSession

	saveErr   error
	streamErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		history: make(map[string][]*store.Message),
		streams: make(map[int64]*store.StreamSession),
	}
}

func (g *fakeGateway) SaveMessage(_ context.Context, room string, senderID int64, body string) (*store.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return nil, g.saveErr
	}
	g.nextID++
	msg := &store.Message{
		ID:        g.nextID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	key := strings.ToLower(room)
	g.history[key] = append(g.history[key], msg)
	return msg, nil
}

func (g *fakeGateway) GetRecentMessages(_ context.Context, room string, limit int) ([]*store.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	msgs := g.history[strings.ToLower(room)]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*store.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (g *fakeGateway) CreateStreamSession(_ context.Context, streamerID int64, title, description string) (*store.StreamSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.streamErr != nil {
		return nil, g.streamErr
	}
	for _, s := range g.streams {
		if s.StreamerID == streamerID && s.Status == store.StreamStatusLive {
			return nil, store.ErrStreamLive
		}
	}
	g.nextID++
	sess := &store.StreamSession{
		ID:          g.nextID,
		StreamerID:  streamerID,
		Title:       title,
		Description: description,
		StreamKey:   "KEY0000000000000",
		Status:      store.StreamStatusLive,
		StartedAt:   time.Now().UTC(),
	}
	g.streams[sess.ID] = sess
	return sess, nil
}

func (g *fakeGateway) EndStreamSession(_ context.Context, streamID, streamerID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.streams[streamID]
	if !ok || sess.StreamerID != streamerID || sess.Status != store.StreamStatusLive {
		return false, nil
	}
	sess.Status = store.StreamStatusEnded
	now := time.Now().UTC()
	sess.EndedAt = &now
	return true, nil
}

func (g *fakeGateway) liveStreamCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.streams {
		if s.Status == store.StreamStatusLive {
			n++
		}
	}
	return n
}

func newTestHub() *Hub {
	return NewHub(newFakeGateway(), nil)
}
