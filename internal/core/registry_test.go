package core

import (
	"errors"
	"testing"
)

func TestRegistryAddLookupRemove(t *testing.T) {
	r := NewRegistry()

	c := NewClient("c1", "carl", 1, false)
	r.Add(c)

	got, err := r.Lookup("c1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != c {
		t.Fatalf("Lookup returned a different client")
	}

	removed := r.Remove("c1")
	if removed != c {
		t.Fatalf("Remove returned a different client")
	}

	if _, err := r.Lookup("c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if r.Remove("c1") != nil {
		t.Fatalf("second Remove should return nil")
	}
}

func TestRegistryOthers(t *testing.T) {
	r := NewRegistry()
	a := NewClient("a", "alice", 1, false)
	b := NewClient("b", "bob", 2, false)
	r.Add(a)
	r.Add(b)

	others := r.Others("a")
	if len(others) != 1 || others[0] != b {
		t.Fatalf("Others(a) = %v, want [b]", others)
	}
	if got := len(r.Snapshot()); got != 2 {
		t.Fatalf("Snapshot len = %d, want 2", got)
	}
}

func TestClientSendDropsOldestWhenFull(t *testing.T) {
	c := NewClientQueue("c", "carl", 1, false, 2)

	c.send(&Event{Kind: EventUserJoined, User: "u1"})
	c.send(&Event{Kind: EventUserJoined, User: "u2"})
	c.send(&Event{Kind: EventUserJoined, User: "u3"})

	first := <-c.Events
	if first.User != "u2" {
		t.Fatalf("expected oldest event dropped, head = %q", first.User)
	}
	second := <-c.Events
	if second.User != "u3" {
		t.Fatalf("expected u3 second, got %q", second.User)
	}
}
