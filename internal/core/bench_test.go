package core

import (
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, members int) {
	hub := newTestHub()

	clients := make([]*Client, members)
	for i := range clients {
		c := NewClient(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), int64(i+1), false)
		clients[i] = c
		hub.registry.Add(c)
		hub.rooms.Join(c, "bench")
	}

	// Drain outbound queues so broadcasts never hit the drop path.
	done := make(chan struct{})
	for _, c := range clients {
		go func(ch <-chan *Event) {
			for {
				select {
				case <-ch:
				case <-done:
					return
				}
			}
		}(c.Events)
	}
	defer close(done)

	ev := &Event{Kind: EventReceiveMessage, Room: "bench", Message: Message{Text: "x"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hub.rooms.Broadcast("bench", ev)
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
