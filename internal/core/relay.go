package core

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Relay passes opaque negotiation payloads between connections. It never
// inspects or validates a payload and keeps no state of its own; routing
// resolves through the registry and presence sets at delivery time.
type Relay struct {
	registry *Registry
	presence *Presence
	log      *zerolog.Logger
}

// NewRelay constructs the signaling relay.
func NewRelay(registry *Registry, presence *Presence, logger *zerolog.Logger) *Relay {
	return &Relay{registry: registry, presence: presence, log: logger}
}

// ToStream delivers the payload to every current viewer of the stream.
func (r *Relay) ToStream(streamID int64, sender *Client, kind EventKind, payload json.RawMessage) {
	r.presence.Broadcast(streamID, &Event{
		Kind:   kind,
		Signal: &Signal{From: sender.ID, Payload: payload},
	})
}

// ToConnection delivers the payload to one connection. A target that has
// disconnected is logged and swallowed; signaling is best-effort and the
// relay neither buffers nor retries.
func (r *Relay) ToConnection(targetID string, sender *Client, kind EventKind, payload json.RawMessage) {
	target, err := r.registry.Lookup(targetID)
	if err != nil {
		r.log.Debug().
			Str("target", targetID).
			Str("sender", sender.ID).
			Msg("relay target gone")
		return
	}
	target.send(&Event{
		Kind:   kind,
		Signal: &Signal{From: sender.ID, Payload: payload},
	})
}

// ToOthers delivers the payload to every connection except the sender.
func (r *Relay) ToOthers(sender *Client, kind EventKind, payload json.RawMessage) {
	ev := &Event{
		Kind:   kind,
		Signal: &Signal{From: sender.ID, Payload: payload},
	}
	for _, c := range r.registry.Others(sender.ID) {
		c.send(ev)
	}
}
