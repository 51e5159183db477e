package core

import "encoding/json"

// EventKind is a notification the hub emits to connections.
type EventKind int

const (
	// EventUserJoined notifies room members that a user joined the room.
	EventUserJoined EventKind = iota
	// EventUserLeft notifies room members that a user left the room.
	EventUserLeft
	// EventMessageHistory delivers recent room messages to a joining connection.
	EventMessageHistory
	// EventReceiveMessage notifies room members about a persisted chat message.
	EventReceiveMessage
	// EventStreamStarted notifies all connections that a stream went live.
	EventStreamStarted
	// EventStreamEnded notifies all connections that a stream ended.
	EventStreamEnded
	// EventViewerCountUpdated notifies stream viewers about the current count.
	EventViewerCountUpdated
	// EventStreamChatMessage notifies stream viewers about an ephemeral chat line.
	EventStreamChatMessage
	// EventReceiveOffer carries a relayed negotiation offer.
	EventReceiveOffer
	// EventReceiveAnswer carries a relayed negotiation answer.
	EventReceiveAnswer
	// EventReceiveIceCandidate carries a relayed ICE candidate.
	EventReceiveIceCandidate
	// EventUserConnected notifies all connections about a new session.
	EventUserConnected
	// EventUserDisconnected notifies all connections about a closed session.
	EventUserDisconnected
	// EventError notifies the originating connection about a domain error.
	EventError
)

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	User     string // display name for joined/left/connected/disconnected
	Message  Message
	Messages []Message   // for EventMessageHistory
	Stream   *StreamInfo // non-nil for stream events
	Signal   *Signal     // non-nil for relayed signaling events
	Error    *CoreError
}

// StreamInfo holds data specific to stream events. Only the fields
// relevant to the event kind are set.
type StreamInfo struct {
	ID        int64
	Title     string
	Streamer  string
	StreamKey string
	Count     int
}

// Signal is a relayed negotiation payload together with the sending
// connection's id, so the receiver can answer it directly.
type Signal struct {
	From    string
	Payload json.RawMessage
}
