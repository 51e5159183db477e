package core

import "encoding/json"

// CommandKind describes what the client wants to do. The set is closed;
// the hub matches it exhaustively.
type CommandKind int

const (
	// CommandJoinRoom subscribes the connection to a chat room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the connection from a chat room.
	CommandLeaveRoom
	// CommandSendMessage persists a chat message, then broadcasts it to the room.
	CommandSendMessage
	// CommandStartStream creates a live stream session (registered users only).
	CommandStartStream
	// CommandEndStream ends a live stream session owned by the caller.
	CommandEndStream
	// CommandJoinStreamViewer adds the connection to a stream's viewer set.
	CommandJoinStreamViewer
	// CommandLeaveStreamViewer removes the connection from a stream's viewer set.
	CommandLeaveStreamViewer
	// CommandSendStreamChat broadcasts an ephemeral chat line to stream viewers.
	CommandSendStreamChat
	// CommandSendOffer relays a connection-negotiation offer to stream viewers.
	CommandSendOffer
	// CommandSendAnswer relays a negotiation answer to one connection.
	CommandSendAnswer
	// CommandSendIceCandidate relays an ICE candidate to one connection,
	// or to all other connections when Target is BroadcastTarget.
	CommandSendIceCandidate
)

// BroadcastTarget is the sentinel Target value that addresses every
// connection except the sender.
const BroadcastTarget = "broadcast"

// Command represents an action requested by a connection.
type Command struct {
	Kind        CommandKind
	Room        string
	StreamID    int64
	Target      string // connection id, or BroadcastTarget
	Title       string
	Description string
	Text        string
	Payload     json.RawMessage // opaque signaling payload, never inspected
}
