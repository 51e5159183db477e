package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoinRoom    = "join_room"
	InboundTypeLeaveRoom   = "leave_room"
	InboundTypeSendMessage = "send_message"
	InboundTypeStartStream = "start_stream"
	InboundTypeEndStream   = "end_stream"
	InboundTypeJoinStream  = "join_stream"
	InboundTypeLeaveStream = "leave_stream"
	InboundTypeStreamChat  = "stream_chat"
	InboundTypeOffer       = "offer"
	InboundTypeAnswer      = "answer"
	InboundTypeIce         = "ice"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// RoomData addresses a room by name.
type RoomData struct {
	Room string `json:"room"`
}

// MsgData is a room chat message from the client.
type MsgData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// StartStreamData requests a new live stream session.
type StartStreamData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// StreamData addresses a stream by id.
type StreamData struct {
	StreamID int64 `json:"stream_id"`
}

// StreamChatData is an ephemeral chat line for stream viewers.
type StreamChatData struct {
	StreamID int64  `json:"stream_id"`
	Text     string `json:"text"`
}

// OfferData carries a negotiation offer for a stream's viewers.
type OfferData struct {
	StreamID int64           `json:"stream_id"`
	Offer    json.RawMessage `json:"offer"`
}

// AnswerData carries a negotiation answer for one connection.
type AnswerData struct {
	Target string          `json:"target"`
	Answer json.RawMessage `json:"answer"`
}

// IceData carries an ICE candidate for one connection, or for all
// others when target is "broadcast".
type IceData struct {
	Target    string          `json:"target"`
	Candidate json.RawMessage `json:"candidate"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Outbound event names.
const (
	EventNameUserJoined       = "user_joined"
	EventNameUserLeft         = "user_left"
	EventNameMessageHistory   = "message_history"
	EventNameReceiveMessage   = "receive_message"
	EventNameStreamStarted    = "stream_started"
	EventNameStreamEnded      = "stream_ended"
	EventNameViewerCount      = "viewer_count_updated"
	EventNameStreamChat       = "stream_chat_message"
	EventNameReceiveOffer     = "receive_offer"
	EventNameReceiveAnswer    = "receive_answer"
	EventNameReceiveIce       = "receive_ice_candidate"
	EventNameUserConnected    = "user_connected"
	EventNameUserDisconnected = "user_disconnected"
)

// EventRoomUser notifies about a user joining or leaving a room.
type EventRoomUser struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventMessage is a chat message as delivered to clients.
type EventMessage struct {
	ID       int64  `json:"id,omitempty"`
	Room     string `json:"room,omitempty"`
	StreamID int64  `json:"stream_id,omitempty"`
	Sender   string `json:"sender_name"`
	SenderID int64  `json:"sender_id"`
	IsGuest  bool   `json:"is_guest"`
	Text     string `json:"content"`
	SentAt   int64  `json:"sent_at"`
}

// EventHistory delivers recent room messages to a joining client.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventStreamStarted announces a new live stream to all clients.
type EventStreamStarted struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Streamer  string `json:"streamer_name"`
	StreamKey string `json:"stream_key"`
}

// EventStreamEnded announces the end of a stream to all clients.
type EventStreamEnded struct {
	StreamID int64 `json:"stream_id"`
}

// EventViewerCount announces the current viewer count of a stream.
type EventViewerCount struct {
	StreamID int64 `json:"stream_id"`
	Count    int   `json:"count"`
}

// EventSignal is a relayed negotiation payload. From is the sending
// connection's id; answers go back to it directly.
type EventSignal struct {
	From    string          `json:"sender_connection_id"`
	Payload json.RawMessage `json:"payload"`
}

// EventUser notifies about a session-level connect or disconnect.
type EventUser struct {
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
