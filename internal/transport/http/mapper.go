package http

import (
	"encoding/json"

	"github.com/chatstream/chatstream-server/internal/core"
	"github.com/chatstream/chatstream-server/internal/proto"
)

// inboundToCommand maps a wire message onto the hub's closed command
// set. A nil command with a non-nil proto error means the message was
// understood but rejected; a Go error means the payload did not parse.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: data.Room}, nil, nil

	case proto.InboundTypeSendMessage:
		var data proto.MsgData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Room: data.Room,
			Text: data.Text,
		}, nil, nil

	case proto.InboundTypeStartStream:
		var data proto.StartStreamData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:        core.CommandStartStream,
			Title:       data.Title,
			Description: data.Description,
		}, nil, nil

	case proto.InboundTypeEndStream:
		var data proto.StreamData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{Kind: core.CommandEndStream, StreamID: data.StreamID}, nil, nil

	case proto.InboundTypeJoinStream, proto.InboundTypeLeaveStream:
		var data proto.StreamData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		kind := core.CommandJoinStreamViewer
		if inbound.Type == proto.InboundTypeLeaveStream {
			kind = core.CommandLeaveStreamViewer
		}
		return &core.Command{Kind: kind, StreamID: data.StreamID}, nil, nil

	case proto.InboundTypeStreamChat:
		var data proto.StreamChatData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandSendStreamChat,
			StreamID: data.StreamID,
			Text:     data.Text,
		}, nil, nil

	case proto.InboundTypeOffer:
		var data proto.OfferData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandSendOffer,
			StreamID: data.StreamID,
			Payload:  data.Offer,
		}, nil, nil

	case proto.InboundTypeAnswer:
		var data proto.AnswerData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendAnswer,
			Target:  data.Target,
			Payload: data.Answer,
		}, nil, nil

	case proto.InboundTypeIce:
		var data proto.IceData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.Target == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "target is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendIceCandidate,
			Target:  data.Target,
			Payload: data.Candidate,
		}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserJoined:
		return eventOutbound(proto.EventNameUserJoined, proto.EventRoomUser{Room: event.Room, User: event.User})
	case core.EventUserLeft:
		return eventOutbound(proto.EventNameUserLeft, proto.EventRoomUser{Room: event.Room, User: event.User})
	case core.EventMessageHistory:
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageToWire(msg))
		}
		return eventOutbound(proto.EventNameMessageHistory, proto.EventHistory{
			Room:     event.Room,
			Messages: messages,
		})
	case core.EventReceiveMessage:
		return eventOutbound(proto.EventNameReceiveMessage, messageToWire(event.Message))
	case core.EventStreamStarted:
		return eventOutbound(proto.EventNameStreamStarted, proto.EventStreamStarted{
			ID:        event.Stream.ID,
			Title:     event.Stream.Title,
			Streamer:  event.Stream.Streamer,
			StreamKey: event.Stream.StreamKey,
		})
	case core.EventStreamEnded:
		return eventOutbound(proto.EventNameStreamEnded, proto.EventStreamEnded{StreamID: event.Stream.ID})
	case core.EventViewerCountUpdated:
		return eventOutbound(proto.EventNameViewerCount, proto.EventViewerCount{
			StreamID: event.Stream.ID,
			Count:    event.Stream.Count,
		})
	case core.EventStreamChatMessage:
		return eventOutbound(proto.EventNameStreamChat, messageToWire(event.Message))
	case core.EventReceiveOffer:
		return eventOutbound(proto.EventNameReceiveOffer, signalToWire(event.Signal))
	case core.EventReceiveAnswer:
		return eventOutbound(proto.EventNameReceiveAnswer, signalToWire(event.Signal))
	case core.EventReceiveIceCandidate:
		return eventOutbound(proto.EventNameReceiveIce, signalToWire(event.Signal))
	case core.EventUserConnected:
		return eventOutbound(proto.EventNameUserConnected, proto.EventUser{User: event.User})
	case core.EventUserDisconnected:
		return eventOutbound(proto.EventNameUserDisconnected, proto.EventUser{User: event.User})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func messageToWire(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:       msg.ID,
		Room:     msg.Room,
		StreamID: msg.StreamID,
		Sender:   msg.From,
		SenderID: msg.FromID,
		IsGuest:  msg.IsGuest,
		Text:     msg.Text,
		SentAt:   msg.CreatedAt.Unix(),
	}
}

func signalToWire(sig *core.Signal) proto.EventSignal {
	if sig == nil {
		return proto.EventSignal{}
	}
	return proto.EventSignal{From: sig.From, Payload: sig.Payload}
}
