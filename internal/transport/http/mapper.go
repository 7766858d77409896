package http

import (
	"encoding/json"

	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

// inboundToCommand translates a wire envelope into a core command.
// Only structural checks happen here; semantic validation (duplicate
// names, missing rooms, registration) is the hub's job.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.AdminErrorData) {
	switch inbound.Type {
	case proto.InboundTypeRegister:
		return &core.Command{Kind: core.CommandRegister}, nil

	case proto.InboundTypeChangeName:
		var data proto.TextData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{Kind: core.CommandChangeName, Text: data.Text}, nil

	case proto.InboundTypeLoudSpeaker:
		var data proto.TextData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{Kind: core.CommandLoudSpeaker, Text: data.Text}, nil

	case proto.InboundTypeLoudSettings:
		return &core.Command{Kind: core.CommandToggleLoudSpeaker}, nil

	case proto.InboundTypeCreateRoom:
		var data proto.CreateRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{
			Kind:     core.CommandCreateRoom,
			Text:     data.Text,
			Invited:  data.Arguments,
			Password: data.Password,
		}, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{Kind: core.CommandSendMessage, Room: data.Room, Text: data.Text}, nil

	case proto.InboundTypeJoinRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: data.Room}, nil

	case proto.InboundTypeLeaveRoom:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badPayload()
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: data.Room}, nil

	default:
		return nil, &proto.AdminErrorData{Code: core.ErrCodeBadRequest, Message: "unknown message type"}
	}
}

func badPayload() *proto.AdminErrorData {
	return &proto.AdminErrorData{Code: core.ErrCodeBadRequest, Message: "malformed payload"}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNotice:
		return proto.Outbound{
			Type: proto.OutboundTypeNotice,
			Data: proto.NoticeData{Message: event.Message},
		}
	case core.EventSync:
		return proto.Outbound{
			Type: proto.OutboundTypeAdminData,
			Data: adminDataFromSync(event.Sync),
		}
	case core.EventAdminMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeAdminMsg,
			Data: proto.AdminMessageData{Message: event.Message},
		}
	case core.EventAdminError:
		return proto.Outbound{
			Type: proto.OutboundTypeAdminError,
			Data: proto.AdminErrorData{Code: event.Code, Message: event.Message},
		}
	case core.EventDelete:
		data := proto.AdminDeleteData{}
		if event.Delete != nil {
			data.User = event.Delete.User
			data.Room = event.Delete.Room
		}
		return proto.Outbound{Type: proto.OutboundTypeAdminDelete, Data: data}
	case core.EventRoomMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeSendMessage,
			Data: proto.ChatData{User: event.User, Message: event.Text},
		}
	case core.EventLoudSpeaker:
		return proto.Outbound{
			Type: proto.OutboundTypeLoudSpeaker,
			Data: proto.ChatData{User: event.User, Message: event.Text},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeNotice}
	}
}

func adminDataFromSync(sync *core.DirectorySync) proto.AdminData {
	if sync == nil {
		return proto.AdminData{}
	}
	data := proto.AdminData{
		ID:            sync.ID,
		Name:          sync.Name,
		Room:          sync.Room,
		LoudSpeakerOn: sync.LoudSpeakerOn,
	}
	if len(sync.Users) > 0 {
		data.UserMap = make(map[string]proto.UserEntry, len(sync.Users))
		for id, u := range sync.Users {
			data.UserMap[id] = proto.UserEntry{Name: u.Name, CreatedAt: u.CreatedAt}
		}
	}
	if len(sync.Rooms) > 0 {
		data.RoomMap = make(map[string]proto.RoomEntry, len(sync.Rooms))
		for id, r := range sync.Rooms {
			data.RoomMap[id] = proto.RoomEntry{Users: r.Users, CreatedAt: r.CreatedAt}
		}
	}
	if sync.RoomUsers != nil {
		data.RoomUsers = &proto.RoomUsersEntry{Room: sync.RoomUsers.Room, Users: sync.RoomUsers.Users}
	}
	return data
}
