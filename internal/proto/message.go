package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeRegister     = "register"
	InboundTypeChangeName   = "change_name"
	InboundTypeLoudSpeaker  = "loud_speaker"
	InboundTypeLoudSettings = "update_loud_speaker_settings"
	InboundTypeCreateRoom   = "create_room"
	InboundTypeSendMessage  = "send_message"
	InboundTypeJoinRoom     = "join_room"
	InboundTypeLeaveRoom    = "leave_room"

	OutboundTypeNotice      = "notice"
	OutboundTypeAdminData   = "admin_data"
	OutboundTypeAdminMsg    = "admin_message"
	OutboundTypeAdminError  = "admin_error"
	OutboundTypeAdminDelete = "admin_delete_data"
	OutboundTypeSendMessage = "send_message"
	OutboundTypeLoudSpeaker = "loud_speaker"
)

// TextData carries a single text field: the new nickname for
// change_name, the message body for loud_speaker.
type TextData struct {
	Text string `json:"text"`
}

// CreateRoomData requests room creation. Text is the room id and
// Arguments the invited connection ids. Password is stored but never
// challenged on join.
type CreateRoomData struct {
	Text      string   `json:"text"`
	Arguments []string `json:"arguments"`
	Password  string   `json:"password,omitempty"`
}

// SendMessageData is a room-scoped chat message from the client.
type SendMessageData struct {
	Text string `json:"text"`
	Room string `json:"room"`
}

// RoomData targets a room for join_room and leave_room.
type RoomData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NoticeData is a whole-server advisory.
type NoticeData struct {
	Message string `json:"message"`
}

// AdminMessageData is a room- or user-scoped advisory.
type AdminMessageData struct {
	Message string `json:"message"`
}

// AdminErrorData reports a validation failure to the originating client.
type AdminErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// UserEntry is the wire form of one directory user.
type UserEntry struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomEntry is the wire form of one directory room. Users is ordered;
// the first entry is the room owner.
type RoomEntry struct {
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUsersEntry is an incremental membership update for one room.
type RoomUsersEntry struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// AdminData is the sparse directory sync payload. Registration replies
// carry the full directory; later syncs set only the changed fields.
type AdminData struct {
	ID            string               `json:"id,omitempty"`
	Name          string               `json:"name,omitempty"`
	UserMap       map[string]UserEntry `json:"userMap,omitempty"`
	RoomMap       map[string]RoomEntry `json:"roomMap,omitempty"`
	RoomUsers     *RoomUsersEntry      `json:"roomUsers,omitempty"`
	Room          string               `json:"room,omitempty"`
	LoudSpeakerOn *bool                `json:"loudSpeakerOn,omitempty"`
}

// AdminDeleteData signals removal of a user or room from client caches.
type AdminDeleteData struct {
	User string `json:"user,omitempty"`
	Room string `json:"room,omitempty"`
}

// ChatData is the payload of send_message and loud_speaker events.
type ChatData struct {
	User    string `json:"user"`
	Message string `json:"message"`
}
