package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNotice is a whole-server advisory (join/disconnect announcements).
	EventNotice EventKind = iota
	// EventSync carries a partial or full directory sync.
	EventSync
	// EventAdminMessage is a human-readable advisory scoped to a room or user.
	EventAdminMessage
	// EventAdminError reports a validation failure to the originating client.
	EventAdminError
	// EventDelete signals removal of a user or room from client caches.
	EventDelete
	// EventRoomMessage is a chat message delivered to room members.
	EventRoomMessage
	// EventLoudSpeaker is a whole-server message for clients not opted out.
	EventLoudSpeaker
)

// Event is sent to clients to describe what happened in the system.
// Events cross process boundaries through the relay, hence the tags.
type Event struct {
	Kind    EventKind        `json:"kind"`
	Message string           `json:"message,omitempty"` // text for notices, advisories and errors
	Code    string           `json:"code,omitempty"`    // error code for EventAdminError
	User    string           `json:"user,omitempty"`    // sender display name for chat and loud-speaker
	Text    string           `json:"text,omitempty"`    // chat or loud-speaker body
	Sync    *DirectorySync   `json:"sync,omitempty"`
	Delete  *DirectoryDelete `json:"delete,omitempty"`
}

// DirectorySync mirrors the sparse admin_data payload of the protocol.
// Only the fields relevant to a given sync are set.
type DirectorySync struct {
	ID            string                  `json:"id,omitempty"`
	Name          string                  `json:"name,omitempty"`
	Users         map[string]UserSnapshot `json:"userMap,omitempty"`
	Rooms         map[string]RoomSnapshot `json:"roomMap,omitempty"`
	RoomUsers     *RoomMembers            `json:"roomUsers,omitempty"`
	Room          string                  `json:"room,omitempty"`
	LoudSpeakerOn *bool                   `json:"loudSpeakerOn,omitempty"`
}

// RoomMembers is an incremental membership sync for one room.
type RoomMembers struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// DirectoryDelete tells clients to drop a user or room from their caches.
type DirectoryDelete struct {
	User string `json:"user,omitempty"`
	Room string `json:"room,omitempty"`
}
