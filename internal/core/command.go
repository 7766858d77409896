package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister asks for an auto-assigned display name.
	CommandRegister CommandKind = iota
	// CommandChangeName requests a new display name.
	CommandChangeName
	// CommandLoudSpeaker sends a whole-server message to everyone not opted out.
	CommandLoudSpeaker
	// CommandToggleLoudSpeaker flips the sender's loud-speaker opt-out.
	CommandToggleLoudSpeaker
	// CommandCreateRoom creates a room with the sender plus invited users.
	CommandCreateRoom
	// CommandSendMessage delivers a chat message to room members.
	CommandSendMessage
	// CommandJoinRoom adds the sender to an existing room.
	CommandJoinRoom
	// CommandLeaveRoom removes the sender from a room.
	CommandLeaveRoom
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Text     string   // nickname, message body, or room id depending on Kind
	Room     string   // target room for send/join/leave
	Invited  []string // invited connection ids for create_room
	Password string   // optional room password, stored but never challenged
}
