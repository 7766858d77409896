package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Hub coordinates all directory mutations and decides the fan-out of
// every outbound notification. A single Run goroutine owns the State,
// so each inbound command runs to completion (mutation plus all
// resulting sends) before the next one starts.
type Hub struct {
	log     zerolog.Logger
	relay   Relay
	origin  string
	state   *State
	clients map[string]*Client
	attach  chan *Client
	detach  chan *Client
	inbound chan inbound
	remote  chan Envelope
}

type inbound struct {
	client *Client
	cmd    *Command
}

// NewHub builds a hub. relay may be nil for single-process operation;
// origin identifies this process in relayed envelopes.
func NewHub(relay Relay, origin string, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:     logger.With().Str("component", "hub").Logger(),
		relay:   relay,
		origin:  origin,
		state:   NewState(),
		clients: make(map[string]*Client),
		attach:  make(chan *Client),
		detach:  make(chan *Client),
		inbound: make(chan inbound),
		remote:  make(chan Envelope, 64),
	}
}

// RegisterClient attaches a transport session to the hub.
func (h *Hub) RegisterClient(c *Client) {
	h.attach <- c
}

// UnregisterClient detaches a session, running disconnect cleanup. The
// transport must have closed c.Commands before calling this.
func (h *Hub) UnregisterClient(c *Client) {
	h.detach <- c
}

// DeliverRemote hands an envelope received from the relay to the hub.
// Envelopes originating from this process are dropped.
func (h *Hub) DeliverRemote(env Envelope) {
	if env.Origin == h.origin {
		return
	}
	h.remote <- env
}

// Run processes attach/detach, inbound commands and relayed envelopes
// until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.attach:
			h.clients[c.ID] = c
			go h.pump(ctx, c)
			h.log.Debug().Str("conn_id", c.ID).Msg("client attached")
		case c := <-h.detach:
			if _, ok := h.clients[c.ID]; !ok {
				continue
			}
			h.handleDisconnect(ctx, c)
			delete(h.clients, c.ID)
			close(c.Events)
			h.log.Debug().Str("conn_id", c.ID).Msg("client detached")
		case in := <-h.inbound:
			h.dispatch(ctx, in.client, in.cmd)
		case env := <-h.remote:
			h.deliverLocal(env)
		}
	}
}

// pump forwards one client's commands into the hub's serialized inbox.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.inbound <- inbound{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.clients[c.ID]; !ok {
		// Commands raced with disconnect cleanup.
		return
	}
	if cmd.Kind != CommandRegister {
		if _, ok := h.state.User(c.ID); !ok {
			h.sendError(c, ErrCodeNotRegistered, "register before sending commands")
			return
		}
	}

	switch cmd.Kind {
	case CommandRegister:
		h.handleRegister(ctx, c)
	case CommandChangeName:
		h.handleChangeName(ctx, c, cmd.Text)
	case CommandLoudSpeaker:
		h.handleLoudSpeaker(ctx, c, cmd.Text)
	case CommandToggleLoudSpeaker:
		h.handleToggleLoudSpeaker(c)
	case CommandCreateRoom:
		h.handleCreateRoom(ctx, c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(ctx, c, cmd.Room, cmd.Text)
	case CommandJoinRoom:
		h.handleJoinRoom(ctx, c, cmd.Room)
	case CommandLeaveRoom:
		h.handleLeaveRoom(ctx, c, cmd.Room)
	default:
		h.sendError(c, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if _, ok := h.state.User(c.ID); ok {
		h.sendError(c, ErrCodeAlreadyRegistered, "already registered")
		return
	}

	name := h.state.NextName()
	h.state.RegisterUser(c.ID, name, time.Now())
	snap, _ := h.state.UserSnapshotOf(c.ID)

	h.emitOthers(ctx, c.ID, &Event{
		Kind:    EventNotice,
		Message: fmt.Sprintf("'%s' connected to the server!", name),
	})
	h.emitOthers(ctx, c.ID, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{Users: map[string]UserSnapshot{c.ID: snap}},
	})

	full := h.state.Snapshot()
	h.send(c, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{ID: c.ID, Name: name, Users: full.Users, Rooms: full.Rooms},
	})
	h.send(c, &Event{
		Kind:    EventAdminMessage,
		Message: fmt.Sprintf("you have been assigned the name '%s'", name),
	})
}

func (h *Hub) handleChangeName(ctx context.Context, c *Client, nickname string) {
	if nickname == "" {
		h.sendError(c, ErrCodeBadRequest, "nickname is required")
		return
	}
	if h.state.NameTakenBy(nickname, c.ID) {
		h.sendError(c, ErrCodeDuplicateNickname, fmt.Sprintf("'%s' is a duplicate nickname", nickname))
		return
	}

	user, _ := h.state.User(c.ID)
	oldName := user.Name
	h.state.RenameUser(c.ID, nickname)
	snap, _ := h.state.UserSnapshotOf(c.ID)

	h.emitOthers(ctx, c.ID, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{Users: map[string]UserSnapshot{c.ID: snap}},
	})
	h.emitOthers(ctx, c.ID, &Event{
		Kind:    EventAdminMessage,
		Message: fmt.Sprintf("user '%s' changed their name to '%s'!", oldName, nickname),
	})
	h.send(c, &Event{Kind: EventSync, Sync: &DirectorySync{Name: nickname}})
}

func (h *Hub) handleLoudSpeaker(ctx context.Context, c *Client, text string) {
	user, _ := h.state.User(c.ID)
	h.emitLoud(ctx, &Event{Kind: EventLoudSpeaker, User: user.Name, Text: text})
}

func (h *Hub) handleToggleLoudSpeaker(c *Client) {
	var on bool
	if h.state.IsMuted(c.ID) {
		h.state.ClearMuted(c.ID)
		on = true
	} else {
		h.state.SetMuted(c.ID)
		on = false
	}

	h.send(c, &Event{Kind: EventSync, Sync: &DirectorySync{LoudSpeakerOn: &on}})
	h.send(c, &Event{Kind: EventAdminMessage, Message: "loud speaker settings updated"})
}

func (h *Hub) handleCreateRoom(ctx context.Context, c *Client, cmd *Command) {
	roomID := cmd.Text
	if roomID == "" || len(cmd.Invited) == 0 {
		h.sendError(c, ErrCodeBadRequest, "cannot create a room!")
		return
	}

	creator, _ := h.state.User(c.ID)
	members := []string{c.ID}
	var invitedNames []string
	for _, id := range cmd.Invited {
		if contains(members, id) {
			continue
		}
		// Invitees that do not resolve to a registered user are dropped.
		u, ok := h.state.User(id)
		if !ok {
			continue
		}
		members = append(members, id)
		invitedNames = append(invitedNames, u.Name)
	}
	if len(invitedNames) == 0 {
		h.sendError(c, ErrCodeRoomCreateFailed, "room creation failed!")
		return
	}

	hash, err := hashRoomPassword(cmd.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("room", roomID).Msg("room password hashing failed")
		h.sendError(c, ErrCodeRoomCreateFailed, "room creation failed!")
		return
	}

	h.state.CreateRoom(roomID, hash, members, time.Now())
	snap, _ := h.state.RoomSnapshotOf(roomID)

	h.emitAll(ctx, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{Rooms: map[string]RoomSnapshot{roomID: snap}},
	})
	h.emitRoom(ctx, roomID, &Event{Kind: EventSync, Sync: &DirectorySync{Room: roomID}})
	h.emitRoom(ctx, roomID, &Event{
		Kind:    EventAdminMessage,
		Message: fmt.Sprintf("'%s' invited '%s' to '%s'!", creator.Name, strings.Join(invitedNames, ", "), roomID),
	})
}

func (h *Hub) handleSendMessage(ctx context.Context, c *Client, roomID, text string) {
	if text == "" || roomID == "" {
		h.sendError(c, ErrCodeEmptyMessage, "empty message received!")
		return
	}
	if _, ok := h.state.Room(roomID); !ok {
		h.sendError(c, ErrCodeRoomNotFound, fmt.Sprintf("room '%s' does not exist", roomID))
		return
	}

	user, _ := h.state.User(c.ID)
	h.emitRoom(ctx, roomID, &Event{Kind: EventRoomMessage, User: user.Name, Text: text})
}

func (h *Hub) handleJoinRoom(ctx context.Context, c *Client, roomID string) {
	if roomID == "" {
		h.sendError(c, ErrCodeBadRequest, "room is required")
		return
	}
	if !h.state.AddMember(roomID, c.ID) {
		h.sendError(c, ErrCodeRoomNotFound, fmt.Sprintf("room '%s' does not exist", roomID))
		return
	}

	user, _ := h.state.User(c.ID)
	h.emitAll(ctx, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{RoomUsers: &RoomMembers{Room: roomID, Users: h.state.MemberIDs(roomID)}},
	})
	h.emitRoom(ctx, roomID, &Event{Kind: EventSync, Sync: &DirectorySync{Room: roomID}})
	h.emitRoom(ctx, roomID, &Event{
		Kind:    EventAdminMessage,
		Message: fmt.Sprintf("'%s' joined the room!", user.Name),
	})
}

func (h *Hub) handleLeaveRoom(ctx context.Context, c *Client, roomID string) {
	if roomID == "" {
		h.sendError(c, ErrCodeBadRequest, "room is required")
		return
	}
	room, ok := h.state.Room(roomID)
	if !ok {
		h.sendError(c, ErrCodeRoomNotFound, fmt.Sprintf("room '%s' does not exist", roomID))
		return
	}
	if !contains(room.Members, c.ID) {
		h.sendError(c, ErrCodeNotInRoom, "you are not in that room")
		return
	}

	user, _ := h.state.User(c.ID)
	wasOwner := room.Members[0] == c.ID
	h.state.RemoveMember(roomID, c.ID)

	if h.state.DeleteRoomIfEmpty(roomID) {
		h.emitAll(ctx, &Event{Kind: EventDelete, Delete: &DirectoryDelete{Room: roomID}})
		h.send(c, &Event{Kind: EventAdminMessage, Message: "the room was deleted because nobody was left in it!"})
		return
	}

	succession := h.successionNote(roomID, user.Name, wasOwner)
	h.emitAll(ctx, &Event{
		Kind: EventSync,
		Sync: &DirectorySync{RoomUsers: &RoomMembers{Room: roomID, Users: h.state.MemberIDs(roomID)}},
	})
	h.emitRoomExcept(ctx, roomID, c.ID, &Event{
		Kind:    EventAdminMessage,
		Message: fmt.Sprintf("'%s' left the room.%s", user.Name, succession),
	})
	h.send(c, &Event{Kind: EventAdminMessage, Message: "you left the room."})
}

// handleDisconnect cleans up membership in every room the connection
// belonged to, announces the departure, and removes the user.
func (h *Hub) handleDisconnect(ctx context.Context, c *Client) {
	user, ok := h.state.User(c.ID)
	if !ok {
		// Never registered: nothing to announce.
		return
	}

	for _, roomID := range h.state.RoomsOf(c.ID) {
		room, _ := h.state.Room(roomID)
		wasOwner := room.Members[0] == c.ID
		h.state.RemoveMember(roomID, c.ID)

		if h.state.DeleteRoomIfEmpty(roomID) {
			h.emitOthers(ctx, c.ID, &Event{Kind: EventDelete, Delete: &DirectoryDelete{Room: roomID}})
			continue
		}

		succession := h.successionNote(roomID, user.Name, wasOwner)
		h.emitOthers(ctx, c.ID, &Event{
			Kind: EventSync,
			Sync: &DirectorySync{RoomUsers: &RoomMembers{Room: roomID, Users: h.state.MemberIDs(roomID)}},
		})
		h.emitRoomExcept(ctx, roomID, c.ID, &Event{
			Kind:    EventAdminMessage,
			Message: fmt.Sprintf("'%s' left the room.%s", user.Name, succession),
		})
	}

	h.emitOthers(ctx, c.ID, &Event{
		Kind:    EventNotice,
		Message: fmt.Sprintf("'%s' disconnected from the server!", user.Name),
	})
	h.emitOthers(ctx, c.ID, &Event{Kind: EventDelete, Delete: &DirectoryDelete{User: c.ID}})
	h.state.RemoveUser(c.ID)
}

// successionNote builds the ownership-succession advisory when the
// departing member was the owner. Must be called after RemoveMember:
// the successor is the member now at position 0.
func (h *Hub) successionNote(roomID, departedName string, wasOwner bool) string {
	if !wasOwner {
		return ""
	}
	members := h.state.MemberIDs(roomID)
	if len(members) == 0 {
		return ""
	}
	successor, ok := h.state.User(members[0])
	if !ok {
		return ""
	}
	return fmt.Sprintf(" the previous owner '%s' left, so '%s' is the new room owner.", departedName, successor.Name)
}

// send delivers an event to one client, dropping it if the consumer is
// too slow to keep the hub from blocking.
func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.log.Debug().Str("conn_id", c.ID).Msg("dropping event for slow consumer")
	}
}

func (h *Hub) sendError(c *Client, code, msg string) {
	h.send(c, &Event{Kind: EventAdminError, Code: code, Message: msg})
}

func (h *Hub) emitAll(ctx context.Context, ev *Event) {
	for _, c := range h.clients {
		h.send(c, ev)
	}
	h.publish(ctx, Envelope{Scope: ScopeAll, Event: *ev})
}

func (h *Hub) emitOthers(ctx context.Context, senderID string, ev *Event) {
	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		h.send(c, ev)
	}
	h.publish(ctx, Envelope{Scope: ScopeAll, Exclude: senderID, Event: *ev})
}

func (h *Hub) emitRoom(ctx context.Context, roomID string, ev *Event) {
	for _, id := range h.state.MemberIDs(roomID) {
		if c, ok := h.clients[id]; ok {
			h.send(c, ev)
		}
	}
	h.publish(ctx, Envelope{Scope: ScopeRoom, Room: roomID, Event: *ev})
}

func (h *Hub) emitRoomExcept(ctx context.Context, roomID, exclude string, ev *Event) {
	for _, id := range h.state.MemberIDs(roomID) {
		if id == exclude {
			continue
		}
		if c, ok := h.clients[id]; ok {
			h.send(c, ev)
		}
	}
	h.publish(ctx, Envelope{Scope: ScopeRoom, Room: roomID, Exclude: exclude, Event: *ev})
}

// emitLoud addresses every registered connection not in the opt-out
// set individually. The sender receives it too unless self-muted.
func (h *Hub) emitLoud(ctx context.Context, ev *Event) {
	for _, id := range h.state.UserIDs() {
		if h.state.IsMuted(id) {
			continue
		}
		if c, ok := h.clients[id]; ok {
			h.send(c, ev)
		}
	}
	h.publish(ctx, Envelope{Scope: ScopeLoud, Event: *ev})
}

func (h *Hub) publish(ctx context.Context, env Envelope) {
	if h.relay == nil {
		return
	}
	env.Origin = h.origin
	if err := h.relay.Publish(ctx, env); err != nil {
		h.log.Warn().Err(err).Str("scope", env.Scope).Msg("relay publish failed")
	}
}

// deliverLocal fans a relayed envelope out to local clients. Room and
// loud-speaker scopes resolve against this process's own replica; no
// state is mutated.
func (h *Hub) deliverLocal(env Envelope) {
	ev := env.Event
	switch env.Scope {
	case ScopeAll:
		for id, c := range h.clients {
			if id == env.Exclude {
				continue
			}
			h.send(c, &ev)
		}
	case ScopeRoom:
		for _, id := range h.state.MemberIDs(env.Room) {
			if id == env.Exclude {
				continue
			}
			if c, ok := h.clients[id]; ok {
				h.send(c, &ev)
			}
		}
	case ScopeLoud:
		for _, id := range h.state.UserIDs() {
			if h.state.IsMuted(id) {
				continue
			}
			if c, ok := h.clients[id]; ok {
				h.send(c, &ev)
			}
		}
	default:
		h.log.Warn().Str("scope", env.Scope).Msg("unknown relay scope")
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
