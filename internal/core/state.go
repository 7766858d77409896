package core

import (
	"fmt"
	"sort"
	"time"
)

// User is a registered connection as tracked by the directory.
type User struct {
	Name      string
	CreatedAt time.Time
}

// Room groups connections under a client-chosen identifier.
// Members is ordered: the member at index 0 is the room owner.
type Room struct {
	PasswordHash string
	Members      []string
	CreatedAt    time.Time
}

// State is the in-memory directory of users, rooms and loud-speaker
// opt-outs. It is owned by a single Hub goroutine and is not safe for
// concurrent use.
type State struct {
	users   map[string]*User
	rooms   map[string]*Room
	muted   map[string]struct{}
	nameSeq int
}

// NewState constructs an empty directory.
func NewState() *State {
	return &State{
		users: make(map[string]*User),
		rooms: make(map[string]*Room),
		muted: make(map[string]struct{}),
	}
}

// NextName returns the next generated display name. The sequence is
// process-wide and never reused, so generated names stay unique across
// disconnect/reconnect cycles without a directory lookup.
func (s *State) NextName() string {
	s.nameSeq++
	return fmt.Sprintf("User%d", s.nameSeq)
}

// RegisterUser inserts a user for connID. Returns false if the
// connection is already registered.
func (s *State) RegisterUser(connID, name string, createdAt time.Time) bool {
	if _, ok := s.users[connID]; ok {
		return false
	}
	s.users[connID] = &User{Name: name, CreatedAt: createdAt}
	return true
}

// RenameUser replaces the display name of connID. Uniqueness must have
// been checked by the caller. Returns false for unknown connections.
func (s *State) RenameUser(connID, name string) bool {
	u, ok := s.users[connID]
	if !ok {
		return false
	}
	u.Name = name
	return true
}

// RemoveUser deletes the user and its loud-speaker opt-out. Room
// membership is not touched; the Hub cleans rooms before calling this.
func (s *State) RemoveUser(connID string) {
	delete(s.users, connID)
	delete(s.muted, connID)
}

// User returns the user registered for connID.
func (s *State) User(connID string) (*User, bool) {
	u, ok := s.users[connID]
	return u, ok
}

// UserIDs returns all registered connection ids, sorted.
func (s *State) UserIDs() []string {
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UserNames returns the display names of all registered users.
func (s *State) UserNames() []string {
	names := make([]string, 0, len(s.users))
	for _, u := range s.users {
		names = append(names, u.Name)
	}
	return names
}

// NameTakenBy reports whether a connection other than connID currently
// holds the given display name. Exact, case-sensitive match.
func (s *State) NameTakenBy(name, connID string) bool {
	for id, u := range s.users {
		if u.Name == name && id != connID {
			return true
		}
	}
	return false
}

// CreateRoom inserts a room keyed by roomID, replacing any prior room
// under the same id.
func (s *State) CreateRoom(roomID, passwordHash string, members []string, createdAt time.Time) {
	s.rooms[roomID] = &Room{
		PasswordHash: passwordHash,
		Members:      members,
		CreatedAt:    createdAt,
	}
}

// AddMember appends connID to the room's member list. Adding an
// existing member is a no-op. Returns false if the room does not exist.
func (s *State) AddMember(roomID, connID string) bool {
	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for _, id := range r.Members {
		if id == connID {
			return true
		}
	}
	r.Members = append(r.Members, connID)
	return true
}

// RemoveMember deletes the first occurrence of connID from the room's
// member list, preserving the order of the remaining members.
func (s *State) RemoveMember(roomID, connID string) {
	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	for i, id := range r.Members {
		if id == connID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return
		}
	}
}

// DeleteRoomIfEmpty removes the room when its member list is empty and
// reports whether it did. Must be called after every RemoveMember so
// that an empty room is never observable.
func (s *State) DeleteRoomIfEmpty(roomID string) bool {
	r, ok := s.rooms[roomID]
	if !ok || len(r.Members) > 0 {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Room returns the room stored under roomID.
func (s *State) Room(roomID string) (*Room, bool) {
	r, ok := s.rooms[roomID]
	return r, ok
}

// RoomIDs returns all room ids, sorted.
func (s *State) RoomIDs() []string {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoomsOf returns the ids of every room connID is a member of, sorted.
func (s *State) RoomsOf(connID string) []string {
	var ids []string
	for roomID, r := range s.rooms {
		for _, id := range r.Members {
			if id == connID {
				ids = append(ids, roomID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// SetMuted adds connID to the loud-speaker opt-out set.
func (s *State) SetMuted(connID string) {
	s.muted[connID] = struct{}{}
}

// ClearMuted removes connID from the loud-speaker opt-out set.
func (s *State) ClearMuted(connID string) {
	delete(s.muted, connID)
}

// IsMuted reports whether connID opted out of loud-speaker messages.
func (s *State) IsMuted(connID string) bool {
	_, ok := s.muted[connID]
	return ok
}
