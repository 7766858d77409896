package core

import (
	"strconv"
	"strings"
	"time"
)

// UserSnapshot is the wire form of a directory user.
type UserSnapshot struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomSnapshot is the wire form of a directory room. The member order
// is significant: index 0 is the owner. Password hashes stay
// server-side and are not part of the snapshot.
type RoomSnapshot struct {
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the full directory sync payload sent on registration.
type Snapshot struct {
	Users map[string]UserSnapshot `json:"userMap"`
	Rooms map[string]RoomSnapshot `json:"roomMap"`
}

// Snapshot captures the current directory.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Users: make(map[string]UserSnapshot, len(s.users)),
		Rooms: make(map[string]RoomSnapshot, len(s.rooms)),
	}
	for id, u := range s.users {
		snap.Users[id] = UserSnapshot{Name: u.Name, CreatedAt: u.CreatedAt}
	}
	for id, r := range s.rooms {
		members := make([]string, len(r.Members))
		copy(members, r.Members)
		snap.Rooms[id] = RoomSnapshot{Users: members, CreatedAt: r.CreatedAt}
	}
	return snap
}

// UserSnapshotOf captures a single user, for incremental syncs.
func (s *State) UserSnapshotOf(connID string) (UserSnapshot, bool) {
	u, ok := s.users[connID]
	if !ok {
		return UserSnapshot{}, false
	}
	return UserSnapshot{Name: u.Name, CreatedAt: u.CreatedAt}, true
}

// RoomSnapshotOf captures a single room, for incremental syncs.
func (s *State) RoomSnapshotOf(roomID string) (RoomSnapshot, bool) {
	r, ok := s.rooms[roomID]
	if !ok {
		return RoomSnapshot{}, false
	}
	members := make([]string, len(r.Members))
	copy(members, r.Members)
	return RoomSnapshot{Users: members, CreatedAt: r.CreatedAt}, true
}

// MemberIDs returns a copy of the room's member list.
func (s *State) MemberIDs(roomID string) []string {
	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	members := make([]string, len(r.Members))
	copy(members, r.Members)
	return members
}

// FromSnapshot rebuilds a directory from a full sync payload. The
// result is observationally identical to the source at snapshot time:
// same users, same room memberships in the same order. The name
// sequence is seeded past the highest generated name seen so that the
// rebuilt directory keeps producing fresh names.
func FromSnapshot(snap Snapshot) *State {
	s := NewState()
	for id, u := range snap.Users {
		s.users[id] = &User{Name: u.Name, CreatedAt: u.CreatedAt}
		if n, ok := generatedNameSeq(u.Name); ok && n > s.nameSeq {
			s.nameSeq = n
		}
	}
	for id, r := range snap.Rooms {
		members := make([]string, len(r.Users))
		copy(members, r.Users)
		s.rooms[id] = &Room{Members: members, CreatedAt: r.CreatedAt}
	}
	return s
}

func generatedNameSeq(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "User")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
