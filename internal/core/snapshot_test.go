package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewState()
	s.RegisterUser("a", s.NextName(), time.Now())
	s.RegisterUser("b", s.NextName(), time.Now())
	s.RegisterUser("c", "carol", time.Now())
	s.CreateRoom("lobby", "", []string{"a", "b", "c"}, time.Now())
	s.CreateRoom("side", "", []string{"c"}, time.Now())

	// Through the wire: the sync payload is JSON.
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	rebuilt := FromSnapshot(snap)

	if !equalStrings(rebuilt.UserIDs(), s.UserIDs()) {
		t.Fatalf("user ids differ: %v vs %v", rebuilt.UserIDs(), s.UserIDs())
	}
	for _, id := range s.UserIDs() {
		want, _ := s.User(id)
		got, ok := rebuilt.User(id)
		if !ok || got.Name != want.Name {
			t.Fatalf("user %s differs: %+v vs %+v", id, got, want)
		}
	}
	if !equalStrings(rebuilt.RoomIDs(), s.RoomIDs()) {
		t.Fatalf("room ids differ: %v vs %v", rebuilt.RoomIDs(), s.RoomIDs())
	}
	for _, id := range s.RoomIDs() {
		want, _ := s.Room(id)
		got, ok := rebuilt.Room(id)
		if !ok || !equalStrings(got.Members, want.Members) {
			t.Fatalf("room %s members differ: %v vs %v", id, got.Members, want.Members)
		}
	}
}

func TestFromSnapshotSeedsNameSequence(t *testing.T) {
	s := NewState()
	s.RegisterUser("a", "User7", time.Now())
	s.RegisterUser("b", "custom-name", time.Now())

	rebuilt := FromSnapshot(s.Snapshot())
	if got := rebuilt.NextName(); got != "User8" {
		t.Fatalf("expected User8, got %q", got)
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	s := NewState()
	s.CreateRoom("lobby", "", []string{"a", "b"}, time.Now())

	snap := s.Snapshot()
	s.RemoveMember("lobby", "a")

	if !equalStrings(snap.Rooms["lobby"].Users, []string{"a", "b"}) {
		t.Fatalf("snapshot shares member slice with live state: %v", snap.Rooms["lobby"].Users)
	}
}
