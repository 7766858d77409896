package core

import "context"

// Envelope scopes for cross-process delivery.
const (
	// ScopeAll targets every connected client.
	ScopeAll = "all"
	// ScopeRoom targets members of Envelope.Room, resolved against the
	// receiving process's own directory replica.
	ScopeRoom = "room"
	// ScopeLoud targets registered clients not opted out of loud-speaker.
	ScopeLoud = "loud"
)

// Envelope is one transport-level emit forwarded between processes.
// Exclude names a connection id to skip; connections live on exactly
// one process, so on every other process the exclusion is a no-op.
type Envelope struct {
	Origin  string `json:"origin"`
	Scope   string `json:"scope"`
	Room    string `json:"room,omitempty"`
	Exclude string `json:"exclude,omitempty"`
	Event   Event  `json:"event"`
}

// Relay forwards transport-level emits to peer processes. It carries no
// state: each process keeps an independent directory replica, so room
// scope is resolved locally on the receiving side. This is a scaling
// boundary, not replication.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}
