package core

// Client is a connected transport session as seen by the core layer.
// The transport is the only writer to Commands and closes it when the
// connection ends; the Hub is the only writer to Events.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client handle with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 32),
	}
}
