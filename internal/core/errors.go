package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNotRegistered     = "not_registered"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeDuplicateNickname = "duplicate_nickname"
	ErrCodeRoomCreateFailed  = "room_create_failed"
	ErrCodeEmptyMessage      = "empty_message"
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeBadRequest        = "bad_request"
)

var (
	ErrNotRegistered = errors.New("not registered")
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotInRoom     = errors.New("not in room")
	ErrBadRequest    = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
