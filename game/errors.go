package game

import "errors"

var (
	ErrRoomNotFound           = errors.New("room-not-found")
	ErrUsernameTaken          = errors.New("username-taken")
	ErrRoomFull               = errors.New("room-full")
	ErrRoomNotJoinable        = errors.New("room-not-joinable")
	ErrIllegalStateTransition = errors.New("illegal-state-transition")
	ErrUnknownRecipient       = errors.New("unknown-recipient")
	ErrCapacityExceeded       = errors.New("capacity-exceeded")
	ErrUnknownEventKind       = errors.New("unknown-event-kind")
	ErrInvalidUsername        = errors.New("invalid-username")
	ErrSendBufferFull         = errors.New("send-buffer-full")
	ErrSessionReleased        = errors.New("session-released")
)
