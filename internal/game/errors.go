package game

import "errors"

var (
	ErrAgentNotFound     = errors.New("agent not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrDeadPlayerAction  = errors.New("dead player cannot act")
	ErrInvalidVoteTarget = errors.New("vote target does not exist")
	ErrEmptyVoteTarget   = errors.New("vote target must not be empty")
	ErrUnsupportedAction = errors.New("unsupported action type")
	ErrRoomFinished      = errors.New("room already finished")
	ErrPlayerNotInRoom   = errors.New("player not in room")
	ErrNamePoolExhausted = errors.New("display name pool exhausted")
)
