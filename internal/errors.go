package internal

import "fmt"

type ErrorCode string

const (
	CodeRoomFull         ErrorCode = "ROOM_FULL"
	CodeRoomNotFound     ErrorCode = "ROOM_NOT_FOUND"
	CodeGameInProgress   ErrorCode = "GAME_IN_PROGRESS"
	CodeNotHost          ErrorCode = "NOT_HOST"
	CodeNotEnoughPlayers ErrorCode = "NOT_ENOUGH_PLAYERS"
	CodeInvalidPhase     ErrorCode = "INVALID_PHASE"
	CodeInvalidMessage   ErrorCode = "INVALID_MESSAGE"
	CodePlayerNotFound   ErrorCode = "PLAYER_NOT_FOUND"
	CodeAlreadyVoted     ErrorCode = "ALREADY_VOTED"
	CodeCannotVoteSelf   ErrorCode = "CANNOT_VOTE_SELF"
	CodeDuplicateName    ErrorCode = "DUPLICATE_NAME"
	CodeNameTooShort     ErrorCode = "NAME_TOO_SHORT"
	CodeNameTooLong      ErrorCode = "NAME_TOO_LONG"
)

// GameError is a rejection that is reported back to the client that caused it.
type GameError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any GameError carrying the same code.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

func NewGameError(code ErrorCode, format string, args ...any) *GameError {
	return &GameError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrRoomFull         = NewGameError(CodeRoomFull, "Room is full")
	ErrRoomNotFound     = NewGameError(CodeRoomNotFound, "Room not found")
	ErrGameInProgress   = NewGameError(CodeGameInProgress, "Game already in progress")
	ErrNotHost          = NewGameError(CodeNotHost, "Only the host can do that")
	ErrNotEnoughPlayers = NewGameError(CodeNotEnoughPlayers, "Need at least %d players", MinPlayersToStart)
	ErrInvalidPhase     = NewGameError(CodeInvalidPhase, "Action not allowed in the current phase")
	ErrInvalidMessage   = NewGameError(CodeInvalidMessage, "Invalid message format")
	ErrPlayerNotFound   = NewGameError(CodePlayerNotFound, "Player not found")
	ErrAlreadyVoted     = NewGameError(CodeAlreadyVoted, "Already voted")
	ErrCannotVoteSelf   = NewGameError(CodeCannotVoteSelf, "Cannot vote on your own answer")
	ErrDuplicateName    = NewGameError(CodeDuplicateName, "Name already taken")
	ErrNameTooShort     = NewGameError(CodeNameTooShort, "Name must be at least %d characters", MinNameLength)
	ErrNameTooLong      = NewGameError(CodeNameTooLong, "Name must be at most %d characters", MaxNameLength)
)
