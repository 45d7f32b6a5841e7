package services

import (
	"errors"

	"github.com/abrezinsky/quizattack/internal/engine"
	apperrors "github.com/abrezinsky/quizattack/internal/errors"
)

// Service errors
var (
	ErrNicknameRequired  = apperrors.Validation("nickname is required")
	ErrNicknameTaken     = apperrors.Conflict("nickname is already taken in this room")
	ErrRoomFull          = apperrors.Conflict("room is full")
	ErrWrongPassword     = apperrors.Forbidden("wrong room password")
	ErrNotHost           = apperrors.Forbidden("only the host can do that")
	ErrRoomNotFound      = apperrors.NotFound("room not found")
	ErrPackNotFound      = apperrors.NotFound("quiz pack not found")
	ErrGameRunning       = apperrors.Conflict("a game is already running in this room")
	ErrNoGame            = apperrors.NotFound("no game is running in this room")
	ErrInvalidBaseURL    = apperrors.Validation("base URL must start with http:// or https://")
	ErrPackHasNoQuestion = apperrors.Validation("the selected quiz pack has no questions")
)

// playError gives engine sentinels an error kind the transports understand
func playError(err error) error {
	if err == nil {
		return nil
	}
	kind := apperrors.ErrConflict
	switch {
	case errors.Is(err, engine.ErrStopped):
		return ErrNoGame
	case errors.Is(err, engine.ErrUnknownPlayer):
		kind = apperrors.ErrForbidden
	case errors.Is(err, engine.ErrInvalidOption):
		kind = apperrors.ErrValidation
	case errors.Is(err, engine.ErrCardNotInHand):
		kind = apperrors.ErrNotFound
	case errors.Is(err, engine.ErrPaused),
		errors.Is(err, engine.ErrNotAccepting),
		errors.Is(err, engine.ErrAlreadyAnswered),
		errors.Is(err, engine.ErrCannotPause):
	default:
		return err
	}
	// The engine messages are already user facing.
	return &apperrors.Error{Kind: kind, Message: err.Error()}
}
