package model

import "errors"

// Common errors used across the application
var (
	// Device errors
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device already has a token")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionDeleted    = errors.New("session has been deleted")
	ErrSessionNotPlaying = errors.New("session is not playing")
	ErrInvalidStatus     = errors.New("invalid session status")
	ErrNotMember         = errors.New("device is not a member of this session")
	ErrNotAdmin          = errors.New("player is not the session admin")
	ErrRoleForbidden     = errors.New("player role may not perform this action")

	// Join token errors
	ErrJoinTokenNotFound = errors.New("join token not found")
	ErrInvalidJoinToken  = errors.New("invalid join token")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrPlayerRequired = errors.New("a player id is required for this action")

	// Question errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrAlreadyAnswered  = errors.New("question already answered by this player")

	// ErrDataIntegrity means storage holds rows that uniqueness rules forbid
	ErrDataIntegrity = errors.New("data integrity violation")
)
