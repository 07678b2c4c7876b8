package model

import (
	"strconv"
	"time"
)

// SessionID uniquely identifies a session (game room)
type SessionID string

// SessionStatus is the lifecycle state of a session
type SessionStatus int

const (
	StatusDeleted SessionStatus = 0
	StatusPlaying SessionStatus = 1
	StatusPaused  SessionStatus = 2
)

// Valid reports whether s is one of the known statuses
func (s SessionStatus) Valid() bool {
	return s == StatusDeleted || s == StatusPlaying || s == StatusPaused
}

func (s SessionStatus) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Session is a game room with one admin and zero or more joined players
type Session struct {
	ID        SessionID
	AdminID   PlayerID // player id of the creator
	Status    SessionStatus
	CreatedAt time.Time
}

// Role is the permission level a player holds within a session
type Role int

const (
	RoleAdmin     Role = 0
	RoleModerator Role = 1
	RoleUser      Role = 2
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleUser
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleModerator:
		return "moderator"
	case RoleUser:
		return "user"
	default:
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
}

// JoinToken is a short code granting a role in a specific session.
// Admin is never distributed this way.
type JoinToken struct {
	Token     string
	SessionID SessionID
	Role      Role
}
