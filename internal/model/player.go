package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player is a device's participation record within one session
type Player struct {
	ID        PlayerID
	DeviceID  DeviceID
	SessionID SessionID
	Role      Role
	Username  string
	Score     int
	CreatedAt time.Time
}

// IsAdminOf reports whether the player administers the given session
func (p *Player) IsAdminOf(s *Session) bool {
	return p != nil && s != nil && p.SessionID == s.ID && p.ID == s.AdminID
}

// HasRole reports whether the player holds any of the given roles
func (p *Player) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
