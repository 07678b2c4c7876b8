package model

import "time"

// DeviceID is the client-supplied identity of an installation
type DeviceID string

// Device is a client installation holding exactly one server-issued token
type Device struct {
	ID        DeviceID
	TokenHash string // hex digest of the auth token, never the token itself
	CreatedAt time.Time
}
