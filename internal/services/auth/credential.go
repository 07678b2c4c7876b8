package auth

import (
	"strings"

	"github.com/mcoot/quizroom/internal/model"
)

// Credential is the parsed form of "deviceID:token[:playerID]"
type Credential struct {
	DeviceID model.DeviceID
	Token    string
	PlayerID model.PlayerID
}

// HasPlayer reports whether the credential names a player
func (c Credential) HasPlayer() bool {
	return c.PlayerID != ""
}

// Header renders the credential in Authorization header form
func (c Credential) Header() string {
	h := string(c.DeviceID) + ":" + c.Token
	if c.HasPlayer() {
		h += ":" + string(c.PlayerID)
	}
	return h
}

// WithPlayer returns a copy of c scoped to player id
func (c Credential) WithPlayer(id model.PlayerID) Credential {
	c.PlayerID = id
	return c
}

// ParseCredential splits an Authorization header value.
// An empty header is ErrUnauthorized; any other shape that is not
// two or three non-empty segments is ErrMalformedCredential.
func ParseCredential(header string) (Credential, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Credential{}, ErrUnauthorized
	}

	parts := strings.Split(header, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Credential{}, ErrMalformedCredential
	}
	for _, p := range parts {
		if p == "" {
			return Credential{}, ErrMalformedCredential
		}
	}

	cred := Credential{
		DeviceID: model.DeviceID(parts[0]),
		Token:    parts[1],
	}
	if len(parts) == 3 {
		cred.PlayerID = model.PlayerID(parts[2])
	}
	return cred, nil
}

// ValidDeviceID reports whether id can be used in a credential
func ValidDeviceID(id string) bool {
	return id != "" && !strings.Contains(id, ":")
}
