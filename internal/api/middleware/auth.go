package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	sessionContextKey  contextKey = "session"
)

// Authenticator verifies a parsed credential
type Authenticator interface {
	Authenticate(ctx context.Context, cred auth.Credential) (*auth.Identity, error)
}

// SessionResolver loads sessions and checks device membership
type SessionResolver interface {
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)
	IsMember(ctx context.Context, id model.SessionID, device model.DeviceID) (bool, error)
}

// PlayerLookup loads players by id
type PlayerLookup interface {
	Get(ctx context.Context, id model.PlayerID) (*model.Player, error)
}

// Authenticate verifies the "deviceID:token[:playerID]" Authorization header
// and attaches the resulting identity to the request
func Authenticate(authenticator Authenticator) Stage {
	return func(r *http.Request) (*http.Request, error) {
		cred, err := auth.ParseCredential(r.Header.Get("Authorization"))
		if err != nil {
			return nil, err
		}

		identity, err := authenticator.Authenticate(r.Context(), cred)
		if err != nil {
			return nil, err
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		if identity.Player != nil {
			PublishTo(ctx, identity.Player.SessionID)
		}
		return r.WithContext(ctx), nil
	}
}

// ResolveSession loads the {sessionID} path variable and checks that the
// authenticated device, and player if any, belong to it
func ResolveSession(sessions SessionResolver) Stage {
	return func(r *http.Request) (*http.Request, error) {
		identity := MustGetIdentity(r.Context())
		id := model.SessionID(mux.Vars(r)["sessionID"])

		session, err := sessions.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}

		member, err := sessions.IsMember(r.Context(), session.ID, identity.Device.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, model.ErrNotMember
		}
		if identity.Player != nil && identity.Player.SessionID != session.ID {
			return nil, model.ErrNotMember
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		PublishTo(ctx, session.ID)
		return r.WithContext(ctx), nil
	}
}

// RequirePlayer rejects credentials without a player segment
func RequirePlayer() Stage {
	return func(r *http.Request) (*http.Request, error) {
		if GetPlayer(r.Context()) == nil {
			return nil, model.ErrPlayerRequired
		}
		return r, nil
	}
}

// RequireAdmin allows only the resolved session's admin through.
// A device-only credential passes when that device owns the session's admin
// player, which is then attached to the identity.
func RequireAdmin(players PlayerLookup) Stage {
	return func(r *http.Request) (*http.Request, error) {
		session := MustGetSession(r.Context())
		if player := GetPlayer(r.Context()); player != nil {
			if !player.IsAdminOf(session) {
				return nil, model.ErrNotAdmin
			}
			return r, nil
		}

		identity := MustGetIdentity(r.Context())
		admin, err := players.Get(r.Context(), session.AdminID)
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, model.ErrNotAdmin
		}
		if err != nil {
			return nil, err
		}
		if admin.DeviceID != identity.Device.ID || !admin.IsAdminOf(session) {
			return nil, model.ErrNotAdmin
		}

		resolved := &auth.Identity{Device: identity.Device, Player: admin}
		return r.WithContext(context.WithValue(r.Context(), identityContextKey, resolved)), nil
	}
}

// RequireRole allows only players holding one of roles through
func RequireRole(roles ...model.Role) Stage {
	return func(r *http.Request) (*http.Request, error) {
		player := GetPlayer(r.Context())
		if player == nil {
			return nil, model.ErrPlayerRequired
		}
		if !player.HasRole(roles...) {
			return nil, model.ErrRoleForbidden
		}
		return r, nil
	}
}

// GetIdentity returns the authenticated identity from the request context
func GetIdentity(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityContextKey).(*auth.Identity)
	return identity
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) *auth.Identity {
	identity := GetIdentity(ctx)
	if identity == nil {
		panic("no identity in context - Authenticate stage not applied?")
	}
	return identity
}

// GetPlayer returns the authenticated player, or nil when the credential named none
func GetPlayer(ctx context.Context) *model.Player {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Player
	}
	return nil
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - RequirePlayer stage not applied?")
	}
	return player
}

// GetSession returns the resolved session from the request context
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// MustGetSession returns the resolved session or panics
func MustGetSession(ctx context.Context) *model.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - ResolveSession stage not applied?")
	}
	return session
}
