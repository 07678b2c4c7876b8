package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/services/player"
	"github.com/mcoot/quizroom/internal/storage"
)

// Created is the result of creating a session: the session, its admin and the two invite tokens
type Created struct {
	Session   *model.Session
	Admin     *model.Player
	ModToken  string
	UserToken string
}

// Registry manages session lifecycle and joining
type Registry struct {
	storage storage.Storage
	players *player.Registry
	ids     *idgen.Generator
	clock   clock.Clock
	logger  *slog.Logger
}

// NewRegistry creates a new session Registry
func NewRegistry(
	storage storage.Storage,
	players *player.Registry,
	ids *idgen.Generator,
	clock clock.Clock,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage: storage,
		players: players,
		ids:     ids,
		clock:   clock,
		logger:  logger,
	}
}

// Create opens a new Playing session administered by device under username
func (r *Registry) Create(ctx context.Context, device model.DeviceID, username string) (*Created, error) {
	sessionID, err := r.ids.New(ctx, idgen.SessionID, func(ctx context.Context, candidate string) (bool, error) {
		return r.storage.SessionExists(ctx, model.SessionID(candidate))
	})
	if err != nil {
		return nil, err
	}
	adminID, err := r.players.MintID(ctx)
	if err != nil {
		return nil, err
	}

	modToken, err := r.mintJoinToken(ctx, "")
	if err != nil {
		return nil, err
	}
	userToken, err := r.mintJoinToken(ctx, modToken)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	session := &model.Session{
		ID:        model.SessionID(sessionID),
		AdminID:   adminID,
		Status:    model.StatusPlaying,
		CreatedAt: now,
	}
	admin := &model.Player{
		ID:        adminID,
		DeviceID:  device,
		SessionID: session.ID,
		Role:      model.RoleAdmin,
		Username:  username,
		CreatedAt: now,
	}
	tokens := []model.JoinToken{
		{Token: modToken, SessionID: session.ID, Role: model.RoleModerator},
		{Token: userToken, SessionID: session.ID, Role: model.RoleUser},
	}

	if err := r.storage.CreateSession(ctx, session, tokens, admin); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	r.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("admin_id", string(adminID)),
		slog.String("device_id", string(device)),
	)
	return &Created{Session: session, Admin: admin, ModToken: modToken, UserToken: userToken}, nil
}

// mintJoinToken returns an unused join token distinct from reserved
func (r *Registry) mintJoinToken(ctx context.Context, reserved string) (string, error) {
	return r.ids.New(ctx, idgen.JoinToken, func(ctx context.Context, candidate string) (bool, error) {
		if candidate == reserved {
			return true, nil
		}
		found, err := r.storage.FindJoinTokens(ctx, candidate)
		if err != nil {
			return false, err
		}
		return len(found) > 0, nil
	})
}

// ResolveJoinToken returns the single session/role pair a token grants
func (r *Registry) ResolveJoinToken(ctx context.Context, token string) (*model.JoinToken, error) {
	found, err := r.storage.FindJoinTokens(ctx, token)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, model.ErrJoinTokenNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("join token %s has %d rows: %w", token, len(found), model.ErrDataIntegrity)
	}
}

// Join adds device to the session a token points at, in the token's role.
// Tokens are not consumed; the same token admits any number of devices.
func (r *Registry) Join(ctx context.Context, token string, device model.DeviceID, username string) (*model.Player, error) {
	jt, err := r.ResolveJoinToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrJoinTokenNotFound) {
			return nil, model.ErrInvalidJoinToken
		}
		return nil, err
	}

	session, err := r.storage.GetSession(ctx, jt.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.StatusDeleted {
		return nil, model.ErrSessionDeleted
	}

	p, err := r.players.Register(ctx, device, jt.SessionID, jt.Role, username)
	if err != nil {
		return nil, err
	}
	r.logger.Info("player joined session",
		slog.String("session_id", string(jt.SessionID)),
		slog.String("player_id", string(p.ID)),
		slog.String("role", jt.Role.String()),
	)
	return p, nil
}

// SetStatus moves a session to status; any known status may follow any other
func (r *Registry) SetStatus(ctx context.Context, id model.SessionID, status model.SessionStatus) (*model.Session, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if err := r.storage.UpdateSessionStatus(ctx, id, status); err != nil {
		return nil, err
	}
	r.logger.Info("session status changed",
		slog.String("session_id", string(id)),
		slog.String("status", status.String()),
	)
	return r.storage.GetSession(ctx, id)
}

// Get returns the session with id
func (r *Registry) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return r.storage.GetSession(ctx, id)
}

// IsMember reports whether device holds any player in the session
func (r *Registry) IsMember(ctx context.Context, id model.SessionID, device model.DeviceID) (bool, error) {
	players, err := r.storage.FindPlayers(ctx, storage.PlayerQuery{SessionID: id, DeviceID: device})
	if err != nil {
		return false, err
	}
	return len(players) > 0, nil
}
