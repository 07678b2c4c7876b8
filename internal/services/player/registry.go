package player

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/storage"
)

// Registry owns player records and the uniqueness rules around them
type Registry struct {
	storage storage.Storage
	ids     *idgen.Generator
	clock   clock.Clock
	logger  *slog.Logger
}

// NewRegistry creates a new player Registry
func NewRegistry(storage storage.Storage, ids *idgen.Generator, clock clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		storage: storage,
		ids:     ids,
		clock:   clock,
		logger:  logger,
	}
}

// atMostOne collapses a query result to presence, flagging duplicate rows
func (r *Registry) atMostOne(ctx context.Context, q storage.PlayerQuery) (bool, error) {
	players, err := r.storage.FindPlayers(ctx, q)
	if err != nil {
		return false, err
	}
	switch len(players) {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.logger.Error("duplicate player rows",
			slog.String("player_id", string(q.ID)),
			slog.String("device_id", string(q.DeviceID)),
			slog.String("session_id", string(q.SessionID)),
			slog.Int("count", len(players)),
		)
		return false, model.ErrDataIntegrity
	}
}

// Exists reports whether the device already holds role in the session
func (r *Registry) Exists(ctx context.Context, device model.DeviceID, session model.SessionID, role model.Role) (bool, error) {
	return r.atMostOne(ctx, storage.PlayerQuery{DeviceID: device, SessionID: session, Role: &role})
}

// ExistsByID reports whether a player with id exists
func (r *Registry) ExistsByID(ctx context.Context, id model.PlayerID) (bool, error) {
	return r.atMostOne(ctx, storage.PlayerQuery{ID: id})
}

// MintID returns a player id that is not yet in use
func (r *Registry) MintID(ctx context.Context) (model.PlayerID, error) {
	id, err := r.ids.New(ctx, idgen.PlayerID, func(ctx context.Context, candidate string) (bool, error) {
		return r.ExistsByID(ctx, model.PlayerID(candidate))
	})
	return model.PlayerID(id), err
}

// Create inserts p if neither its (device, session, role) triple nor its id is taken
func (r *Registry) Create(ctx context.Context, p *model.Player) error {
	exists, err := r.Exists(ctx, p.DeviceID, p.SessionID, p.Role)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrPlayerExists
	}
	exists, err = r.ExistsByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrPlayerExists
	}

	if err := r.storage.SavePlayer(ctx, p); err != nil {
		return err
	}
	r.logger.Info("player created",
		slog.String("player_id", string(p.ID)),
		slog.String("session_id", string(p.SessionID)),
		slog.String("role", p.Role.String()),
	)
	return nil
}

// Register mints an id and creates a player for device in session
func (r *Registry) Register(ctx context.Context, device model.DeviceID, session model.SessionID, role model.Role, username string) (*model.Player, error) {
	id, err := r.MintID(ctx)
	if err != nil {
		return nil, err
	}
	p := &model.Player{
		ID:        id,
		DeviceID:  device,
		SessionID: session,
		Role:      role,
		Username:  username,
		CreatedAt: r.clock.Now(),
	}
	if err := r.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the single player with id
func (r *Registry) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	players, err := r.storage.FindPlayers(ctx, storage.PlayerQuery{ID: id})
	if err != nil {
		return nil, err
	}
	switch len(players) {
	case 0:
		return nil, model.ErrPlayerNotFound
	case 1:
		return players[0], nil
	default:
		return nil, fmt.Errorf("player %s has %d rows: %w", id, len(players), model.ErrDataIntegrity)
	}
}

// SetUsername renames p, reporting whether anything changed
func (r *Registry) SetUsername(ctx context.Context, p *model.Player, username string) (bool, error) {
	changed, err := r.storage.UpdatePlayerUsername(ctx, p.ID, username)
	if err != nil {
		return false, err
	}
	if changed {
		p.Username = username
	}
	return changed, nil
}

// ListBySession returns the session's players ordered for a scoreboard:
// highest score first, then by username
func (r *Registry) ListBySession(ctx context.Context, session model.SessionID) ([]*model.Player, error) {
	players, err := r.storage.FindPlayers(ctx, storage.PlayerQuery{SessionID: session})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Username < players[j].Username
	})
	return players, nil
}

// ListByDevice returns every player the device holds, across sessions
func (r *Registry) ListByDevice(ctx context.Context, device model.DeviceID) ([]*model.Player, error) {
	return r.storage.FindPlayers(ctx, storage.PlayerQuery{DeviceID: device})
}
