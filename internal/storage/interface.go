package storage

import (
	"context"
	"errors"

	"github.com/mcoot/quizroom/internal/model"
)

// ErrDuplicateKey is returned when a write collides with an existing primary key
var ErrDuplicateKey = errors.New("duplicate key")

// PlayerQuery selects players by any combination of fields.
// Zero-valued fields are ignored; a nil Role matches every role.
type PlayerQuery struct {
	ID        model.PlayerID
	DeviceID  model.DeviceID
	SessionID model.SessionID
	Role      *model.Role
}

// Matches reports whether p satisfies every set field of q
func (q PlayerQuery) Matches(p *model.Player) bool {
	if q.ID != "" && p.ID != q.ID {
		return false
	}
	if q.DeviceID != "" && p.DeviceID != q.DeviceID {
		return false
	}
	if q.SessionID != "" && p.SessionID != q.SessionID {
		return false
	}
	if q.Role != nil && p.Role != *q.Role {
		return false
	}
	return true
}

// Storage defines the interface for data persistence.
// Find* operations return every matching record so callers can detect
// uniqueness violations instead of having them silently collapsed.
type Storage interface {
	// Device operations
	SaveDevice(ctx context.Context, device *model.Device) error
	GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)
	DeviceTokenExists(ctx context.Context, tokenHash string) (bool, error)

	// Session operations
	// CreateSession persists the session, its join tokens and its admin player as one unit
	CreateSession(ctx context.Context, session *model.Session, tokens []model.JoinToken, admin *model.Player) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	SessionExists(ctx context.Context, id model.SessionID) (bool, error)
	UpdateSessionStatus(ctx context.Context, id model.SessionID, status model.SessionStatus) error

	// Join token operations
	FindJoinTokens(ctx context.Context, token string) ([]model.JoinToken, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	FindPlayers(ctx context.Context, q PlayerQuery) ([]*model.Player, error)
	UpdatePlayerUsername(ctx context.Context, id model.PlayerID, username string) (bool, error)

	// Question operations
	SaveQuestion(ctx context.Context, question *model.Question) error
	GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error)
	ListQuestions(ctx context.Context, sessionID model.SessionID) ([]*model.Question, error)
	// RecordAnswer stores the answer and, if it is correct, adds points to the
	// player's score in the same unit. It returns the player's resulting score.
	RecordAnswer(ctx context.Context, answer *model.Answer, points int) (int, error)

	// Close releases any connections held by the backend
	Close() error
}
