package auth

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/storage"
)

// Errors
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrTokenAlreadyIssued  = errors.New("a token has already been issued for this device")
	ErrInvalidDeviceID     = errors.New("device id must be non-empty and must not contain ':'")
)

// PlayerResolver looks up a single player by id
type PlayerResolver interface {
	Get(ctx context.Context, id model.PlayerID) (*model.Player, error)
}

// IssuedToken is returned exactly once per device
type IssuedToken struct {
	DeviceID model.DeviceID
	Token    string
}

// Identity is the authenticated caller; Player is nil when the credential names none
type Identity struct {
	Device *model.Device
	Player *model.Player
}

// Service issues device tokens and verifies credentials
type Service struct {
	storage storage.Storage
	ids     *idgen.Generator
	players PlayerResolver
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new auth Service
func New(storage storage.Storage, ids *idgen.Generator, players PlayerResolver, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		ids:     ids,
		players: players,
		clock:   clock,
		logger:  logger,
	}
}

// Digest returns the stored form of a token
func Digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueToken mints the one and only token for a device
func (s *Service) IssueToken(ctx context.Context, deviceID model.DeviceID) (*IssuedToken, error) {
	if !ValidDeviceID(string(deviceID)) {
		return nil, ErrInvalidDeviceID
	}

	_, err := s.storage.GetDevice(ctx, deviceID)
	if err == nil {
		return nil, ErrTokenAlreadyIssued
	}
	if !errors.Is(err, model.ErrDeviceNotFound) {
		return nil, err
	}

	token, err := s.ids.New(ctx, idgen.DeviceToken, func(ctx context.Context, candidate string) (bool, error) {
		return s.storage.DeviceTokenExists(ctx, Digest(candidate))
	})
	if err != nil {
		return nil, err
	}

	device := &model.Device{
		ID:        deviceID,
		TokenHash: Digest(token),
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SaveDevice(ctx, device); err != nil {
		if errors.Is(err, model.ErrDeviceExists) {
			return nil, ErrTokenAlreadyIssued
		}
		return nil, err
	}

	s.logger.Info("device token issued", slog.String("device_id", string(deviceID)))
	return &IssuedToken{DeviceID: deviceID, Token: token}, nil
}

// Authenticate verifies cred and resolves the identity it names
func (s *Service) Authenticate(ctx context.Context, cred Credential) (*Identity, error) {
	device, err := s.storage.GetDevice(ctx, cred.DeviceID)
	if err != nil {
		if errors.Is(err, model.ErrDeviceNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(device.TokenHash), []byte(Digest(cred.Token))) != 1 {
		return nil, ErrUnauthorized
	}

	identity := &Identity{Device: device}
	if !cred.HasPlayer() {
		return identity, nil
	}

	player, err := s.players.Get(ctx, cred.PlayerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if player.DeviceID != device.ID {
		s.logger.Warn("player does not belong to device",
			slog.String("device_id", string(device.ID)),
			slog.String("player_id", string(player.ID)),
		)
		return nil, ErrUnauthorized
	}
	identity.Player = player
	return identity, nil
}
