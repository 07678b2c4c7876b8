package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/dependencies/mocks"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/storage"
	"github.com/mcoot/quizroom/internal/storage/memory"
	"github.com/mcoot/quizroom/internal/testutil"
)

// duplicatingStorage returns every player row twice to simulate broken uniqueness
type duplicatingStorage struct {
	*memory.Storage
}

func (d duplicatingStorage) FindPlayers(ctx context.Context, q storage.PlayerQuery) ([]*model.Player, error) {
	players, err := d.Storage.FindPlayers(ctx, q)
	if err != nil {
		return nil, err
	}
	return append(players, players...), nil
}

type RegistrySuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = NewRegistry(s.storage, idgen.New(s.random), s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RegistrySuite) register(device model.DeviceID, session model.SessionID, role model.Role, username string) *model.Player {
	p, err := s.registry.Register(s.ctx, device, session, role, username)
	s.Require().NoError(err)
	return p
}

// Create tests

func (s *RegistrySuite) TestRegisterPersistsPlayer() {
	s.random.QueueUUID("player-1")

	p := s.register("device-1", "session-1", model.RoleUser, "alice")
	s.Equal(model.PlayerID("player-1"), p.ID)
	s.Equal(0, p.Score)
	s.Equal(s.clock.Now(), p.CreatedAt)

	got, err := s.registry.Get(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal(model.RoleUser, got.Role)
}

func (s *RegistrySuite) TestCreateRejectsDuplicateTriple() {
	s.register("device-1", "session-1", model.RoleUser, "alice")

	_, err := s.registry.Register(s.ctx, "device-1", "session-1", model.RoleUser, "alice-again")
	s.ErrorIs(err, model.ErrPlayerExists)
}

func (s *RegistrySuite) TestSameDeviceMayHoldDifferentRoles() {
	s.register("device-1", "session-1", model.RoleUser, "alice")
	s.register("device-1", "session-1", model.RoleModerator, "alice-mod")

	players, err := s.registry.ListByDevice(s.ctx, "device-1")
	s.Require().NoError(err)
	s.Len(players, 2)
}

func (s *RegistrySuite) TestCreateRejectsDuplicateID() {
	s.random.QueueUUID("player-1")
	s.register("device-1", "session-1", model.RoleUser, "alice")

	err := s.registry.Create(s.ctx, &model.Player{ID: "player-1", DeviceID: "device-2", SessionID: "session-1", Role: model.RoleUser})
	s.ErrorIs(err, model.ErrPlayerExists)
}

func (s *RegistrySuite) TestMintIDSkipsTakenIDs() {
	s.random.QueueUUID("player-1", "player-1", "player-2")
	s.register("device-1", "session-1", model.RoleUser, "alice")

	id, err := s.registry.MintID(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-2"), id)
}

// Exists tests

func (s *RegistrySuite) TestExists() {
	exists, err := s.registry.Exists(s.ctx, "device-1", "session-1", model.RoleUser)
	s.Require().NoError(err)
	s.False(exists)

	p := s.register("device-1", "session-1", model.RoleUser, "alice")

	exists, err = s.registry.Exists(s.ctx, "device-1", "session-1", model.RoleUser)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.registry.Exists(s.ctx, "device-1", "session-1", model.RoleModerator)
	s.Require().NoError(err)
	s.False(exists)

	exists, err = s.registry.ExistsByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *RegistrySuite) TestDuplicateRowsAreIntegrityErrors() {
	p := s.register("device-1", "session-1", model.RoleUser, "alice")
	broken := NewRegistry(duplicatingStorage{s.storage}, idgen.New(s.random), s.clock, testutil.NopLogger())

	_, err := broken.Exists(s.ctx, "device-1", "session-1", model.RoleUser)
	s.ErrorIs(err, model.ErrDataIntegrity)

	_, err = broken.ExistsByID(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrDataIntegrity)

	_, err = broken.Get(s.ctx, p.ID)
	s.ErrorIs(err, model.ErrDataIntegrity)
}

// Get tests

func (s *RegistrySuite) TestGetNotFound() {
	_, err := s.registry.Get(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// SetUsername tests

func (s *RegistrySuite) TestSetUsername() {
	p := s.register("device-1", "session-1", model.RoleUser, "alice")

	changed, err := s.registry.SetUsername(s.ctx, p, "alicia")
	s.Require().NoError(err)
	s.True(changed)
	s.Equal("alicia", p.Username)

	changed, err = s.registry.SetUsername(s.ctx, p, "alicia")
	s.Require().NoError(err)
	s.False(changed)

	got, err := s.registry.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("alicia", got.Username)
}

// List tests

func (s *RegistrySuite) TestListBySessionOrdersByScore() {
	s.register("device-1", "session-1", model.RoleAdmin, "zed")
	bob := s.register("device-2", "session-1", model.RoleUser, "bob")
	s.register("device-3", "session-1", model.RoleUser, "amy")
	s.register("device-4", "session-2", model.RoleUser, "other")

	_, err := s.storage.RecordAnswer(s.ctx, &model.Answer{QuestionID: "q-1", PlayerID: bob.ID, Correct: true}, 10)
	s.Require().NoError(err)

	players, err := s.registry.ListBySession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("bob", players[0].Username)
	s.Equal("amy", players[1].Username)
	s.Equal("zed", players[2].Username)
}
