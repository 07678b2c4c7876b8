// Package storagetest holds the behaviour every storage backend must share.
// Each backend runs Suite from its own test file with a constructor for a fresh store.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
)

// Suite exercises a storage.Storage implementation
type Suite struct {
	suite.Suite

	// NewStorage returns an empty store; it is called before every test
	NewStorage func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
}

var baseTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.store = s.NewStorage(s.T())
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func at(offset int) time.Time {
	return baseTime.Add(time.Duration(offset) * time.Second)
}

func newSession(id model.SessionID, admin model.PlayerID, device model.DeviceID, tokens ...string) (*model.Session, []model.JoinToken, *model.Player) {
	session := &model.Session{ID: id, AdminID: admin, Status: model.StatusPlaying, CreatedAt: at(0)}
	joinTokens := []model.JoinToken{
		{Token: tokens[0], SessionID: id, Role: model.RoleModerator},
		{Token: tokens[1], SessionID: id, Role: model.RoleUser},
	}
	player := &model.Player{
		ID:        admin,
		DeviceID:  device,
		SessionID: id,
		Role:      model.RoleAdmin,
		Username:  "admin",
		CreatedAt: at(0),
	}
	return session, joinTokens, player
}

func (s *Suite) createSession(id model.SessionID, admin model.PlayerID, device model.DeviceID, tokens ...string) {
	session, joinTokens, player := newSession(id, admin, device, tokens...)
	s.Require().NoError(s.store.CreateSession(s.ctx, session, joinTokens, player))
}

func (s *Suite) savePlayer(id model.PlayerID, device model.DeviceID, session model.SessionID, role model.Role, username string, offset int) {
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{
		ID:        id,
		DeviceID:  device,
		SessionID: session,
		Role:      role,
		Username:  username,
		CreatedAt: at(offset),
	}))
}

// Device tests

func (s *Suite) TestSaveAndGetDevice() {
	device := &model.Device{ID: "device-1", TokenHash: "abc123", CreatedAt: at(0)}
	s.Require().NoError(s.store.SaveDevice(s.ctx, device))

	got, err := s.store.GetDevice(s.ctx, "device-1")
	s.Require().NoError(err)
	s.Equal(device.ID, got.ID)
	s.Equal(device.TokenHash, got.TokenHash)
	s.True(device.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestSaveDeviceTwiceFails() {
	s.Require().NoError(s.store.SaveDevice(s.ctx, &model.Device{ID: "device-1", TokenHash: "first", CreatedAt: at(0)}))

	err := s.store.SaveDevice(s.ctx, &model.Device{ID: "device-1", TokenHash: "second", CreatedAt: at(1)})
	s.ErrorIs(err, model.ErrDeviceExists)

	got, err := s.store.GetDevice(s.ctx, "device-1")
	s.Require().NoError(err)
	s.Equal("first", got.TokenHash)
}

func (s *Suite) TestGetDeviceNotFound() {
	_, err := s.store.GetDevice(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrDeviceNotFound)
}

func (s *Suite) TestDeviceTokenExists() {
	exists, err := s.store.DeviceTokenExists(s.ctx, "abc123")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.store.SaveDevice(s.ctx, &model.Device{ID: "device-1", TokenHash: "abc123", CreatedAt: at(0)}))

	exists, err = s.store.DeviceTokenExists(s.ctx, "abc123")
	s.Require().NoError(err)
	s.True(exists)
}

// Session tests

func (s *Suite) TestCreateSession() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	session, err := s.store.GetSession(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("admin-1"), session.AdminID)
	s.Equal(model.StatusPlaying, session.Status)
	s.True(at(0).Equal(session.CreatedAt))

	exists, err := s.store.SessionExists(s.ctx, "session-1")
	s.Require().NoError(err)
	s.True(exists)

	mod, err := s.store.FindJoinTokens(s.ctx, "aaaaa")
	s.Require().NoError(err)
	s.Require().Len(mod, 1)
	s.Equal(model.SessionID("session-1"), mod[0].SessionID)
	s.Equal(model.RoleModerator, mod[0].Role)

	user, err := s.store.FindJoinTokens(s.ctx, "bbbbb")
	s.Require().NoError(err)
	s.Require().Len(user, 1)
	s.Equal(model.RoleUser, user[0].Role)

	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{SessionID: "session-1"})
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(model.PlayerID("admin-1"), players[0].ID)
	s.Equal(model.RoleAdmin, players[0].Role)
	s.Equal(0, players[0].Score)
}

func (s *Suite) TestCreateSessionIsAtomic() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	// The user token collides with the first session's moderator token
	session, tokens, admin := newSession("session-2", "admin-2", "device-2", "ccccc", "aaaaa")
	err := s.store.CreateSession(s.ctx, session, tokens, admin)
	s.Error(err)

	exists, err := s.store.SessionExists(s.ctx, "session-2")
	s.Require().NoError(err)
	s.False(exists)

	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{ID: "admin-2"})
	s.Require().NoError(err)
	s.Empty(players)

	found, err := s.store.FindJoinTokens(s.ctx, "ccccc")
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)

	exists, err := s.store.SessionExists(s.ctx, "nonexistent")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *Suite) TestUpdateSessionStatus() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	for _, status := range []model.SessionStatus{model.StatusPaused, model.StatusDeleted, model.StatusPlaying} {
		s.Require().NoError(s.store.UpdateSessionStatus(s.ctx, "session-1", status))

		session, err := s.store.GetSession(s.ctx, "session-1")
		s.Require().NoError(err)
		s.Equal(status, session.Status)
	}
}

func (s *Suite) TestUpdateSessionStatusNotFound() {
	err := s.store.UpdateSessionStatus(s.ctx, "nonexistent", model.StatusPaused)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestFindJoinTokensUnknown() {
	tokens, err := s.store.FindJoinTokens(s.ctx, "00000")
	s.Require().NoError(err)
	s.Empty(tokens)
}

// Player tests

func (s *Suite) TestSavePlayerAndFind() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")
	s.createSession("session-2", "admin-2", "device-2", "ccccc", "ddddd")
	s.savePlayer("player-1", "device-2", "session-1", model.RoleUser, "bob", 1)
	s.savePlayer("player-2", "device-2", "session-1", model.RoleModerator, "bob-mod", 2)

	byDevice, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{DeviceID: "device-2"})
	s.Require().NoError(err)
	s.Len(byDevice, 3)

	bySession, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{SessionID: "session-1"})
	s.Require().NoError(err)
	s.Require().Len(bySession, 3)
	s.Equal(model.PlayerID("admin-1"), bySession[0].ID)
	s.Equal(model.PlayerID("player-1"), bySession[1].ID)
	s.Equal(model.PlayerID("player-2"), bySession[2].ID)

	role := model.RoleUser
	triple, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{DeviceID: "device-2", SessionID: "session-1", Role: &role})
	s.Require().NoError(err)
	s.Require().Len(triple, 1)
	s.Equal("bob", triple[0].Username)

	byID, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{ID: "player-2"})
	s.Require().NoError(err)
	s.Require().Len(byID, 1)
	s.Equal(model.RoleModerator, byID[0].Role)
	s.Equal(model.DeviceID("device-2"), byID[0].DeviceID)
	s.True(at(2).Equal(byID[0].CreatedAt))
}

func (s *Suite) TestSavePlayerDuplicateID() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")
	s.savePlayer("player-1", "device-2", "session-1", model.RoleUser, "bob", 1)

	err := s.store.SavePlayer(s.ctx, &model.Player{ID: "player-1", DeviceID: "device-3", SessionID: "session-1", Role: model.RoleUser, CreatedAt: at(2)})
	s.ErrorIs(err, model.ErrPlayerExists)
}

func (s *Suite) TestSavePlayerDuplicateTriple() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")
	s.savePlayer("player-1", "device-2", "session-1", model.RoleUser, "bob", 1)

	err := s.store.SavePlayer(s.ctx, &model.Player{ID: "player-2", DeviceID: "device-2", SessionID: "session-1", Role: model.RoleUser, Username: "bob", CreatedAt: at(2)})
	s.ErrorIs(err, model.ErrPlayerExists)

	role := model.RoleUser
	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{DeviceID: "device-2", SessionID: "session-1", Role: &role})
	s.Require().NoError(err)
	s.Len(players, 1)

	// Another role in the same session is a different seat
	s.savePlayer("player-3", "device-2", "session-1", model.RoleModerator, "bob", 3)
}

func (s *Suite) TestAdminSeatIsClaimedBySessionCreation() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	err := s.store.SavePlayer(s.ctx, &model.Player{ID: "player-2", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleAdmin, CreatedAt: at(1)})
	s.ErrorIs(err, model.ErrPlayerExists)
}

func (s *Suite) TestConcurrentSavePlayerSameTriple() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.SavePlayer(s.ctx, &model.Player{
				ID:        model.PlayerID(fmt.Sprintf("player-%d", i)),
				DeviceID:  "device-2",
				SessionID: "session-1",
				Role:      model.RoleUser,
				Username:  "bob",
				CreatedAt: at(i),
			})
		}()
	}
	wg.Wait()
	close(errs)

	saved := 0
	for err := range errs {
		if err == nil {
			saved++
			continue
		}
		s.ErrorIs(err, model.ErrPlayerExists)
	}
	s.Equal(1, saved)
}

func (s *Suite) TestFindPlayersNoMatch() {
	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{ID: "nonexistent"})
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *Suite) TestUpdatePlayerUsername() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")

	changed, err := s.store.UpdatePlayerUsername(s.ctx, "admin-1", "alice")
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.store.UpdatePlayerUsername(s.ctx, "admin-1", "alice")
	s.Require().NoError(err)
	s.False(changed)

	changed, err = s.store.UpdatePlayerUsername(s.ctx, "nonexistent", "alice")
	s.Require().NoError(err)
	s.False(changed)

	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{ID: "admin-1"})
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal("alice", players[0].Username)
}

// Question tests

func (s *Suite) TestSaveAndListQuestions() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")
	second := &model.Question{ID: "q-2", SessionID: "session-1", AuthorID: "admin-1", Prompt: "2+2?", Answer: "4", Points: 5, CreatedAt: at(2)}
	first := &model.Question{ID: "q-1", SessionID: "session-1", AuthorID: "admin-1", Prompt: "Capital of France?", Answer: "Paris", Points: 10, CreatedAt: at(1)}
	s.Require().NoError(s.store.SaveQuestion(s.ctx, second))
	s.Require().NoError(s.store.SaveQuestion(s.ctx, first))

	got, err := s.store.GetQuestion(s.ctx, "q-1")
	s.Require().NoError(err)
	s.Equal("Capital of France?", got.Prompt)
	s.Equal("Paris", got.Answer)
	s.Equal(10, got.Points)
	s.Equal(model.PlayerID("admin-1"), got.AuthorID)

	list, err := s.store.ListQuestions(s.ctx, "session-1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(model.QuestionID("q-1"), list[0].ID)
	s.Equal(model.QuestionID("q-2"), list[1].ID)

	empty, err := s.store.ListQuestions(s.ctx, "session-2")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestGetQuestionNotFound() {
	_, err := s.store.GetQuestion(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrQuestionNotFound)
}

func (s *Suite) TestRecordAnswer() {
	s.createSession("session-1", "admin-1", "device-1", "aaaaa", "bbbbb")
	s.savePlayer("player-1", "device-2", "session-1", model.RoleUser, "bob", 1)
	for _, id := range []model.QuestionID{"q-1", "q-2"} {
		s.Require().NoError(s.store.SaveQuestion(s.ctx, &model.Question{ID: id, SessionID: "session-1", AuthorID: "admin-1", Prompt: "?", Answer: "yes", Points: 7, CreatedAt: at(2)}))
	}

	score, err := s.store.RecordAnswer(s.ctx, &model.Answer{QuestionID: "q-1", PlayerID: "player-1", Text: "yes", Correct: true, CreatedAt: at(3)}, 7)
	s.Require().NoError(err)
	s.Equal(7, score)

	score, err = s.store.RecordAnswer(s.ctx, &model.Answer{QuestionID: "q-2", PlayerID: "player-1", Text: "no", Correct: false, CreatedAt: at(4)}, 7)
	s.Require().NoError(err)
	s.Equal(7, score)

	_, err = s.store.RecordAnswer(s.ctx, &model.Answer{QuestionID: "q-1", PlayerID: "player-1", Text: "yes", Correct: true, CreatedAt: at(5)}, 7)
	s.ErrorIs(err, model.ErrAlreadyAnswered)

	players, err := s.store.FindPlayers(s.ctx, storage.PlayerQuery{ID: "player-1"})
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal(7, players[0].Score)
}

func (s *Suite) TestRecordAnswerUnknownPlayer() {
	_, err := s.store.RecordAnswer(s.ctx, &model.Answer{QuestionID: "q-1", PlayerID: "nonexistent", Correct: true, CreatedAt: at(0)}, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
