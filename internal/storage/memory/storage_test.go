package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
	"github.com/mcoot/quizroom/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return New() },
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx,
		&model.Session{ID: "session-1", AdminID: "admin-1", Status: model.StatusPlaying, CreatedAt: now},
		[]model.JoinToken{{Token: "aaaaa", SessionID: "session-1", Role: model.RoleUser}},
		&model.Player{ID: "admin-1", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleAdmin, CreatedAt: now},
	))

	session, err := s.GetSession(ctx, "session-1")
	require.NoError(t, err)
	session.Status = model.StatusDeleted

	again, err := s.GetSession(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusPlaying, again.Status)

	players, err := s.FindPlayers(ctx, storage.PlayerQuery{ID: "admin-1"})
	require.NoError(t, err)
	players[0].Score = 100

	players, err = s.FindPlayers(ctx, storage.PlayerQuery{ID: "admin-1"})
	require.NoError(t, err)
	require.Equal(t, 0, players[0].Score)
}

func TestConcurrentAnswersAccumulate(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	require.NoError(t, s.SavePlayer(ctx, &model.Player{ID: "player-1", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleUser, CreatedAt: now}))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RecordAnswer(ctx, &model.Answer{
				QuestionID: model.QuestionID(fmt.Sprintf("q-%d", i)),
				PlayerID:   "player-1",
				Correct:    true,
				CreatedAt:  now,
			}, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	players, err := s.FindPlayers(ctx, storage.PlayerQuery{ID: "player-1"})
	require.NoError(t, err)
	require.Equal(t, 100, players[0].Score)
}
