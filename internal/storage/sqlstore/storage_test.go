package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
	"github.com/mcoot/quizroom/internal/storage/storagetest"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "quiz.db")
	s, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	return s
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return openTestStorage(t) },
	})
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	s := openTestStorage(t)
	defer s.Close()

	require.NoError(t, CreateSchema(context.Background(), s.db))
	require.NoError(t, CreateSchema(context.Background(), s.db))
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "quiz.db")

	s, err := Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, s.SaveDevice(ctx, &model.Device{ID: "device-1", TokenHash: "digest"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, DriverSQLite, dsn)
	require.NoError(t, err)
	defer s.Close()

	device, err := s.GetDevice(ctx, "device-1")
	require.NoError(t, err)
	require.Equal(t, "digest", device.TokenHash)
}

func TestStatusConstraintRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	defer s.Close()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session (session_id, admin_player_id, status, created_at) VALUES ($1, $2, $3, CURRENT_TIMESTAMP)`,
		"session-1", "admin-1", 7)
	require.Error(t, err)
}

func TestDuplicateTokenDigestIsDeviceConflict(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	defer s.Close()

	require.NoError(t, s.SaveDevice(ctx, &model.Device{ID: "device-1", TokenHash: "digest"}))

	// Passes the device id check, fails on the auth_token UNIQUE constraint
	err := s.SaveDevice(ctx, &model.Device{ID: "device-2", TokenHash: "digest"})
	require.ErrorIs(t, err, model.ErrDeviceExists)
}

func TestUniqueViolationsMapToDomainErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	defer s.Close()

	insert := func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO device (device_id, auth_token, created_at) VALUES ($1, $2, $3)`,
			"device-1", "digest", time.Now().UTC())
		return err
	}
	require.NoError(t, insert())

	err := insert()
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert device: %w", err)))
	assert.ErrorIs(t, conflict(err, model.ErrAlreadyAnswered), model.ErrAlreadyAnswered)

	other := errors.New("connection reset")
	assert.False(t, isUniqueViolation(other))
	assert.Same(t, other, conflict(other, model.ErrPlayerExists))
}

func TestPostgresUniqueViolation(t *testing.T) {
	unique := fmt.Errorf("insert player: %w", &pgconn.PgError{Code: "23505", ConstraintName: "session_player_device_id_session_id_role_id_key"})
	assert.True(t, isUniqueViolation(unique))
	assert.ErrorIs(t, conflict(unique, model.ErrPlayerExists), model.ErrPlayerExists)

	foreignKey := &pgconn.PgError{Code: "23503"}
	assert.False(t, isUniqueViolation(foreignKey))
}
