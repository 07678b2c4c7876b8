// Package sqlstore persists quiz data in a relational database through database/sql.
// SQLite (modernc.org/sqlite) and Postgres (pgx) share one schema and one set of queries.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
)

// Driver names registered by the imported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Storage is a SQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Open connects to dsn with the named driver and prepares the schema
func Open(ctx context.Context, driver, dsn string) (*Storage, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY between concurrent transactions
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the schema if needed
func New(ctx context.Context, db *sql.DB) (*Storage, error) {
	if err := CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// withTx runs fn inside a transaction, committing only if it returns nil
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Device operations

func (s *Storage) SaveDevice(ctx context.Context, device *model.Device) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM device WHERE device_id = $1`, string(device.ID))
		if err != nil {
			return err
		}
		if found {
			return model.ErrDeviceExists
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO device (device_id, auth_token, created_at) VALUES ($1, $2, $3)`,
			string(device.ID), device.TokenHash, device.CreatedAt.UTC())
		return conflict(err, model.ErrDeviceExists)
	})
}

func (s *Storage) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	var device model.Device
	var deviceID string
	err := s.db.QueryRowContext(ctx,
		`SELECT device_id, auth_token, created_at FROM device WHERE device_id = $1`, string(id),
	).Scan(&deviceID, &device.TokenHash, &device.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	device.ID = model.DeviceID(deviceID)
	device.CreatedAt = device.CreatedAt.UTC()
	return &device, nil
}

func (s *Storage) DeviceTokenExists(ctx context.Context, tokenHash string) (bool, error) {
	return exists(ctx, s.db, `SELECT 1 FROM device WHERE auth_token = $1`, tokenHash)
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session, tokens []model.JoinToken, admin *model.Player) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM session WHERE session_id = $1`, string(session.ID))
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateKey
		}
		for _, t := range tokens {
			found, err := exists(ctx, tx, `SELECT 1 FROM session_token WHERE join_token = $1`, t.Token)
			if err != nil {
				return err
			}
			if found {
				return storage.ErrDuplicateKey
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session (session_id, admin_player_id, status, created_at) VALUES ($1, $2, $3, $4)`,
			string(session.ID), string(session.AdminID), int(session.Status), session.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert session: %w", conflict(err, storage.ErrDuplicateKey))
		}
		for _, t := range tokens {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_token (join_token, session_id, role_id) VALUES ($1, $2, $3)`,
				t.Token, string(t.SessionID), int(t.Role),
			); err != nil {
				return fmt.Errorf("insert join token: %w", conflict(err, storage.ErrDuplicateKey))
			}
		}
		return insertPlayer(ctx, tx, admin)
	})
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var session model.Session
	var sessionID, adminID string
	var status int
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, admin_player_id, status, created_at FROM session WHERE session_id = $1`, string(id),
	).Scan(&sessionID, &adminID, &status, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.ID = model.SessionID(sessionID)
	session.AdminID = model.PlayerID(adminID)
	session.Status = model.SessionStatus(status)
	session.CreatedAt = session.CreatedAt.UTC()
	return &session, nil
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	return exists(ctx, s.db, `SELECT 1 FROM session WHERE session_id = $1`, string(id))
}

func (s *Storage) UpdateSessionStatus(ctx context.Context, id model.SessionID, status model.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session SET status = $1 WHERE session_id = $2`, int(status), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// Join token operations

func (s *Storage) FindJoinTokens(ctx context.Context, token string) ([]model.JoinToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT join_token, session_id, role_id FROM session_token WHERE join_token = $1`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []model.JoinToken{}
	for rows.Next() {
		var t model.JoinToken
		var sessionID string
		var role int
		if err := rows.Scan(&t.Token, &sessionID, &role); err != nil {
			return nil, err
		}
		t.SessionID = model.SessionID(sessionID)
		t.Role = model.Role(role)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Player operations

func insertPlayer(ctx context.Context, tx *sql.Tx, p *model.Player) error {
	found, err := exists(ctx, tx, `SELECT 1 FROM session_player WHERE player_id = $1`, string(p.ID))
	if err != nil {
		return err
	}
	if found {
		return model.ErrPlayerExists
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_player (player_id, device_id, session_id, role_id, score, username, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(p.ID), string(p.DeviceID), string(p.SessionID), int(p.Role), p.Score, p.Username, p.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrPlayerExists
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertPlayer(ctx, tx, player)
	})
}

func (s *Storage) FindPlayers(ctx context.Context, q storage.PlayerQuery) ([]*model.Player, error) {
	var conds []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if q.ID != "" {
		add("player_id", string(q.ID))
	}
	if q.DeviceID != "" {
		add("device_id", string(q.DeviceID))
	}
	if q.SessionID != "" {
		add("session_id", string(q.SessionID))
	}
	if q.Role != nil {
		add("role_id", int(*q.Role))
	}

	query := `SELECT player_id, device_id, session_id, role_id, score, username, created_at FROM session_player`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, player_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		var p model.Player
		var id, deviceID, sessionID string
		var role int
		if err := rows.Scan(&id, &deviceID, &sessionID, &role, &p.Score, &p.Username, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ID = model.PlayerID(id)
		p.DeviceID = model.DeviceID(deviceID)
		p.SessionID = model.SessionID(sessionID)
		p.Role = model.Role(role)
		p.CreatedAt = p.CreatedAt.UTC()
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (s *Storage) UpdatePlayerUsername(ctx context.Context, id model.PlayerID, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE session_player SET username = $1 WHERE player_id = $2 AND username <> $3`,
		username, string(id), username)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Question operations

func (s *Storage) SaveQuestion(ctx context.Context, question *model.Question) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM session_question WHERE question_id = $1`, string(question.ID))
		if err != nil {
			return err
		}
		if found {
			return storage.ErrDuplicateKey
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO session_question (question_id, session_id, author_player_id, prompt, answer, points, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(question.ID), string(question.SessionID), string(question.AuthorID),
			question.Prompt, question.Answer, question.Points, question.CreatedAt.UTC(),
		)
		return conflict(err, storage.ErrDuplicateKey)
	})
}

const questionColumns = `question_id, session_id, author_player_id, prompt, answer, points, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*model.Question, error) {
	var q model.Question
	var id, sessionID, authorID string
	if err := row.Scan(&id, &sessionID, &authorID, &q.Prompt, &q.Answer, &q.Points, &q.CreatedAt); err != nil {
		return nil, err
	}
	q.ID = model.QuestionID(id)
	q.SessionID = model.SessionID(sessionID)
	q.AuthorID = model.PlayerID(authorID)
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}

func (s *Storage) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM session_question WHERE question_id = $1`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrQuestionNotFound
	}
	return q, err
}

func (s *Storage) ListQuestions(ctx context.Context, sessionID model.SessionID) ([]*model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM session_question WHERE session_id = $1 ORDER BY created_at, question_id`,
		string(sessionID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []*model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Storage) RecordAnswer(ctx context.Context, answer *model.Answer, points int) (int, error) {
	score := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT score FROM session_player WHERE player_id = $1`, string(answer.PlayerID),
		).Scan(&score)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrPlayerNotFound
		}
		if err != nil {
			return err
		}

		found, err := exists(ctx, tx,
			`SELECT 1 FROM session_answer WHERE question_id = $1 AND player_id = $2`,
			string(answer.QuestionID), string(answer.PlayerID))
		if err != nil {
			return err
		}
		if found {
			return model.ErrAlreadyAnswered
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_answer (question_id, player_id, answer_text, correct, created_at) VALUES ($1, $2, $3, $4, $5)`,
			string(answer.QuestionID), string(answer.PlayerID), answer.Text, answer.Correct, answer.CreatedAt.UTC(),
		); err != nil {
			if isUniqueViolation(err) {
				return model.ErrAlreadyAnswered
			}
			return fmt.Errorf("insert answer: %w", err)
		}
		if !answer.Correct {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE session_player SET score = score + $1 WHERE player_id = $2`,
			points, string(answer.PlayerID),
		); err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		score += points
		return nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}
