package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Entities are JSON blobs; multi-key writes run in MULTI/EXEC, read-modify-write under WATCH.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = 1
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getJSON loads and decodes key, returning redis.Nil when it is absent
func getJSON(ctx context.Context, g getter, key string, v any) error {
	data, err := g.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// watch runs fn as an optimistic transaction over keys, retrying on conflict
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for range s.cfg.MaxTxRetries {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("transaction conflict after %d attempts: %w", s.cfg.MaxTxRetries, err)
}

// Device operations

func (s *Storage) SaveDevice(ctx context.Context, device *model.Device) error {
	data, err := json.Marshal(device)
	if err != nil {
		return err
	}

	key := deviceKey(device.ID)
	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrDeviceExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Set(ctx, deviceTokenIndexKey(device.TokenHash), string(device.ID), 0)
			return nil
		})
		return err
	}, key)
}

func (s *Storage) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	var device model.Device
	if err := getJSON(ctx, s.client, deviceKey(id), &device); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}

func (s *Storage) DeviceTokenExists(ctx context.Context, tokenHash string) (bool, error) {
	exists, err := s.client.Exists(ctx, deviceTokenIndexKey(tokenHash)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session, tokens []model.JoinToken, admin *model.Player) error {
	sessionData, err := json.Marshal(session)
	if err != nil {
		return err
	}
	adminData, err := json.Marshal(admin)
	if err != nil {
		return err
	}
	tokenData := make([][]byte, len(tokens))
	for i := range tokens {
		if tokenData[i], err = json.Marshal(&tokens[i]); err != nil {
			return err
		}
	}

	keys := []string{sessionKey(session.ID), playerKey(admin.ID), playerSeatKey(admin)}
	for _, t := range tokens {
		keys = append(keys, joinTokenKey(t.Token))
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return storage.ErrDuplicateKey
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey(session.ID), sessionData, 0)
			for i, t := range tokens {
				pipe.Set(ctx, joinTokenKey(t.Token), tokenData[i], 0)
			}
			pipe.Set(ctx, playerKey(admin.ID), adminData, 0)
			pipe.Set(ctx, playerSeatKey(admin), string(admin.ID), 0)
			pipe.SAdd(ctx, sessionPlayersIndexKey(admin.SessionID), string(admin.ID))
			pipe.SAdd(ctx, devicePlayersIndexKey(admin.DeviceID), string(admin.ID))
			return nil
		})
		return err
	}, keys...)
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	var session model.Session
	if err := getJSON(ctx, s.client, sessionKey(id), &session); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) UpdateSessionStatus(ctx context.Context, id model.SessionID, status model.SessionStatus) error {
	key := sessionKey(id)
	return s.watch(ctx, func(tx *redis.Tx) error {
		var session model.Session
		if err := getJSON(ctx, tx, key, &session); err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrSessionNotFound
			}
			return err
		}
		session.Status = status
		data, err := json.Marshal(&session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
}

// Join token operations

func (s *Storage) FindJoinTokens(ctx context.Context, token string) ([]model.JoinToken, error) {
	var jt model.JoinToken
	if err := getJSON(ctx, s.client, joinTokenKey(token), &jt); err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.JoinToken{}, nil
		}
		return nil, err
	}
	return []model.JoinToken{jt}, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ID)
	seat := playerSeatKey(player)
	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key, seat).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrPlayerExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Set(ctx, seat, string(player.ID), 0)
			pipe.SAdd(ctx, sessionPlayersIndexKey(player.SessionID), string(player.ID))
			pipe.SAdd(ctx, devicePlayersIndexKey(player.DeviceID), string(player.ID))
			return nil
		})
		return err
	}, key, seat)
}

func (s *Storage) FindPlayers(ctx context.Context, q storage.PlayerQuery) ([]*model.Player, error) {
	keys, err := s.candidatePlayerKeys(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(str), &player); err != nil {
			return nil, fmt.Errorf("decode player: %w", err)
		}
		if q.Matches(&player) {
			players = append(players, &player)
		}
	}
	storage.SortPlayers(players)
	return players, nil
}

// candidatePlayerKeys narrows a query to the smallest index that covers it
func (s *Storage) candidatePlayerKeys(ctx context.Context, q storage.PlayerQuery) ([]string, error) {
	if q.ID != "" {
		return []string{playerKey(q.ID)}, nil
	}

	var indexKey string
	switch {
	case q.SessionID != "":
		indexKey = sessionPlayersIndexKey(q.SessionID)
	case q.DeviceID != "":
		indexKey = devicePlayersIndexKey(q.DeviceID)
	default:
		var keys []string
		iter := s.client.Scan(ctx, 0, playerKeyPattern(), 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		return keys, iter.Err()
	}

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(model.PlayerID(id))
	}
	return keys, nil
}

func (s *Storage) UpdatePlayerUsername(ctx context.Context, id model.PlayerID, username string) (bool, error) {
	key := playerKey(id)
	changed := false
	err := s.watch(ctx, func(tx *redis.Tx) error {
		changed = false
		var player model.Player
		if err := getJSON(ctx, tx, key, &player); err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		if player.Username == username {
			return nil
		}
		player.Username = username
		data, err := json.Marshal(&player)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			changed = true
		}
		return err
	}, key)
	return changed, err
}

// Question operations

func (s *Storage) SaveQuestion(ctx context.Context, question *model.Question) error {
	data, err := json.Marshal(question)
	if err != nil {
		return err
	}

	key := questionKey(question.ID)
	return s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return storage.ErrDuplicateKey
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, sessionQuestionsIndexKey(question.SessionID), string(question.ID))
			return nil
		})
		return err
	}, key)
}

func (s *Storage) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	var question model.Question
	if err := getJSON(ctx, s.client, questionKey(id), &question); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (s *Storage) ListQuestions(ctx context.Context, sessionID model.SessionID) ([]*model.Question, error) {
	ids, err := s.client.SMembers(ctx, sessionQuestionsIndexKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Question{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = questionKey(model.QuestionID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	questions := make([]*model.Question, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}
		var question model.Question
		if err := json.Unmarshal([]byte(str), &question); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		questions = append(questions, &question)
	}
	storage.SortQuestions(questions)
	return questions, nil
}

func (s *Storage) RecordAnswer(ctx context.Context, answer *model.Answer, points int) (int, error) {
	answerData, err := json.Marshal(answer)
	if err != nil {
		return 0, err
	}

	pKey := playerKey(answer.PlayerID)
	aKey := answerKey(answer.QuestionID, answer.PlayerID)
	score := 0
	err = s.watch(ctx, func(tx *redis.Tx) error {
		var player model.Player
		if err := getJSON(ctx, tx, pKey, &player); err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrPlayerNotFound
			}
			return err
		}
		exists, err := tx.Exists(ctx, aKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrAlreadyAnswered
		}

		if answer.Correct {
			player.Score += points
		}
		playerData, err := json.Marshal(&player)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, aKey, answerData, 0)
			pipe.Set(ctx, pKey, playerData, 0)
			return nil
		})
		score = player.Score
		return err
	}, pKey, aKey)
	if err != nil {
		return 0, err
	}
	return score, nil
}
