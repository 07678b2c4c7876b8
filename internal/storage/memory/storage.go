package memory

import (
	"context"
	"sync"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Records are copied on the way in and out so callers never share state with the store.
type Storage struct {
	mu sync.RWMutex

	devices    map[model.DeviceID]model.Device
	tokenIndex map[string]model.DeviceID
	sessions   map[model.SessionID]model.Session
	joinTokens map[string]model.JoinToken
	players    map[model.PlayerID]model.Player
	seats      map[seatKey]model.PlayerID
	questions  map[model.QuestionID]model.Question
	answers    map[answerKey]model.Answer
}

// seatKey is the (device, session, role) triple a player occupies
type seatKey struct {
	device  model.DeviceID
	session model.SessionID
	role    model.Role
}

func seatOf(p *model.Player) seatKey {
	return seatKey{device: p.DeviceID, session: p.SessionID, role: p.Role}
}

type answerKey struct {
	questionID model.QuestionID
	playerID   model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		devices:    make(map[model.DeviceID]model.Device),
		tokenIndex: make(map[string]model.DeviceID),
		sessions:   make(map[model.SessionID]model.Session),
		joinTokens: make(map[string]model.JoinToken),
		players:    make(map[model.PlayerID]model.Player),
		seats:      make(map[seatKey]model.PlayerID),
		questions:  make(map[model.QuestionID]model.Question),
		answers:    make(map[answerKey]model.Answer),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}

// Device operations

func (s *Storage) SaveDevice(ctx context.Context, device *model.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[device.ID]; ok {
		return model.ErrDeviceExists
	}
	s.devices[device.ID] = *device
	s.tokenIndex[device.TokenHash] = device.ID
	return nil
}

func (s *Storage) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[id]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	return &device, nil
}

func (s *Storage) DeviceTokenExists(ctx context.Context, tokenHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokenIndex[tokenHash]
	return ok, nil
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, session *model.Session, tokens []model.JoinToken, admin *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before the first write so a failure leaves no trace
	if _, ok := s.sessions[session.ID]; ok {
		return storage.ErrDuplicateKey
	}
	for _, t := range tokens {
		if _, ok := s.joinTokens[t.Token]; ok {
			return storage.ErrDuplicateKey
		}
	}
	if _, ok := s.players[admin.ID]; ok {
		return model.ErrPlayerExists
	}
	if _, ok := s.seats[seatOf(admin)]; ok {
		return model.ErrPlayerExists
	}

	s.sessions[session.ID] = *session
	for _, t := range tokens {
		s.joinTokens[t.Token] = t
	}
	s.players[admin.ID] = *admin
	s.seats[seatOf(admin)] = admin.ID
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok, nil
}

func (s *Storage) UpdateSessionStatus(ctx context.Context, id model.SessionID, status model.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	session.Status = status
	s.sessions[id] = session
	return nil
}

// Join token operations

func (s *Storage) FindJoinTokens(ctx context.Context, token string) ([]model.JoinToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.joinTokens[token]
	if !ok {
		return []model.JoinToken{}, nil
	}
	return []model.JoinToken{t}, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; ok {
		return model.ErrPlayerExists
	}
	if _, ok := s.seats[seatOf(player)]; ok {
		return model.ErrPlayerExists
	}
	s.players[player.ID] = *player
	s.seats[seatOf(player)] = player.ID
	return nil
}

func (s *Storage) FindPlayers(ctx context.Context, q storage.PlayerQuery) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := []*model.Player{}
	if q.ID != "" {
		if p, ok := s.players[q.ID]; ok && q.Matches(&p) {
			players = append(players, &p)
		}
		return players, nil
	}

	for _, p := range s.players {
		if q.Matches(&p) {
			players = append(players, &p)
		}
	}
	storage.SortPlayers(players)
	return players, nil
}

func (s *Storage) UpdatePlayerUsername(ctx context.Context, id model.PlayerID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok || p.Username == username {
		return false, nil
	}
	p.Username = username
	s.players[id] = p
	return true, nil
}

// Question operations

func (s *Storage) SaveQuestion(ctx context.Context, question *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; ok {
		return storage.ErrDuplicateKey
	}
	s.questions[question.ID] = *question
	return nil
}

func (s *Storage) GetQuestion(ctx context.Context, id model.QuestionID) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, model.ErrQuestionNotFound
	}
	return &q, nil
}

func (s *Storage) ListQuestions(ctx context.Context, sessionID model.SessionID) ([]*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := []*model.Question{}
	for _, q := range s.questions {
		if q.SessionID == sessionID {
			questions = append(questions, &q)
		}
	}
	storage.SortQuestions(questions)
	return questions, nil
}

func (s *Storage) RecordAnswer(ctx context.Context, answer *model.Answer, points int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[answer.PlayerID]
	if !ok {
		return 0, model.ErrPlayerNotFound
	}
	key := answerKey{questionID: answer.QuestionID, playerID: answer.PlayerID}
	if _, ok := s.answers[key]; ok {
		return 0, model.ErrAlreadyAnswered
	}

	s.answers[key] = *answer
	if answer.Correct {
		p.Score += points
		s.players[p.ID] = p
	}
	return p.Score, nil
}
