package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/storage"
)

const (
	MinPoints = 1
	MaxPoints = 1000
)

// ErrInvalidQuestion is returned for an empty prompt or answer, or points out of range
var ErrInvalidQuestion = errors.New("invalid question")

// Result is the outcome of a submitted answer
type Result struct {
	Correct bool
	Score   int
}

// Service runs questions and answers within a session
type Service struct {
	storage storage.Storage
	ids     *idgen.Generator
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new quiz Service
func New(storage storage.Storage, ids *idgen.Generator, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		ids:     ids,
		clock:   clock,
		logger:  logger,
	}
}

// AddQuestion poses a new question in a Playing session
func (s *Service) AddQuestion(ctx context.Context, session *model.Session, author *model.Player, prompt, answer string, points int) (*model.Question, error) {
	if prompt == "" || answer == "" {
		return nil, fmt.Errorf("%w: prompt and answer are required", ErrInvalidQuestion)
	}
	if points < MinPoints || points > MaxPoints {
		return nil, fmt.Errorf("%w: points must be between %d and %d", ErrInvalidQuestion, MinPoints, MaxPoints)
	}
	if session.Status != model.StatusPlaying {
		return nil, model.ErrSessionNotPlaying
	}

	id, err := s.ids.New(ctx, idgen.QuestionID, func(ctx context.Context, candidate string) (bool, error) {
		_, err := s.storage.GetQuestion(ctx, model.QuestionID(candidate))
		if errors.Is(err, model.ErrQuestionNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		ID:        model.QuestionID(id),
		SessionID: session.ID,
		AuthorID:  author.ID,
		Prompt:    prompt,
		Answer:    answer,
		Points:    points,
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SaveQuestion(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("question added",
		slog.String("session_id", string(session.ID)),
		slog.String("question_id", string(q.ID)),
		slog.Int("points", points),
	)
	return q, nil
}

// ListQuestions returns the session's questions; answers are blanked for User-role viewers
func (s *Service) ListQuestions(ctx context.Context, session *model.Session, viewer *model.Player) ([]*model.Question, error) {
	questions, err := s.storage.ListQuestions(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if viewer.HasRole(model.RoleAdmin, model.RoleModerator) {
		return questions, nil
	}
	for _, q := range questions {
		q.Answer = ""
	}
	return questions, nil
}

// SubmitAnswer records p's single answer to a question and scores it
func (s *Service) SubmitAnswer(ctx context.Context, session *model.Session, p *model.Player, questionID model.QuestionID, text string) (*Result, error) {
	if session.Status != model.StatusPlaying {
		return nil, model.ErrSessionNotPlaying
	}

	q, err := s.storage.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.SessionID != session.ID {
		return nil, model.ErrQuestionNotFound
	}

	answer := &model.Answer{
		QuestionID: q.ID,
		PlayerID:   p.ID,
		Text:       text,
		Correct:    q.Matches(text),
		CreatedAt:  s.clock.Now(),
	}
	score, err := s.storage.RecordAnswer(ctx, answer, q.Points)
	if err != nil {
		return nil, err
	}

	s.logger.Info("answer recorded",
		slog.String("session_id", string(session.ID)),
		slog.String("question_id", string(q.ID)),
		slog.String("player_id", string(p.ID)),
		slog.Bool("correct", answer.Correct),
	)
	return &Result{Correct: answer.Correct, Score: score}, nil
}
