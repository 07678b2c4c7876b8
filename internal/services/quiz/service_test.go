package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/dependencies/mocks"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/idgen"
	"github.com/mcoot/quizroom/internal/storage/memory"
	"github.com/mcoot/quizroom/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context

	session *model.Session
	admin   *model.Player
	user    *model.Player
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, idgen.New(s.random), s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	now := s.clock.Now()
	s.session = &model.Session{ID: "session-1", AdminID: "admin-1", Status: model.StatusPlaying, CreatedAt: now}
	s.admin = &model.Player{ID: "admin-1", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleAdmin, Username: "alice", CreatedAt: now}
	s.user = &model.Player{ID: "user-1", DeviceID: "device-2", SessionID: "session-1", Role: model.RoleUser, Username: "bob", CreatedAt: now}
	s.Require().NoError(s.storage.CreateSession(s.ctx, s.session, nil, s.admin))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, s.user))
}

func (s *ServiceSuite) addQuestion(answer string, points int) *model.Question {
	q, err := s.service.AddQuestion(s.ctx, s.session, s.admin, "question?", answer, points)
	s.Require().NoError(err)
	return q
}

// AddQuestion tests

func (s *ServiceSuite) TestAddQuestion() {
	s.random.QueueUUID("q-1")

	q := s.addQuestion("Paris", 10)
	s.Equal(model.QuestionID("q-1"), q.ID)
	s.Equal(model.PlayerID("admin-1"), q.AuthorID)
	s.Equal(s.clock.Now(), q.CreatedAt)

	stored, err := s.storage.GetQuestion(s.ctx, "q-1")
	s.Require().NoError(err)
	s.Equal("Paris", stored.Answer)
}

func (s *ServiceSuite) TestAddQuestionRequiresPlaying() {
	s.session.Status = model.StatusPaused

	_, err := s.service.AddQuestion(s.ctx, s.session, s.admin, "question?", "yes", 1)
	s.ErrorIs(err, model.ErrSessionNotPlaying)
}

func (s *ServiceSuite) TestAddQuestionValidatesInput() {
	_, err := s.service.AddQuestion(s.ctx, s.session, s.admin, "", "yes", 1)
	s.ErrorIs(err, ErrInvalidQuestion)

	_, err = s.service.AddQuestion(s.ctx, s.session, s.admin, "question?", "yes", 0)
	s.ErrorIs(err, ErrInvalidQuestion)

	_, err = s.service.AddQuestion(s.ctx, s.session, s.admin, "question?", "yes", MaxPoints+1)
	s.ErrorIs(err, ErrInvalidQuestion)
}

// ListQuestions tests

func (s *ServiceSuite) TestListQuestionsHidesAnswersFromUsers() {
	s.addQuestion("Paris", 10)

	forUser, err := s.service.ListQuestions(s.ctx, s.session, s.user)
	s.Require().NoError(err)
	s.Require().Len(forUser, 1)
	s.Empty(forUser[0].Answer)

	forAdmin, err := s.service.ListQuestions(s.ctx, s.session, s.admin)
	s.Require().NoError(err)
	s.Require().Len(forAdmin, 1)
	s.Equal("Paris", forAdmin[0].Answer)
}

// SubmitAnswer tests

func (s *ServiceSuite) TestCorrectAnswerScores() {
	q := s.addQuestion("Paris", 10)

	result, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "  paris ")
	s.Require().NoError(err)
	s.True(result.Correct)
	s.Equal(10, result.Score)
}

func (s *ServiceSuite) TestWrongAnswerDoesNotScore() {
	q := s.addQuestion("Paris", 10)

	result, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "London")
	s.Require().NoError(err)
	s.False(result.Correct)
	s.Equal(0, result.Score)
}

func (s *ServiceSuite) TestScoresAccumulateAcrossQuestions() {
	first := s.addQuestion("Paris", 10)
	second := s.addQuestion("4", 5)

	_, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, first.ID, "Paris")
	s.Require().NoError(err)
	result, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, second.ID, "4")
	s.Require().NoError(err)
	s.Equal(15, result.Score)
}

func (s *ServiceSuite) TestAnswerOnlyOnce() {
	q := s.addQuestion("Paris", 10)
	_, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "London")
	s.Require().NoError(err)

	_, err = s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "Paris")
	s.ErrorIs(err, model.ErrAlreadyAnswered)
}

func (s *ServiceSuite) TestAnswerRequiresPlaying() {
	q := s.addQuestion("Paris", 10)
	s.session.Status = model.StatusPaused

	_, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "Paris")
	s.ErrorIs(err, model.ErrSessionNotPlaying)
}

func (s *ServiceSuite) TestAnswerUnknownQuestion() {
	_, err := s.service.SubmitAnswer(s.ctx, s.session, s.user, "ghost", "Paris")
	s.ErrorIs(err, model.ErrQuestionNotFound)
}

func (s *ServiceSuite) TestAnswerQuestionFromOtherSession() {
	other := &model.Session{ID: "session-2", AdminID: "admin-2", Status: model.StatusPlaying}
	otherAdmin := &model.Player{ID: "admin-2", DeviceID: "device-3", SessionID: "session-2", Role: model.RoleAdmin}
	s.Require().NoError(s.storage.CreateSession(s.ctx, other, nil, otherAdmin))
	q, err := s.service.AddQuestion(s.ctx, other, otherAdmin, "question?", "yes", 1)
	s.Require().NoError(err)

	_, err = s.service.SubmitAnswer(s.ctx, s.session, s.user, q.ID, "yes")
	s.ErrorIs(err, model.ErrQuestionNotFound)
}
