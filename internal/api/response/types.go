package response

import (
	"time"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
	"github.com/mcoot/quizroom/internal/services/quiz"
	"github.com/mcoot/quizroom/internal/services/session"
)

// Token is returned once when a device is issued its token
type Token struct {
	DeviceID string `json:"deviceID"`
	Token    string `json:"token"`
}

// TokenFromIssued converts an auth.IssuedToken
func TokenFromIssued(t *auth.IssuedToken) Token {
	return Token{
		DeviceID: string(t.DeviceID),
		Token:    t.Token,
	}
}

// SessionCreated is the response for session creation
type SessionCreated struct {
	SessionID string `json:"sessionID"`
	PlayerID  string `json:"playerID"`
	ModToken  string `json:"modToken"`
	UserToken string `json:"userToken"`
}

// CreatedFromSession converts a session.Created
func CreatedFromSession(c *session.Created) SessionCreated {
	return SessionCreated{
		SessionID: string(c.Session.ID),
		PlayerID:  string(c.Admin.ID),
		ModToken:  c.ModToken,
		UserToken: c.UserToken,
	}
}

// Session represents a session in API responses
type Session struct {
	SessionID string    `json:"sessionID"`
	AdminID   string    `json:"adminID"`
	Status    int       `json:"status"`
	Created   time.Time `json:"created"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s *model.Session) Session {
	return Session{
		SessionID: string(s.ID),
		AdminID:   string(s.AdminID),
		Status:    int(s.Status),
		Created:   s.CreatedAt,
	}
}

// Player represents a player in API responses. DeviceID is half of the
// owner's credential, so only the owner's own views carry it.
type Player struct {
	PlayerID  string `json:"playerID"`
	DeviceID  string `json:"deviceID,omitempty"`
	SessionID string `json:"sessionID"`
	RoleID    int    `json:"roleID"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
}

// OwnPlayerFromModel converts a player for its owning device
func OwnPlayerFromModel(p *model.Player) Player {
	out := PlayerFromModel(p)
	out.DeviceID = string(p.DeviceID)
	return out
}

// OwnPlayersFromModel converts the caller's own players, never returning nil
func OwnPlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = OwnPlayerFromModel(p)
	}
	return out
}

// PlayerFromModel converts a model.Player for any session member
func PlayerFromModel(p *model.Player) Player {
	return Player{
		PlayerID:  string(p.ID),
		SessionID: string(p.SessionID),
		RoleID:    int(p.Role),
		Username:  p.Username,
		Score:     p.Score,
	}
}

// PlayersFromModel converts a slice of players, never returning nil
func PlayersFromModel(players []*model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// UsernameChange is the response for renaming a player
type UsernameChange struct {
	Changed bool   `json:"changed"`
	Player  Player `json:"player"`
}

// Question represents a question in API responses.
// Answer is empty when the viewer may not see it.
type Question struct {
	QuestionID string    `json:"questionID"`
	SessionID  string    `json:"sessionID"`
	AuthorID   string    `json:"authorID"`
	Prompt     string    `json:"prompt"`
	Answer     string    `json:"answer,omitempty"`
	Points     int       `json:"points"`
	Created    time.Time `json:"created"`
}

// QuestionFromModel converts a model.Question
func QuestionFromModel(q *model.Question) Question {
	return Question{
		QuestionID: string(q.ID),
		SessionID:  string(q.SessionID),
		AuthorID:   string(q.AuthorID),
		Prompt:     q.Prompt,
		Answer:     q.Answer,
		Points:     q.Points,
		Created:    q.CreatedAt,
	}
}

// QuestionsFromModel converts a slice of questions, never returning nil
func QuestionsFromModel(questions []*model.Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = QuestionFromModel(q)
	}
	return out
}

// AnswerResult is the outcome of submitting an answer
type AnswerResult struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

// AnswerResultFromQuiz converts a quiz.Result
func AnswerResultFromQuiz(r *quiz.Result) AnswerResult {
	return AnswerResult{
		Correct: r.Correct,
		Score:   r.Score,
	}
}

// Health is the response of the health check
type Health struct {
	Status string `json:"status"`
}
