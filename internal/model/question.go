package model

import (
	"strings"
	"time"
)

// QuestionID uniquely identifies a question
type QuestionID string

// Question is posed to a session by its admin or a moderator
type Question struct {
	ID        QuestionID
	SessionID SessionID
	AuthorID  PlayerID
	Prompt    string
	Answer    string
	Points    int
	CreatedAt time.Time
}

// Matches reports whether text is the correct answer, ignoring case and surrounding space
func (q *Question) Matches(text string) bool {
	return strings.EqualFold(strings.TrimSpace(q.Answer), strings.TrimSpace(text))
}

// Answer is a player's single submission for a question
type Answer struct {
	QuestionID QuestionID
	PlayerID   PlayerID
	Text       string
	Correct    bool
	CreatedAt  time.Time
}
