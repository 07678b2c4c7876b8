package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"halt": err.Error()})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case TokenResult:
		o.printf("Device: %s\nToken: %s\n", v.DeviceID, v.Token)
	case SessionCreated:
		o.printf("Session: %s\nAdmin player: %s\nModerator join token: %s\nUser join token: %s\n",
			v.SessionID, v.PlayerID, v.ModToken, v.UserToken)
	case Session:
		o.printSession(v)
	case Player:
		o.printPlayer(v)
	case []Player:
		for _, p := range v {
			o.printf("%s (%s) - %s, %d points\n", p.Username, p.PlayerID, roleName(p.RoleID), p.Score)
		}
	case UsernameChange:
		if !v.Changed {
			o.printf("Username unchanged\n")
		}
		o.printPlayer(v.Player)
	case Question:
		o.printQuestion(v)
	case []Question:
		for _, q := range v {
			o.printQuestion(q)
		}
	case AnswerResult:
		if v.Correct {
			o.printf("Correct! Score: %d\n", v.Score)
		} else {
			o.printf("Incorrect. Score: %d\n", v.Score)
		}
	case Event:
		o.printf("[%s] %s\n", v.Subscription, string(v.Data))
	case HealthResult:
		if v.Attempts > 1 {
			o.printf("Status: %s (after %d attempts)\n", v.Status, v.Attempts)
		} else {
			o.printf("Status: %s\n", v.Status)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printSession(s Session) {
	o.printf("Session: %s\n", s.SessionID)
	o.printf("Admin: %s\n", s.AdminID)
	o.printf("Status: %s\n", statusName(s.Status))
	o.printf("Created: %s\n", s.Created.Format(time.RFC3339))
}

func (o *Output) printPlayer(p Player) {
	o.printf("Player: %s (%s)\n", p.Username, p.PlayerID)
	o.printf("Session: %s\n", p.SessionID)
	o.printf("Role: %s\n", roleName(p.RoleID))
	o.printf("Score: %d\n", p.Score)
}

func (o *Output) printQuestion(q Question) {
	o.printf("%s [%d pts] %s\n", q.QuestionID, q.Points, q.Prompt)
	if q.Answer != "" {
		o.printf("  answer: %s\n", q.Answer)
	}
}

func statusName(status int) string {
	switch status {
	case 0:
		return "deleted"
	case 1:
		return "playing"
	case 2:
		return "paused"
	default:
		return fmt.Sprintf("unknown(%d)", status)
	}
}

func roleName(role int) string {
	switch role {
	case 0:
		return "admin"
	case 1:
		return "moderator"
	case 2:
		return "user"
	default:
		return fmt.Sprintf("unknown(%d)", role)
	}
}

// TokenResult response type
type TokenResult struct {
	DeviceID string `json:"deviceID"`
	Token    string `json:"token"`
}

// SessionCreated response type
type SessionCreated struct {
	SessionID string `json:"sessionID"`
	PlayerID  string `json:"playerID"`
	ModToken  string `json:"modToken"`
	UserToken string `json:"userToken"`
}

// Session response type
type Session struct {
	SessionID string    `json:"sessionID"`
	AdminID   string    `json:"adminID"`
	Status    int       `json:"status"`
	Created   time.Time `json:"created"`
}

// Player response type
type Player struct {
	PlayerID  string `json:"playerID"`
	DeviceID  string `json:"deviceID,omitempty"`
	SessionID string `json:"sessionID"`
	RoleID    int    `json:"roleID"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
}

// UsernameChange response type
type UsernameChange struct {
	Changed bool   `json:"changed"`
	Player  Player `json:"player"`
}

// Question response type
type Question struct {
	QuestionID string    `json:"questionID"`
	SessionID  string    `json:"sessionID"`
	AuthorID   string    `json:"authorID"`
	Prompt     string    `json:"prompt"`
	Answer     string    `json:"answer,omitempty"`
	Points     int       `json:"points"`
	Created    time.Time `json:"created"`
}

// AnswerResult response type
type AnswerResult struct {
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

// Event is one message received on a subscription
type Event struct {
	Subscription string          `json:"subscription"`
	SessionID    string          `json:"sessionID"`
	Data         json.RawMessage `json:"data"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	// Attempts counts the polls quizctl made; the server never sets it
	Attempts int `json:"attempts,omitempty"`
}
