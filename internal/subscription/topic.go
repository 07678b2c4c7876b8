package subscription

import (
	"github.com/mcoot/quizroom/internal/model"
)

// Path names a declared subscription
type Path string

const (
	PathSession    Path = "session"
	PathPlayers    Path = "players"
	PathQuestions  Path = "questions"
	PathScoreboard Path = "scoreboard"
)

var declared = map[Path]bool{
	PathSession:    true,
	PathPlayers:    true,
	PathQuestions:  true,
	PathScoreboard: true,
}

// ParsePath returns the declared Path named s
func ParsePath(s string) (Path, bool) {
	p := Path(s)
	return p, declared[p]
}

// Topic is the unit of fan-out: one subscription path within one session
type Topic struct {
	Path      Path
	SessionID model.SessionID
}

// Event is the envelope written to subscribers
type Event struct {
	Subscription Path            `json:"subscription"`
	SessionID    model.SessionID `json:"sessionID"`
	Data         any             `json:"data"`
}
