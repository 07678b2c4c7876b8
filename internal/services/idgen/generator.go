package idgen

import (
	"context"
	"fmt"

	"github.com/mcoot/quizroom/internal/dependencies/random"
)

// Kind selects the shape of a generated identifier
type Kind int

const (
	DeviceToken Kind = iota
	PlayerID
	SessionID
	JoinToken
	QuestionID
)

const (
	// JoinTokenLength is the number of characters in a join token
	JoinTokenLength = 5
	// JoinTokenAlphabet is lowercase hex
	JoinTokenAlphabet = "0123456789abcdef"
)

func (k Kind) String() string {
	switch k {
	case DeviceToken:
		return "device token"
	case PlayerID:
		return "player id"
	case SessionID:
		return "session id"
	case JoinToken:
		return "join token"
	case QuestionID:
		return "question id"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TakenFunc reports whether a candidate identifier is already in use
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Generator mints identifiers that are unused at the time of the check.
// Two concurrent callers can still receive the same candidate; stores reject the loser by primary key.
type Generator struct {
	random random.Random
}

// New creates a Generator drawing from r
func New(r random.Random) *Generator {
	return &Generator{random: r}
}

// New samples candidates of the given kind until taken reports one as free.
// There is no retry bound; cancelling ctx stops the loop.
func (g *Generator) New(ctx context.Context, kind Kind, taken TakenFunc) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := g.sample(kind)
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", kind, err)
		}
		if !used {
			return candidate, nil
		}
	}
}

func (g *Generator) sample(kind Kind) string {
	if kind == JoinToken {
		return g.random.String(JoinTokenLength, JoinTokenAlphabet)
	}
	return g.random.UUID()
}
