package idgen

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizroom/internal/dependencies/mocks"
	"github.com/mcoot/quizroom/internal/dependencies/random"
)

type GeneratorSuite struct {
	suite.Suite
	random    *mocks.MockRandom
	generator *Generator
	ctx       context.Context
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.generator = New(s.random)
	s.ctx = context.Background()
}

func never(context.Context, string) (bool, error) { return false, nil }

func (s *GeneratorSuite) TestJoinTokenUsesHexAlphabet() {
	s.random.QueueString("a1b2c")

	id, err := s.generator.New(s.ctx, JoinToken, never)
	s.Require().NoError(err)
	s.Equal("a1b2c", id)
}

func (s *GeneratorSuite) TestUUIDKinds() {
	for _, kind := range []Kind{DeviceToken, PlayerID, SessionID, QuestionID} {
		s.random.QueueUUID("11111111-2222-4333-8444-555555555555")
		id, err := s.generator.New(s.ctx, kind, never)
		s.Require().NoError(err)
		s.Equal("11111111-2222-4333-8444-555555555555", id, kind.String())
	}
}

func (s *GeneratorSuite) TestRetriesUntilFree() {
	s.random.QueueString("aaaaa", "bbbbb", "ccccc")
	taken := map[string]bool{"aaaaa": true, "bbbbb": true}
	checked := []string{}

	id, err := s.generator.New(s.ctx, JoinToken, func(_ context.Context, c string) (bool, error) {
		checked = append(checked, c)
		return taken[c], nil
	})
	s.Require().NoError(err)
	s.Equal("ccccc", id)
	s.Equal([]string{"aaaaa", "bbbbb", "ccccc"}, checked)
}

func (s *GeneratorSuite) TestCheckErrorIsReturned() {
	boom := errors.New("store down")

	_, err := s.generator.New(s.ctx, SessionID, func(context.Context, string) (bool, error) {
		return false, boom
	})
	s.ErrorIs(err, boom)
}

func (s *GeneratorSuite) TestCancelledContextStopsLoop() {
	ctx, cancel := context.WithCancel(s.ctx)
	attempts := 0

	_, err := s.generator.New(ctx, PlayerID, func(context.Context, string) (bool, error) {
		attempts++
		if attempts == 3 {
			cancel()
		}
		return true, nil
	})
	s.ErrorIs(err, context.Canceled)
	s.Equal(3, attempts)
}

func TestGeneratedIDsAreDistinct(t *testing.T) {
	g := New(random.New())
	ctx := context.Background()
	seen := map[string]bool{}
	hex := regexp.MustCompile(`^[0-9a-f]{5}$`)

	taken := func(_ context.Context, c string) (bool, error) { return seen[c], nil }
	for range 500 {
		id, err := g.New(ctx, JoinToken, taken)
		if err != nil {
			t.Fatal(err)
		}
		if !hex.MatchString(id) {
			t.Fatalf("join token %q is not 5 lowercase hex characters", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
