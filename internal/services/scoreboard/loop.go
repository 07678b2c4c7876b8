package scoreboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/quizroom/internal/dependencies/clock"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/player"
	"github.com/mcoot/quizroom/internal/services/session"
	"github.com/mcoot/quizroom/internal/subscription"
)

// DefaultInterval is how often scoreboards are pushed when no interval is configured
const DefaultInterval = 5 * time.Second

// Entry is one row of a pushed scoreboard
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerID"`
	Username string `json:"username"`
	Role     int    `json:"role"`
	Score    int    `json:"score"`
}

// Loop periodically pushes scoreboards to sessions that have scoreboard subscribers.
// Only Playing sessions are pushed.
type Loop struct {
	sessions *session.Registry
	players  *player.Registry
	subs     *subscription.Manager
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scoreboard Loop; it does nothing until Start
func New(
	sessions *session.Registry,
	players *player.Registry,
	subs *subscription.Manager,
	clock clock.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		sessions: sessions,
		players:  players,
		subs:     subs,
		clock:    clock,
		interval: interval,
		logger:   logger.With(slog.String("component", "scoreboard")),
	}
}

// Start launches the loop; calling Start on a running loop is a no-op
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	ticker := l.clock.NewTicker(l.interval)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		l.logger.Info("scoreboard loop started", slog.Duration("interval", l.interval))
		for {
			select {
			case <-ctx.Done():
				l.logger.Info("scoreboard loop stopped")
				return
			case <-ticker.C():
				l.publish(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current pass to finish
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	l.wg.Wait()
}

// publish pushes one scoreboard to every subscribed Playing session
func (l *Loop) publish(ctx context.Context) int {
	pushed := 0
	for _, id := range l.subs.Sessions(subscription.PathScoreboard) {
		if ctx.Err() != nil {
			return pushed
		}
		s, err := l.sessions.Get(ctx, id)
		if err != nil {
			l.logger.Warn("scoreboard session lookup failed",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if s.Status != model.StatusPlaying {
			continue
		}
		board, err := l.Board(ctx, id)
		if err != nil {
			l.logger.Warn("scoreboard player lookup failed",
				slog.String("session_id", string(id)),
				slog.String("error", err.Error()),
			)
			continue
		}
		l.subs.Broadcast(subscription.Topic{Path: subscription.PathScoreboard, SessionID: id}, board)
		pushed++
	}
	return pushed
}

// Board returns the ranked scoreboard for a session
func (l *Loop) Board(ctx context.Context, id model.SessionID) ([]Entry, error) {
	players, err := l.players.ListBySession(ctx, id)
	if err != nil {
		return nil, err
	}
	board := make([]Entry, len(players))
	for i, p := range players {
		board[i] = Entry{
			Rank:     i + 1,
			PlayerID: string(p.ID),
			Username: p.Username,
			Role:     int(p.Role),
			Score:    p.Score,
		}
	}
	return board, nil
}
