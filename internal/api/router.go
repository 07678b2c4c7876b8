package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/api/apierr"
	"github.com/mcoot/quizroom/internal/api/handler"
	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
	"github.com/mcoot/quizroom/internal/services/player"
	"github.com/mcoot/quizroom/internal/services/quiz"
	"github.com/mcoot/quizroom/internal/services/session"
	"github.com/mcoot/quizroom/internal/subscription"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	Sessions      *session.Registry
	Players       *player.Registry
	Quiz          *quiz.Service
	Subscriptions *subscription.Manager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError("no such route"))
	})

	// Create handlers
	tokenHandler := handler.NewTokenHandler(cfg.AuthService)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions, cfg.Players)
	playerHandler := handler.NewPlayerHandler(cfg.Players)
	questionHandler := handler.NewQuestionHandler(cfg.Quiz)
	subscribeHandler := handler.NewSubscribeHandler(cfg.Subscriptions, cfg.Logger)

	// Stages
	authenticated := middleware.Authenticate(cfg.AuthService)
	inSession := middleware.ResolveSession(cfg.Sessions)
	withPlayer := middleware.RequirePlayer()
	admin := middleware.RequireAdmin(cfg.Players)

	route := func(h http.HandlerFunc, stages ...middleware.Stage) http.Handler {
		return middleware.Pipeline(stages...)(h)
	}
	publish := func(path subscription.Path, h http.Handler) http.Handler {
		return middleware.Publish(cfg.Subscriptions, path)(h)
	}

	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	r.HandleFunc("/token", tokenHandler.Issue).Methods(http.MethodPost)

	// Session creation and joining
	r.Handle("/session/username/{username}",
		route(sessionHandler.Create, authenticated)).Methods(http.MethodPost)
	r.Handle("/session/join/{joinToken}/username/{username}",
		publish(subscription.PathPlayers, route(sessionHandler.Join, authenticated))).Methods(http.MethodPost)

	// Session views
	r.Handle("/session/{sessionID}",
		publish(subscription.PathSession, route(sessionHandler.Get, authenticated, inSession))).Methods(http.MethodGet)
	r.Handle("/session/{sessionID}/players",
		publish(subscription.PathPlayers, route(sessionHandler.Players, authenticated, inSession))).Methods(http.MethodGet, http.MethodPost)

	// Session management (admin only)
	r.Handle("/session/{sessionID}/manage/play",
		publish(subscription.PathSession, route(sessionHandler.Play, authenticated, inSession, admin))).Methods(http.MethodPut)
	r.Handle("/session/{sessionID}/manage/pause",
		publish(subscription.PathSession, route(sessionHandler.Pause, authenticated, inSession, admin))).Methods(http.MethodPut)
	r.Handle("/session/{sessionID}/manage/delete",
		publish(subscription.PathSession, route(sessionHandler.Delete, authenticated, inSession, admin))).Methods(http.MethodDelete)

	// Questions
	r.Handle("/session/{sessionID}/question",
		publish(subscription.PathQuestions, route(questionHandler.Add, authenticated, inSession,
			middleware.RequireRole(model.RoleAdmin, model.RoleModerator)))).Methods(http.MethodPost)
	r.Handle("/session/{sessionID}/question",
		route(questionHandler.List, authenticated, inSession, withPlayer)).Methods(http.MethodGet)
	r.Handle("/session/{sessionID}/question/{questionID}/answer",
		publish(subscription.PathPlayers, route(questionHandler.Answer, authenticated, inSession,
			middleware.RequireRole(model.RoleUser)))).Methods(http.MethodPost)

	// Player self-service
	r.Handle("/player", route(playerHandler.Me, authenticated, withPlayer)).Methods(http.MethodGet)
	r.Handle("/player/all", route(playerHandler.All, authenticated)).Methods(http.MethodGet)
	r.Handle("/player/username/{username}",
		publish(subscription.PathPlayers, route(playerHandler.Rename, authenticated, withPlayer))).Methods(http.MethodPut)

	// Live updates
	r.Handle("/subscribe/{path}", route(subscribeHandler.Subscribe, authenticated, withPlayer)).Methods(http.MethodGet)

	return r
}
