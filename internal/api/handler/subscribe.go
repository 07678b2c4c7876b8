package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/quizroom/internal/api/apierr"
	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/subscription"
)

// SubscribeHandler upgrades requests to WebSocket subscriptions
type SubscribeHandler struct {
	manager *subscription.Manager
	logger  *slog.Logger
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(manager *subscription.Manager, logger *slog.Logger) *SubscribeHandler {
	return &SubscribeHandler{
		manager: manager,
		logger:  logger,
	}
}

// Subscribe handles GET /subscribe/{path} for the caller's session
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	path, ok := subscription.ParsePath(mux.Vars(r)["path"])
	if !ok {
		WriteError(w, apierr.NewNotFoundError("unknown subscription"))
		return
	}

	topic := subscription.Topic{Path: path, SessionID: p.SessionID}
	if err := h.manager.Serve(w, r, topic, p.ID); err != nil {
		h.logger.Warn("subscription failed",
			slog.String("subscription", string(path)),
			slog.String("player_id", string(p.ID)),
			slog.String("error", err.Error()),
		)
	}
}
