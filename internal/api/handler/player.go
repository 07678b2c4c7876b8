package handler

import (
	"net/http"

	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/api/request"
	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/services/player"
)

// PlayerHandler handles device-scoped player self-service
type PlayerHandler struct {
	players *player.Registry
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *player.Registry) *PlayerHandler {
	return &PlayerHandler{
		players: players,
	}
}

// Me handles GET /player
func (h *PlayerHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.OK(w, response.OwnPlayerFromModel(middleware.MustGetPlayer(r.Context())))
}

// All handles GET /player/all
func (h *PlayerHandler) All(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	players, err := h.players.ListByDevice(r.Context(), identity.Device.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.OwnPlayersFromModel(players))
}

// Rename handles PUT /player/username/{username}
func (h *PlayerHandler) Rename(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPlayer(r.Context())

	var req request.RenamePlayerRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	changed, err := h.players.SetUsername(r.Context(), p, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.UsernameChange{
		Changed: changed,
		Player:  response.PlayerFromModel(p),
	})
}
