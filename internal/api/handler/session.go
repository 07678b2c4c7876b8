package handler

import (
	"net/http"

	"github.com/mcoot/quizroom/internal/api/middleware"
	"github.com/mcoot/quizroom/internal/api/request"
	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/player"
	"github.com/mcoot/quizroom/internal/services/session"
)

// SessionHandler handles session creation, joining and management
type SessionHandler struct {
	sessions *session.Registry
	players  *player.Registry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Registry, players *player.Registry) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		players:  players,
	}
}

// Create handles POST /session/username/{username}
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.CreateSessionRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	created, err := h.sessions.Create(r.Context(), identity.Device.ID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.CreatedFromSession(created))
}

// Join handles POST /session/join/{joinToken}/username/{username}
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.JoinSessionRequest
	if err := request.Decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.sessions.Join(r.Context(), req.JoinToken, identity.Device.ID, req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	middleware.PublishTo(r.Context(), p.SessionID)
	response.Created(w, response.PlayerFromModel(p))
}

// Get handles GET /session/{sessionID}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.OK(w, response.SessionFromModel(middleware.MustGetSession(r.Context())))
}

// Players handles GET and POST /session/{sessionID}/players
func (h *SessionHandler) Players(w http.ResponseWriter, r *http.Request) {
	s := middleware.MustGetSession(r.Context())

	players, err := h.players.ListBySession(r.Context(), s.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.PlayersFromModel(players))
}

// Play handles PUT /session/{sessionID}/manage/play
func (h *SessionHandler) Play(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusPlaying)
}

// Pause handles PUT /session/{sessionID}/manage/pause
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusPaused)
}

// Delete handles DELETE /session/{sessionID}/manage/delete
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusDeleted)
}

func (h *SessionHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.SessionStatus) {
	s := middleware.MustGetSession(r.Context())

	updated, err := h.sessions.SetStatus(r.Context(), s.ID, status)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.SessionFromModel(updated))
}
