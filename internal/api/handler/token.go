package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
)

// TokenIssuer issues the one-time device token
type TokenIssuer interface {
	IssueToken(ctx context.Context, deviceID model.DeviceID) (*auth.IssuedToken, error)
}

// TokenHandler handles device token issuance
type TokenHandler struct {
	issuer TokenIssuer
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// Issue handles POST /token. The Authorization header carries the bare device id.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	deviceID := strings.TrimSpace(r.Header.Get("Authorization"))

	issued, err := h.issuer.IssueToken(r.Context(), model.DeviceID(deviceID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.TokenFromIssued(issued))
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, response.Health{Status: "ok"})
}
