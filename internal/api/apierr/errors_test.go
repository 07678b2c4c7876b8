package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{auth.ErrTokenAlreadyIssued, http.StatusUnauthorized},
		{model.ErrInvalidJoinToken, http.StatusUnauthorized},
		{auth.ErrMalformedCredential, http.StatusBadRequest},
		{model.ErrNotMember, http.StatusBadRequest},
		{model.ErrPlayerRequired, http.StatusBadRequest},
		{model.ErrNotAdmin, http.StatusForbidden},
		{model.ErrRoleForbidden, http.StatusForbidden},
		{model.ErrSessionNotFound, http.StatusNotFound},
		{model.ErrJoinTokenNotFound, http.StatusNotFound},
		{model.ErrPlayerExists, http.StatusConflict},
		{model.ErrSessionDeleted, http.StatusConflict},
		{model.ErrDataIntegrity, http.StatusInternalServerError},
		{errors.New("connection refused"), http.StatusInternalServerError},
		{NewInvalidRequestError("bad"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestWrappedErrorsAreMapped(t *testing.T) {
	err := fmt.Errorf("join token abcde has 2 rows: %w", model.ErrDataIntegrity)

	rr := httptest.NewRecorder()
	WriteError(rr, err)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, CodeDataIntegrity, body.Code)
	assert.Equal(t, model.ErrDataIntegrity.Error(), body.Halt)
}

func TestUnexpectedErrorsStayOpaque(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, CodeInternalError, body.Code)
	assert.NotContains(t, body.Halt, "10.0.0.1")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
