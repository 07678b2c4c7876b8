package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
	"github.com/mcoot/quizroom/internal/services/quiz"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Halt string `json:"halt"`
	Code string `json:"code"`
}

// Error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeMalformedCredential = "MALFORMED_CREDENTIAL"
	CodeInvalidDeviceID     = "INVALID_DEVICE_ID"
	CodeTokenAlreadyIssued  = "TOKEN_ALREADY_ISSUED"
	CodeInvalidJoinToken    = "INVALID_JOIN_TOKEN"
	CodeNotMember           = "NOT_MEMBER"
	CodePlayerRequired      = "PLAYER_REQUIRED"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidQuestion     = "INVALID_QUESTION"
	CodeNotAdmin            = "NOT_ADMIN"
	CodeRoleForbidden       = "ROLE_FORBIDDEN"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeJoinTokenNotFound   = "JOIN_TOKEN_NOT_FOUND"
	CodeQuestionNotFound    = "QUESTION_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodePlayerExists        = "PLAYER_EXISTS"
	CodeAlreadyAnswered     = "ALREADY_ANSWERED"
	CodeSessionDeleted      = "SESSION_DELETED"
	CodeSessionNotPlaying   = "SESSION_NOT_PLAYING"
	CodeDataIntegrity       = "DATA_INTEGRITY"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an error body
type httpError struct {
	status int
	body   ErrorResponse
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.body.Halt
}

// mapping is checked in order; the first sentinel matched by errors.Is wins
var mapping = []struct {
	err    error
	status int
	code   string
}{
	{auth.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
	{auth.ErrTokenAlreadyIssued, http.StatusUnauthorized, CodeTokenAlreadyIssued},
	{model.ErrInvalidJoinToken, http.StatusUnauthorized, CodeInvalidJoinToken},

	{auth.ErrMalformedCredential, http.StatusBadRequest, CodeMalformedCredential},
	{auth.ErrInvalidDeviceID, http.StatusBadRequest, CodeInvalidDeviceID},
	{model.ErrNotMember, http.StatusBadRequest, CodeNotMember},
	{model.ErrPlayerRequired, http.StatusBadRequest, CodePlayerRequired},
	{model.ErrInvalidStatus, http.StatusBadRequest, CodeInvalidStatus},
	{quiz.ErrInvalidQuestion, http.StatusBadRequest, CodeInvalidQuestion},

	{model.ErrNotAdmin, http.StatusForbidden, CodeNotAdmin},
	{model.ErrRoleForbidden, http.StatusForbidden, CodeRoleForbidden},

	{model.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
	{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
	{model.ErrJoinTokenNotFound, http.StatusNotFound, CodeJoinTokenNotFound},
	{model.ErrQuestionNotFound, http.StatusNotFound, CodeQuestionNotFound},

	{model.ErrPlayerExists, http.StatusConflict, CodePlayerExists},
	{model.ErrAlreadyAnswered, http.StatusConflict, CodeAlreadyAnswered},
	{model.ErrSessionDeleted, http.StatusConflict, CodeSessionDeleted},
	{model.ErrSessionNotPlaying, http.StatusConflict, CodeSessionNotPlaying},

	{model.ErrDataIntegrity, http.StatusInternalServerError, CodeDataIntegrity},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return &httpError{m.status, ErrorResponse{Halt: m.err.Error(), Code: m.code}}
		}
	}

	// Connectivity and other unexpected failures stay opaque
	return &httpError{http.StatusInternalServerError, ErrorResponse{Halt: "internal server error", Code: CodeInternalError}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, ErrorResponse{Halt: message, Code: CodeInvalidRequest}}
}

// NewNotFoundError creates a not found error for unknown paths
func NewNotFoundError(message string) error {
	return &httpError{http.StatusNotFound, ErrorResponse{Halt: message, Code: CodeNotFound}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, ErrorResponse{Halt: "internal server error", Code: CodeInternalError}}
}
