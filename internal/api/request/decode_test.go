package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/api/apierr"
)

func newRequest(body string, vars map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return mux.SetURLVars(r, vars)
}

func TestDecodeMergesPathAndBody(t *testing.T) {
	r := newRequest(`{"answer":"Paris"}`, map[string]string{"questionID": "q-1"})

	var req SubmitAnswerRequest
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, SubmitAnswerRequest{QuestionID: "q-1", Answer: "Paris"}, req)
}

func TestDecodeAllowsEmptyBody(t *testing.T) {
	r := newRequest("", map[string]string{"username": "alice"})

	var req CreateSessionRequest
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, "alice", req.Username)
}

func TestPathWinsOverBody(t *testing.T) {
	r := newRequest(`{"Username":"mallory"}`, map[string]string{"username": "alice"})

	var req RenamePlayerRequest
	require.NoError(t, Decode(r, &req))
	assert.Equal(t, "alice", req.Username)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		vars    map[string]string
		message string
	}{
		{"bad json", `{"prompt":`, nil, "invalid request body"},
		{"missing field", `{"prompt":"p","points":3}`, nil, "answer is required"},
		{"points too high", `{"prompt":"p","answer":"a","points":1001}`, nil, "points must be at most 1000"},
		{"points too low", `{"prompt":"p","answer":"a"}`, nil, "points must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AddQuestionRequest
			err := Decode(newRequest(tt.body, tt.vars), &req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apierr.Status(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestUsernameLength(t *testing.T) {
	r := newRequest("", map[string]string{"username": strings.Repeat("x", 65)})

	var req CreateSessionRequest
	err := Decode(r, &req)
	require.Error(t, err)
	assert.Equal(t, "username must be at most 64", err.Error())
}
