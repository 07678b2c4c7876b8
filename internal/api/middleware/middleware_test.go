package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/services/auth"
	"github.com/mcoot/quizroom/internal/subscription"
)

type fakeAuthenticator struct {
	identity *auth.Identity
	err      error
	got      auth.Credential
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, cred auth.Credential) (*auth.Identity, error) {
	f.got = cred
	return f.identity, f.err
}

type fakeSessions struct {
	session *model.Session
	member  bool
}

func (f *fakeSessions) Get(_ context.Context, id model.SessionID) (*model.Session, error) {
	if f.session == nil || f.session.ID != id {
		return nil, model.ErrSessionNotFound
	}
	return f.session, nil
}

type fakePlayers map[model.PlayerID]*model.Player

func (f fakePlayers) Get(_ context.Context, id model.PlayerID) (*model.Player, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, model.ErrPlayerNotFound
}

func (f *fakeSessions) IsMember(context.Context, model.SessionID, model.DeviceID) (bool, error) {
	return f.member, nil
}

type published struct {
	topic subscription.Topic
	data  any
}

type fakeBroadcaster struct {
	sent []published
	idle bool
}

func (f *fakeBroadcaster) Subscribers(subscription.Topic) int {
	if f.idle {
		return 0
	}
	return 1
}

func (f *fakeBroadcaster) Broadcast(topic subscription.Topic, data any) int {
	f.sent = append(f.sent, published{topic, data})
	return 1
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{\"ok\":true}\n"))
}

func serve(h http.Handler, authorization string, vars map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	r = mux.SetURLVars(r, vars)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

var (
	device  = &model.Device{ID: "device-1"}
	session = &model.Session{ID: "session-1", AdminID: "admin-1", Status: model.StatusPlaying}
	admin   = &model.Player{ID: "admin-1", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleAdmin}
	user    = &model.Player{ID: "user-1", DeviceID: "device-1", SessionID: "session-1", Role: model.RoleUser}
)

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	var calls []string
	stage := func(name string, err error) Stage {
		return func(r *http.Request) (*http.Request, error) {
			calls = append(calls, name)
			return r, err
		}
	}

	h := Pipeline(stage("a", nil), stage("b", model.ErrNotAdmin), stage("c", nil))(http.HandlerFunc(okHandler))
	rr := serve(h, "", nil)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	authenticator := &fakeAuthenticator{identity: &auth.Identity{Device: device, Player: user}}

	var got *model.Player
	h := Pipeline(Authenticate(authenticator))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = MustGetPlayer(r.Context())
		okHandler(w, r)
	}))
	rr := serve(h, "device-1:token:user-1", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user, got)
	assert.Equal(t, auth.Credential{DeviceID: "device-1", Token: "token", PlayerID: "user-1"}, authenticator.got)
}

func TestAuthenticateFailures(t *testing.T) {
	h := Pipeline(Authenticate(&fakeAuthenticator{err: auth.ErrUnauthorized}))(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "device-1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "device-1:wrong", nil).Code)
}

func TestSessionStages(t *testing.T) {
	players := fakePlayers{admin.ID: admin, user.ID: user}
	outsider := &model.Player{ID: "other", DeviceID: "device-1", SessionID: "session-2", Role: model.RoleUser}

	tests := []struct {
		name   string
		player *model.Player
		member bool
		id     string
		stages []Stage
		status int
	}{
		{"member device", nil, true, "session-1", nil, http.StatusOK},
		{"unknown session", nil, true, "session-9", nil, http.StatusNotFound},
		{"not a member", nil, false, "session-1", nil, http.StatusBadRequest},
		{"player of another session", outsider, true, "session-1", nil, http.StatusBadRequest},
		{"admin manages", admin, true, "session-1", []Stage{RequireAdmin(players)}, http.StatusOK},
		{"user cannot manage", user, true, "session-1", []Stage{RequireAdmin(players)}, http.StatusForbidden},
		{"admin device manages", nil, true, "session-1", []Stage{RequireAdmin(players)}, http.StatusOK},
		{"device without the admin", nil, true, "session-1", []Stage{RequireAdmin(fakePlayers{})}, http.StatusForbidden},
		{"role allowed", user, true, "session-1", []Stage{RequireRole(model.RoleUser)}, http.StatusOK},
		{"role refused", admin, true, "session-1", []Stage{RequireRole(model.RoleUser)}, http.StatusForbidden},
		{"player required", nil, true, "session-1", []Stage{RequirePlayer()}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := []Stage{
				Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device, Player: tt.player}}),
				ResolveSession(&fakeSessions{session: session, member: tt.member}),
			}
			h := Pipeline(append(stages, tt.stages...)...)(http.HandlerFunc(okHandler))
			rr := serve(h, "device-1:token", map[string]string{"sessionID": tt.id})
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestRequireAdminResolvesDeviceAdmin(t *testing.T) {
	strangerAdmin := &model.Player{ID: "admin-1", DeviceID: "device-2", SessionID: "session-1", Role: model.RoleAdmin}

	var got *model.Player
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = MustGetPlayer(r.Context())
		okHandler(w, r)
	})
	stages := func(players PlayerLookup) []Stage {
		return []Stage{
			Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device}}),
			ResolveSession(&fakeSessions{session: session, member: true}),
			RequireAdmin(players),
		}
	}
	vars := map[string]string{"sessionID": "session-1"}

	rr := serve(Pipeline(stages(fakePlayers{admin.ID: admin})...)(capture), "device-1:token", vars)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, admin, got)

	got = nil
	rr = serve(Pipeline(stages(fakePlayers{admin.ID: strangerAdmin})...)(capture), "device-1:token", vars)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Nil(t, got)
}

func TestPublishBroadcastsSuccessfulBodies(t *testing.T) {
	b := &fakeBroadcaster{}
	h := Publish(b, subscription.PathSession)(Pipeline(
		Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device}}),
		ResolveSession(&fakeSessions{session: session, member: true}),
	)(http.HandlerFunc(okHandler)))

	rr := serve(h, "device-1:token", map[string]string{"sessionID": "session-1"})
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, b.sent, 1)
	assert.Equal(t, subscription.Topic{Path: subscription.PathSession, SessionID: "session-1"}, b.sent[0].topic)
	assert.Equal(t, json.RawMessage(`{"ok":true}`), b.sent[0].data)
}

func TestPublishSkipsFailures(t *testing.T) {
	b := &fakeBroadcaster{}
	h := Publish(b, subscription.PathSession)(Pipeline(
		Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device}}),
		ResolveSession(&fakeSessions{session: session, member: false}),
	)(http.HandlerFunc(okHandler)))

	rr := serve(h, "device-1:token", map[string]string{"sessionID": "session-1"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, b.sent)
}

func TestPublishNeedsATarget(t *testing.T) {
	b := &fakeBroadcaster{}
	// A device-only credential outside any session names no topic
	h := Publish(b, subscription.PathPlayers)(Pipeline(
		Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device}}),
	)(http.HandlerFunc(okHandler)))

	rr := serve(h, "device-1:token", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, b.sent)
}

func TestPublishSkipsTopicsWithoutSubscribers(t *testing.T) {
	b := &fakeBroadcaster{idle: true}
	h := Publish(b, subscription.PathSession)(Pipeline(
		Authenticate(&fakeAuthenticator{identity: &auth.Identity{Device: device}}),
		ResolveSession(&fakeSessions{session: session, member: true}),
	)(http.HandlerFunc(okHandler)))

	rr := serve(h, "device-1:token", map[string]string{"sessionID": "session-1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	assert.Empty(t, b.sent)
}

func TestPublishToOutsideWrapperIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { PublishTo(context.Background(), "session-1") })
}

func TestMustGettersPanicWithoutStages(t *testing.T) {
	ctx := context.Background()
	assert.Panics(t, func() { MustGetIdentity(ctx) })
	assert.Panics(t, func() { MustGetPlayer(ctx) })
	assert.Panics(t, func() { MustGetSession(ctx) })
	assert.Nil(t, GetPlayer(ctx))
	assert.Nil(t, GetSession(ctx))
}

func TestAuthenticatorErrorsPropagate(t *testing.T) {
	boom := errors.New("storage down")
	h := Pipeline(Authenticate(&fakeAuthenticator{err: boom}))(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusInternalServerError, serve(h, "device-1:token", nil).Code)
}
