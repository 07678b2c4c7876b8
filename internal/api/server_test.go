package api_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/quizroom/internal/api"
	"github.com/mcoot/quizroom/internal/factory"
	"github.com/mcoot/quizroom/internal/api/response"
	"github.com/mcoot/quizroom/internal/subscription"
	"github.com/mcoot/quizroom/internal/testutil"
)

func TestServerShutdownRunsHooks(t *testing.T) {
	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })
	logger, logs := testutil.CaptureLogger()

	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(app.Router(), cfg, logger)
	server.OnShutdown("subscriptions", app.Subscriptions.Close)

	assert.Equal(t, "127.0.0.1:0", server.Addr())
	require.NoError(t, server.Listen())
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	var health response.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	_ = resp.Body.Close()
	assert.Equal(t, "ok", health.Status)

	topic := subscription.Topic{Path: subscription.PathSession, SessionID: "session-1"}
	_, cancel, err := app.Subscriptions.Listen(topic)
	require.NoError(t, err)
	defer cancel()
	require.Equal(t, 1, app.Subscriptions.Subscribers(topic))

	require.NoError(t, server.Shutdown(context.Background()))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}

	// The hook has finished by the time Shutdown returns
	assert.Equal(t, 0, app.Subscriptions.Subscribers(topic))
	_, _, err = app.Subscriptions.Listen(topic)
	assert.ErrorIs(t, err, subscription.ErrClosed)
	assert.Contains(t, logs.Messages(), "running shutdown hook")
	assert.Contains(t, logs.Messages(), "HTTP server stopped")
}

func TestServerListenFailsOnBusyPort(t *testing.T) {
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	first := api.NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	require.NoError(t, first.Listen())
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	second := api.NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	assert.Error(t, second.Listen())
	assert.Error(t, second.Start())
}
