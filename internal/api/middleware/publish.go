package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/quizroom/internal/model"
	"github.com/mcoot/quizroom/internal/subscription"
)

const publishContextKey contextKey = "publish"

// Broadcaster fans a message out to a topic's subscribers
type Broadcaster interface {
	Broadcast(topic subscription.Topic, data any) int
	Subscribers(topic subscription.Topic) int
}

type publishTarget struct {
	sessionID model.SessionID
}

// PublishTo sets the session whose subscribers receive the response body.
// It is a no-op outside a Publish wrapper.
func PublishTo(ctx context.Context, id model.SessionID) {
	if target, ok := ctx.Value(publishContextKey).(*publishTarget); ok {
		target.sessionID = id
	}
}

// captureWriter tees the response body so it can be broadcast afterwards
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (cw *captureWriter) WriteHeader(status int) {
	cw.status = status
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Publish broadcasts successful response bodies to the path subscription of
// the session chosen with PublishTo. Failed responses are never broadcast,
// nor are responses for a topic nobody is subscribed to.
func Publish(broadcaster Broadcaster, path subscription.Path) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := &publishTarget{}
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(cw, r.WithContext(context.WithValue(r.Context(), publishContextKey, target)))

			if cw.status < 200 || cw.status >= 300 || target.sessionID == "" {
				return
			}
			topic := subscription.Topic{Path: path, SessionID: target.sessionID}
			if broadcaster.Subscribers(topic) == 0 {
				return
			}
			if !json.Valid(cw.body.Bytes()) {
				return
			}
			broadcaster.Broadcast(topic, json.RawMessage(bytes.TrimSpace(cw.body.Bytes())))
		})
	}
}
