package middleware

import (
	"net/http"

	"github.com/mcoot/quizroom/internal/api/apierr"
)

// Stage checks or enriches a request before it reaches its handler.
// Returning an error halts the request.
type Stage func(r *http.Request) (*http.Request, error)

// Pipeline runs stages in order and stops at the first failure,
// writing that failure as the response
func Pipeline(stages ...Stage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, stage := range stages {
				var err error
				if r, err = stage(r); err != nil {
					apierr.WriteError(w, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
