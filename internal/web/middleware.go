package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vinylog/vinylog/internal/db"
	"github.com/vinylog/vinylog/internal/identity"
)

type contextKey int

const userKey contextKey = iota

// requestLogger emits one structured log line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// withUser resolves the session cookie to a user and stores it on the request
// context. An unresolvable session is treated as anonymous; the cookie is
// cleared so the client stops sending it.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := identity.SessionFromRequest(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.identity.Resolve(r.Context(), sessionID)
		if err != nil {
			identity.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects requests without an authenticated user.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser returns the authenticated user, or nil for anonymous requests.
func currentUser(r *http.Request) *db.User {
	user, _ := r.Context().Value(userKey).(*db.User)
	return user
}
