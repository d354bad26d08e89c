package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName       = "user_session"
	defaultSessionCookieTTL = 24 * time.Hour
)

type sessionKey struct{}

// sessionMiddleware - attaches the caller's session ID to the request,
// issuing a new session cookie when there is none.
func (that *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := that.logger.With("method", "sessionMiddleware")

		sessionID := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if _, err = uuid.Parse(cookie.Value); err == nil {
				sessionID = cookie.Value
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			log.Debug("session cookie not found, new one created", "sessionID", sessionID)
		}

		// refresh the expiry on every request
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    sessionID,
			Path:     "/",
			Expires:  time.Now().Add(that.sessionTTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sessionID)))
	})
}

func sessionFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey{}).(string)
	return sessionID
}
