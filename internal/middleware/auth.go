package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/logging"
	"github.com/dukerupert/mealplan/internal/store"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "mealplan_session"

// RequireAuth validates the session cookie and attaches the caller's
// auth.Identity to the request context. Requests without a live session get
// a JSON 401.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(r.Context(), cookie.Value)
			if err != nil {
				logging.FromContext(r.Context()).Error("load session", "error", err)
			}
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(r.Context(), sess.UserID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			id := auth.Identity{
				UserID:    user.ID,
				Email:     user.Email,
				Name:      user.Name,
				SessionID: sess.ID,
			}
			ctx := auth.WithIdentity(r.Context(), id)
			ctx = logging.WithContext(ctx, logging.FromContext(ctx).With("user_id", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
