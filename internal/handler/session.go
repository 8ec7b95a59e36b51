package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/household"
	"github.com/dukerupert/mealplan/internal/middleware"
	"github.com/dukerupert/mealplan/internal/store"
)

// SessionHandler exchanges identity-provider tokens for session cookies.
type SessionHandler struct {
	verifier   *auth.Verifier
	households *household.Service
	sessions   *store.SessionStore
	logger     *slog.Logger
}

func NewSessionHandler(v *auth.Verifier, hs *household.Service, ss *store.SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{verifier: v, households: hs, sessions: ss, logger: logger}
}

// SignIn verifies the bearer token, provisions the user on first sign-in and
// sets the session cookie.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	claims, err := h.verifier.Verify(strings.TrimSpace(token))
	if err != nil {
		h.logger.Warn("rejected identity token", "error", err, "remote", middleware.RealIP(r))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	user, err := h.households.Provision(r.Context(), claims.Email, claims.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	raw, sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    raw,
		Path:     "/",
		MaxAge:   int(store.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	id := auth.Identity{UserID: user.ID, Email: user.Email, Name: user.Name, SessionID: sess.ID}
	detail, err := h.households.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "household": detail})
}

// SignOut deletes the session, if any, and clears the cookie.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessions.GetByToken(r.Context(), cookie.Value); err == nil && sess != nil {
			if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
				h.logger.Error("delete session", "error", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
