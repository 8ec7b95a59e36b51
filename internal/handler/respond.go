package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/logging"
	"github.com/dukerupert/mealplan/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its status code. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.Internal || e.Kind == apperr.None {
		logging.FromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	body := map[string]any{"error": e.Message}
	for k, v := range e.Extra {
		body[k] = v
	}
	writeJSON(w, e.Kind.Status(), body)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// pathID parses the {id} path value, writing a 400 when it is not a number.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// decodeJSON reads a JSON body into v, writing a 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return auth.Identity{}, false
	}
	return id, true
}

// MembershipResolver finds the caller's household.
type MembershipResolver interface {
	Membership(ctx context.Context, id auth.Identity) (*model.HouseholdMember, error)
}

// currentHousehold resolves the household every household-scoped route
// operates on.
func currentHousehold(w http.ResponseWriter, r *http.Request, members MembershipResolver) (int64, bool) {
	id, ok := identity(w, r)
	if !ok {
		return 0, false
	}
	m, err := members.Membership(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return m.HouseholdID, true
}
