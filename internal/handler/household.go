package handler

import (
	"net/http"

	"github.com/dukerupert/mealplan/internal/household"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/validate"
)

type HouseholdHandler struct {
	svc *household.Service
}

func NewHouseholdHandler(svc *household.Service) *HouseholdHandler {
	return &HouseholdHandler{svc: svc}
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	hh, err := h.svc.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	memberID, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.RemoveMember(r.Context(), id, memberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HouseholdHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	invite, err := h.svc.CreateInvite(r.Context(), id, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (h *HouseholdHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	invites, err := h.svc.ListInvites(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if invites == nil {
		invites = []model.HouseholdInvite{}
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *HouseholdHandler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	inviteID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.CancelInvite(r.Context(), id, inviteID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HouseholdHandler) PendingInvites(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	invites, err := h.svc.PendingInvites(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if invites == nil {
		invites = []model.HouseholdInvite{}
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *HouseholdHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	inviteID, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeclineInvite(r.Context(), id, inviteID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HouseholdHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.AcceptInvite(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
