package handler

import (
	"net/http"

	"github.com/dukerupert/mealplan/internal/menu"
	"github.com/dukerupert/mealplan/internal/model"
)

type MenuHandler struct {
	menus   *menu.Service
	members MembershipResolver
}

func NewMenuHandler(ms *menu.Service, members MembershipResolver) *MenuHandler {
	return &MenuHandler{menus: ms, members: members}
}

type setMealRequest struct {
	Date       string         `json:"date"`
	MealType   model.MealType `json:"mealType"`
	DishID     *int64         `json:"dishId"`
	CustomName string         `json:"customName"`
}

// List returns the plan for ?start=&end= (YYYY-MM-DD, inclusive).
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	q := r.URL.Query()
	days, err := h.menus.Range(r.Context(), hh, q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if days == nil {
		days = []model.MenuDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

func (h *MenuHandler) SetMeal(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var req setMealRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := h.menus.SetMeal(r.Context(), hh, req.Date, req.MealType, req.DishID, req.CustomName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *MenuHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	day, err := h.menus.Day(r.Context(), hh, r.PathValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *MenuHandler) ClearDay(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	if err := h.menus.ClearDay(r.Context(), hh, r.PathValue("date")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
