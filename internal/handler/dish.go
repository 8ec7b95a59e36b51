package handler

import (
	"net/http"

	"github.com/dukerupert/mealplan/internal/dish"
	"github.com/dukerupert/mealplan/internal/model"
)

type DishHandler struct {
	dishes  *dish.Service
	members MembershipResolver
}

func NewDishHandler(ds *dish.Service, members MembershipResolver) *DishHandler {
	return &DishHandler{dishes: ds, members: members}
}

func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	dishes, err := h.dishes.List(r.Context(), hh, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if dishes == nil {
		dishes = []model.Dish{}
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var in dish.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	d, err := h.dishes.Create(r.Context(), hh, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.dishes.Get(r.Context(), hh, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p dish.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	d, err := h.dishes.Update(r.Context(), hh, id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Delete removes a dish; ?force=true also removes the meals using it.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"
	if err := h.dishes.Delete(r.Context(), hh, id, force); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
