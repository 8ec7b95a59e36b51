package handler

import (
	"net/http"

	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/shopping"
	"github.com/dukerupert/mealplan/internal/validate"
)

type ShoppingHandler struct {
	items   *shopping.Service
	members MembershipResolver
}

func NewShoppingHandler(ss *shopping.Service, members MembershipResolver) *ShoppingHandler {
	return &ShoppingHandler{items: ss, members: members}
}

type shoppingItemRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Quantity string `json:"quantity" validate:"max=100"`
}

type generateRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type fromDishRequest struct {
	DishID      int64    `json:"dishId" validate:"required"`
	Ingredients []string `json:"ingredients"`
}

// generateResponse keeps the success flag clients of the bulk endpoints
// check for.
type generateResponse struct {
	Success bool `json:"success"`
	*shopping.GenerateResult
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	items, err := h.items.List(r.Context(), hh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var req shoppingItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.items.Create(r.Context(), hh, req.Name, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch shopping.ItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	item, err := h.items.Update(r.Context(), hh, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.items.Delete(r.Context(), hh, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ShoppingHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	n, err := h.items.ClearChecked(r.Context(), hh)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedCount": n})
}

// Generate adds the ingredients of the meals planned in a date range.
func (h *ShoppingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.items.Generate(r.Context(), hh, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Success: true, GenerateResult: result})
}

func (h *ShoppingHandler) AddFromDish(w http.ResponseWriter, r *http.Request) {
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var req fromDishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.items.AddFromDish(r.Context(), hh, req.DishID, req.Ingredients)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Success: true, GenerateResult: result})
}
