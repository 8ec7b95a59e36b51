// Package dish manages a household's dish library.
package dish

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
	"github.com/dukerupert/mealplan/internal/validate"
)

// Input is a complete dish as submitted by a client or the assistant.
type Input struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Ingredients []string `json:"ingredients"`
	Category    string   `json:"category" validate:"omitempty,oneof=breakfast lunch dinner snack dessert any"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
}

// Patch is a partial update; nil fields are left unchanged and an empty
// string clears an optional field.
type Patch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Ingredients *[]string `json:"ingredients"`
	Category    *string   `json:"category"`
	ImageURL    *string   `json:"imageUrl"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// List returns the household's dishes by name. An unknown category is
// ignored rather than rejected.
func (s *Service) List(ctx context.Context, householdID int64, category string) ([]model.Dish, error) {
	var filter *model.DishCategory
	if c := model.DishCategory(category); c.Valid() {
		filter = &c
	}
	dishes, err := store.NewDishStore(s.db).List(ctx, householdID, filter)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list dishes")
	}
	return dishes, nil
}

// Recent returns up to limit of the household's newest dishes.
func (s *Service) Recent(ctx context.Context, householdID int64, limit int) ([]model.Dish, error) {
	dishes, err := store.NewDishStore(s.db).ListRecent(ctx, householdID, limit)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list dishes")
	}
	return dishes, nil
}

func (s *Service) Get(ctx context.Context, householdID, id int64) (*model.Dish, error) {
	d, err := store.NewDishStore(s.db).Get(ctx, householdID, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get dish")
	}
	if d == nil {
		return nil, apperr.New(apperr.NotFound, "dish not found")
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, householdID int64, in Input) (*model.Dish, error) {
	in = clean(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	dishes := store.NewDishStore(s.db)
	if err := checkName(ctx, dishes, householdID, in.Name, 0); err != nil {
		return nil, err
	}

	d, err := dishes.Create(ctx, householdID, params(in))
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create dish")
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, householdID, id int64, p Patch) (*model.Dish, error) {
	dishes := store.NewDishStore(s.db)
	existing, err := dishes.Get(ctx, householdID, id)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get dish")
	}
	if existing == nil {
		return nil, apperr.New(apperr.NotFound, "dish not found")
	}

	in := inputOf(existing)
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Ingredients != nil {
		in.Ingredients = *p.Ingredients
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.ImageURL != nil {
		in.ImageURL = *p.ImageURL
	}

	in = clean(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := checkName(ctx, dishes, householdID, in.Name, id); err != nil {
		return nil, err
	}

	d, err := dishes.Update(ctx, householdID, id, params(in))
	if err != nil {
		return nil, apperr.Wrap(err, "failed to update dish")
	}
	return d, nil
}

// Delete removes a dish. A dish still used by planned meals is only removed,
// together with those meals, when force is set.
func (s *Service) Delete(ctx context.Context, householdID, id int64, force bool) error {
	d, err := s.Get(ctx, householdID, id)
	if err != nil {
		return err
	}
	if d.MealCount > 0 && !force {
		return &apperr.Error{
			Kind:    apperr.Conflict,
			Message: fmt.Sprintf("This dish is used in %d meal(s). Set ?force=true to delete anyway.", d.MealCount),
			Extra:   map[string]any{"mealCount": d.MealCount},
		}
	}

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return store.NewDishStore(tx).Delete(ctx, householdID, id)
	})
	if err != nil {
		return apperr.Wrap(err, "failed to delete dish")
	}
	return nil
}

func checkName(ctx context.Context, dishes *store.DishStore, householdID int64, name string, excludeID int64) error {
	exists, err := dishes.NameExists(ctx, householdID, name, excludeID)
	if err != nil {
		return apperr.Wrap(err, "failed to check dish name")
	}
	if exists {
		return apperr.Newf(apperr.Conflict, "A dish named %q already exists in your library.", name)
	}
	return nil
}

// clean trims every text field and drops blank ingredients.
func clean(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	ingredients := make([]string, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			ingredients = append(ingredients, ing)
		}
	}
	in.Ingredients = ingredients
	return in
}

func params(in Input) store.DishParams {
	p := store.DishParams{Name: in.Name, Ingredients: in.Ingredients}
	if in.Description != "" {
		p.Description = &in.Description
	}
	if in.Category != "" {
		c := model.DishCategory(in.Category)
		p.Category = &c
	}
	if in.ImageURL != "" {
		p.ImageURL = &in.ImageURL
	}
	return p
}

func inputOf(d *model.Dish) Input {
	in := Input{Name: d.Name, Ingredients: d.Ingredients}
	if d.Description != nil {
		in.Description = *d.Description
	}
	if d.Category != nil {
		in.Category = string(*d.Category)
	}
	if d.ImageURL != nil {
		in.ImageURL = *d.ImageURL
	}
	return in
}
