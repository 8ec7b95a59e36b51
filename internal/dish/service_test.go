package dish

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/database"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
)

func setupDishService(t *testing.T) (*Service, *sql.DB, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := store.NewHouseholdStore(db).Create(context.Background(), "Test Household")
	require.NoError(t, err)
	return NewService(db), db, h.ID
}

func TestCreateCleansInput(t *testing.T) {
	svc, _, hh := setupDishService(t)

	d, err := svc.Create(context.Background(), hh, Input{
		Name:        "  Pancakes ",
		Description: "   ",
		Ingredients: []string{" flour ", "", "  ", "milk"},
		Category:    "breakfast",
	})
	require.NoError(t, err)
	require.Equal(t, "Pancakes", d.Name)
	require.Nil(t, d.Description)
	require.Equal(t, []string{"flour", "milk"}, d.Ingredients)
	require.NotNil(t, d.Category)
	require.Equal(t, model.CategoryBreakfast, *d.Category)
}

func TestCreateValidation(t *testing.T) {
	svc, _, hh := setupDishService(t)
	ctx := context.Background()

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name string
		in   Input
	}{
		{"blank name", Input{Name: "   "}},
		{"long name", Input{Name: string(long)}},
		{"bad category", Input{Name: "Soup", Category: "brunch"}},
		{"bad image url", Input{Name: "Soup", ImageURL: "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, hh, tt.in)
			require.True(t, apperr.Is(err, apperr.Validation), "err = %v", err)
		})
	}
}

func TestCreateDuplicateNameIsConflict(t *testing.T) {
	svc, _, hh := setupDishService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, hh, Input{Name: "Lasagna"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, hh, Input{Name: "  LASAGNA"})
	require.True(t, apperr.Is(err, apperr.Conflict), "err = %v", err)
}

func TestCreateDuplicateAccentedName(t *testing.T) {
	svc, _, hh := setupDishService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, hh, Input{Name: "Crème Brûlée"})
	require.NoError(t, err)

	d, err := svc.Create(ctx, hh, Input{Name: "CRÈME BRÛLÉE"})
	require.Error(t, err)
	require.Nil(t, d)
	require.True(t, apperr.Is(err, apperr.Conflict), "err = %v", err)

	_, err = svc.Create(ctx, hh, Input{Name: "Crème Caramel"})
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	svc, _, hh := setupDishService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, hh, Input{Name: "Soup", Description: "Hot", Category: "dinner"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, hh, Input{Name: "Salad"})
	require.NoError(t, err)

	// Renaming to its own name in another case is fine.
	name := "SOUP"
	updated, err := svc.Update(ctx, hh, d.ID, Patch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "SOUP", updated.Name)
	require.Equal(t, "Hot", *updated.Description)

	none := ""
	updated, err = svc.Update(ctx, hh, d.ID, Patch{Category: &none})
	require.NoError(t, err)
	require.Nil(t, updated.Category)

	taken := "salad"
	_, err = svc.Update(ctx, hh, d.ID, Patch{Name: &taken})
	require.True(t, apperr.Is(err, apperr.Conflict))

	_, err = svc.Update(ctx, hh+1, other.ID, Patch{Name: &name})
	require.True(t, apperr.Is(err, apperr.NotFound))
}

func TestListIgnoresUnknownCategory(t *testing.T) {
	svc, _, hh := setupDishService(t)
	ctx := context.Background()

	svc.Create(ctx, hh, Input{Name: "Toast", Category: "breakfast"})
	svc.Create(ctx, hh, Input{Name: "Steak", Category: "dinner"})

	all, err := svc.List(ctx, hh, "nonsense")
	require.NoError(t, err)
	require.Len(t, all, 2)

	dinner, err := svc.List(ctx, hh, "dinner")
	require.NoError(t, err)
	require.Len(t, dinner, 1)
	require.Equal(t, "Steak", dinner[0].Name)
}

func TestDeleteInUseRequiresForce(t *testing.T) {
	svc, db, hh := setupDishService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, hh, Input{Name: "Tacos"})
	require.NoError(t, err)
	ms := store.NewMenuStore(db)
	day, err := ms.EnsureDay(ctx, hh, "2024-01-01")
	require.NoError(t, err)
	require.NoError(t, ms.UpsertMeal(ctx, *day.ID, model.MealDinner, &d.ID, nil))

	err = svc.Delete(ctx, hh, d.ID, false)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	require.Equal(t, apperr.Conflict, ae.Kind)
	require.Equal(t, 1, ae.Extra["mealCount"])

	require.NoError(t, svc.Delete(ctx, hh, d.ID, true))
	_, err = svc.Get(ctx, hh, d.ID)
	require.True(t, apperr.Is(err, apperr.NotFound))

	got, err := ms.GetDay(ctx, hh, "2024-01-01")
	require.NoError(t, err)
	require.Empty(t, got.Meals)
}
