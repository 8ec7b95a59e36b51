package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/database"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
)

func setupMenuService(t *testing.T) (*Service, *store.DishStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := store.NewHouseholdStore(db).Create(context.Background(), "Test Household")
	require.NoError(t, err)
	return NewService(db), store.NewDishStore(db), h.ID
}

func TestSetMealWithDish(t *testing.T) {
	svc, ds, hh := setupMenuService(t)
	ctx := context.Background()

	d, err := ds.Create(ctx, hh, store.DishParams{Name: "Omelette", Ingredients: []string{"eggs"}})
	require.NoError(t, err)

	day, err := svc.SetMeal(ctx, hh, "2024-05-01", model.MealBreakfast, &d.ID, "")
	require.NoError(t, err)
	require.NotNil(t, day.ID)
	require.Len(t, day.Meals, 1)
	require.Equal(t, model.MealBreakfast, day.Meals[0].Type)
	require.NotNil(t, day.Meals[0].Dish)
	require.Equal(t, "Omelette", day.Meals[0].Dish.Name)
}

func TestSetMealCustomNameThenClear(t *testing.T) {
	svc, _, hh := setupMenuService(t)
	ctx := context.Background()

	day, err := svc.SetMeal(ctx, hh, "2024-05-01", model.MealLunch, nil, " Leftovers ")
	require.NoError(t, err)
	require.Len(t, day.Meals, 1)
	require.Equal(t, "Leftovers", *day.Meals[0].CustomName)
	require.Nil(t, day.Meals[0].DishID)

	day, err = svc.SetMeal(ctx, hh, "2024-05-01", model.MealLunch, nil, "")
	require.NoError(t, err)
	require.Empty(t, day.Meals)
}

func TestSetMealErrors(t *testing.T) {
	svc, ds, hh := setupMenuService(t)
	ctx := context.Background()

	_, err := svc.SetMeal(ctx, hh, "05/01/2024", model.MealLunch, nil, "x")
	require.True(t, apperr.Is(err, apperr.Validation))

	_, err = svc.SetMeal(ctx, hh, "2024-05-01", model.MealType("BRUNCH"), nil, "x")
	require.True(t, apperr.Is(err, apperr.Validation))

	missing := int64(999)
	_, err = svc.SetMeal(ctx, hh, "2024-05-01", model.MealDinner, &missing, "")
	require.True(t, apperr.Is(err, apperr.NotFound))

	// A dish from another household is treated as missing.
	other, err := ds.Create(ctx, hh, store.DishParams{Name: "Mine"})
	require.NoError(t, err)
	_, err = svc.SetMeal(ctx, hh+1, "2024-05-01", model.MealDinner, &other.ID, "")
	require.True(t, apperr.Is(err, apperr.NotFound))

	day, err := svc.Day(ctx, hh, "2024-05-01")
	require.NoError(t, err)
	require.Nil(t, day.ID, "failed writes must not leave a menu day behind")
}

func TestDatesAcceptTimestamps(t *testing.T) {
	svc, _, hh := setupMenuService(t)
	ctx := context.Background()

	day, err := svc.SetMeal(ctx, hh, "2024-05-01T18:30:00Z", model.MealDinner, nil, "Pizza")
	require.NoError(t, err)
	require.Equal(t, "2024-05-01", day.Date)

	got, err := svc.Day(ctx, hh, "2024-05-01T00:00:00.000Z")
	require.NoError(t, err)
	require.NotNil(t, got.ID)
	require.Len(t, got.Meals, 1)

	days, err := svc.Range(ctx, hh, "2024-05-01T00:00:00+02:00", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, days, 1)

	require.NoError(t, svc.ClearDay(ctx, hh, "2024-05-01T12:00:00Z"))
	got, err = svc.Day(ctx, hh, "2024-05-01")
	require.NoError(t, err)
	require.Nil(t, got.ID)
}

func TestDayEmpty(t *testing.T) {
	svc, _, hh := setupMenuService(t)

	day, err := svc.Day(context.Background(), hh, "2024-06-01")
	require.NoError(t, err)
	require.Nil(t, day.ID)
	require.Equal(t, "2024-06-01", day.Date)
	require.NotNil(t, day.Meals)
}

func TestRangeAndClearDay(t *testing.T) {
	svc, _, hh := setupMenuService(t)
	ctx := context.Background()

	for _, date := range []string{"2024-05-03", "2024-05-01", "2024-05-10"} {
		_, err := svc.SetMeal(ctx, hh, date, model.MealDinner, nil, "Pizza")
		require.NoError(t, err)
	}

	days, err := svc.Range(ctx, hh, "2024-05-01", "2024-05-07")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "2024-05-01", days[0].Date)
	require.Equal(t, "2024-05-03", days[1].Date)

	require.NoError(t, svc.ClearDay(ctx, hh, "2024-05-01"))
	days, err = svc.Range(ctx, hh, "2024-05-01", "2024-05-07")
	require.NoError(t, err)
	require.Len(t, days, 1)

	_, err = svc.Range(ctx, hh, "", "2024-05-07")
	require.True(t, apperr.Is(err, apperr.Validation))
}
