// Package menu plans meals onto calendar days.
package menu

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
)

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// checkDate returns date as a calendar date, accepting full ISO timestamps.
func checkDate(field, date string) (string, error) {
	if strings.TrimSpace(date) == "" {
		return "", apperr.Newf(apperr.Validation, "%s is required", field)
	}
	day, ok := model.ParseDate(date)
	if !ok {
		return "", apperr.New(apperr.Validation, "invalid date format, use YYYY-MM-DD")
	}
	return day, nil
}

// Range returns every planned day from start to end inclusive.
func (s *Service) Range(ctx context.Context, householdID int64, start, end string) ([]model.MenuDay, error) {
	start, err := checkDate("start", start)
	if err != nil {
		return nil, err
	}
	end, err = checkDate("end", end)
	if err != nil {
		return nil, err
	}
	days, err := store.NewMenuStore(s.db).ListRange(ctx, householdID, start, end)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load menu")
	}
	return days, nil
}

// Day returns the plan for date. A day with nothing planned is returned
// with a nil id and no meals.
func (s *Service) Day(ctx context.Context, householdID int64, date string) (*model.MenuDay, error) {
	date, err := checkDate("date", date)
	if err != nil {
		return nil, err
	}
	day, err := store.NewMenuStore(s.db).GetDay(ctx, householdID, date)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load menu day")
	}
	if day == nil {
		return &model.MenuDay{HouseholdID: householdID, Date: date, Meals: []model.Meal{}}, nil
	}
	return day, nil
}

// SetMeal assigns a dish or a free-text name to one meal slot. With neither
// a dish nor a custom name the slot is cleared.
func (s *Service) SetMeal(ctx context.Context, householdID int64, date string, mealType model.MealType, dishID *int64, customName string) (*model.MenuDay, error) {
	date, err := checkDate("date", date)
	if err != nil {
		return nil, err
	}
	if !mealType.Valid() {
		return nil, apperr.New(apperr.Validation, "valid mealType is required (BREAKFAST, LUNCH, or DINNER)")
	}
	customName = strings.TrimSpace(customName)

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if dishID != nil {
			d, err := store.NewDishStore(tx).Get(ctx, householdID, *dishID)
			if err != nil {
				return err
			}
			if d == nil {
				return apperr.New(apperr.NotFound, "dish not found")
			}
		}

		menus := store.NewMenuStore(tx)
		day, err := menus.EnsureDay(ctx, householdID, date)
		if err != nil {
			return err
		}
		if dishID == nil && customName == "" {
			return menus.DeleteMeal(ctx, *day.ID, mealType)
		}

		var name *string
		if dishID == nil {
			name = &customName
		}
		return menus.UpsertMeal(ctx, *day.ID, mealType, dishID, name)
	})
	if err != nil {
		return nil, apperr.Propagate(err, "failed to update meal")
	}
	return s.Day(ctx, householdID, date)
}

// ClearDay removes every meal planned on date.
func (s *Service) ClearDay(ctx context.Context, householdID int64, date string) error {
	date, err := checkDate("date", date)
	if err != nil {
		return err
	}
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return store.NewMenuStore(tx).DeleteDay(ctx, householdID, date)
	})
	if err != nil {
		return apperr.Wrap(err, "failed to clear menu day")
	}
	return nil
}
