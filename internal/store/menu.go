package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplan/internal/model"
)

type MenuStore struct {
	db DBTX
}

func NewMenuStore(db DBTX) *MenuStore {
	return &MenuStore{db: db}
}

func scanMenuDay(s scanner) (*model.MenuDay, error) {
	var d model.MenuDay
	var id int64
	err := s.Scan(&id, &d.HouseholdID, &d.Date, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.ID = &id
	d.Meals = []model.Meal{}
	return &d, nil
}

func scanMeal(s scanner) (*model.Meal, error) {
	var m model.Meal
	var dishID sql.NullInt64
	var customName sql.NullString
	err := s.Scan(&m.ID, &m.MenuDayID, &m.Type, &dishID, &customName)
	if err != nil {
		return nil, err
	}
	if dishID.Valid {
		m.DishID = &dishID.Int64
	}
	m.CustomName = stringPtr(customName)
	return &m, nil
}

const menuDayCols = `id, household_id, date, created_at`
const mealCols = `m.id, m.menu_day_id, m.type, m.dish_id, m.custom_name`

// GetDay returns the menu day with its meals, or nil if the household has
// nothing planned on date.
func (s *MenuStore) GetDay(ctx context.Context, householdID int64, date string) (*model.MenuDay, error) {
	days, err := s.ListRange(ctx, householdID, date, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}
	return &days[0], nil
}

// EnsureDay returns the menu day for date, creating it if needed.
func (s *MenuStore) EnsureDay(ctx context.Context, householdID int64, date string) (*model.MenuDay, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_days (household_id, date) VALUES (?, ?) ON CONFLICT (household_id, date) DO NOTHING`,
		householdID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure menu day: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+menuDayCols+` FROM menu_days WHERE household_id = ? AND date = ?`,
		householdID, date,
	)
	d, err := scanMenuDay(row)
	if err != nil {
		return nil, fmt.Errorf("get menu day: %w", err)
	}
	return d, nil
}

// ListRange returns the household's menu days with start <= date <= end in
// ascending date order. Meals keep their insertion order and each meal that
// references a dish has it loaded.
func (s *MenuStore) ListRange(ctx context.Context, householdID int64, start, end string) ([]model.MenuDay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+menuDayCols+` FROM menu_days
		 WHERE household_id = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		householdID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list menu days: %w", err)
	}
	days := []model.MenuDay{}
	index := map[int64]int{}
	for rows.Next() {
		d, err := scanMenuDay(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan menu day: %w", err)
		}
		index[*d.ID] = len(days)
		days = append(days, *d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(days) == 0 {
		return days, nil
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT `+mealCols+` FROM meals m
		 JOIN menu_days md ON md.id = m.menu_day_id
		 WHERE md.household_id = ? AND md.date >= ? AND md.date <= ?
		 ORDER BY m.id ASC`,
		householdID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	var meals []model.Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Rows are drained before loading dishes so a single-connection pool
	// is never asked for a second cursor.
	dishes := NewDishStore(s.db)
	loaded := map[int64]*model.Dish{}
	for _, m := range meals {
		if m.DishID != nil {
			if _, ok := loaded[*m.DishID]; !ok {
				d, err := dishes.Get(ctx, householdID, *m.DishID)
				if err != nil {
					return nil, err
				}
				loaded[*m.DishID] = d
			}
			m.Dish = loaded[*m.DishID]
		}
		i := index[m.MenuDayID]
		days[i].Meals = append(days[i].Meals, m)
	}
	return days, nil
}

// UpsertMeal sets the meal of the given type on a menu day. An existing meal
// keeps its id, and so its position in the day.
func (s *MenuStore) UpsertMeal(ctx context.Context, menuDayID int64, mealType model.MealType, dishID *int64, customName *string) error {
	var dish sql.NullInt64
	if dishID != nil {
		dish = sql.NullInt64{Int64: *dishID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meals (menu_day_id, type, dish_id, custom_name) VALUES (?, ?, ?, ?)
		 ON CONFLICT (menu_day_id, type) DO UPDATE SET dish_id = excluded.dish_id, custom_name = excluded.custom_name`,
		menuDayID, mealType, dish, nullString(customName),
	)
	if err != nil {
		return fmt.Errorf("upsert meal: %w", err)
	}
	return nil
}

func (s *MenuStore) DeleteMeal(ctx context.Context, menuDayID int64, mealType model.MealType) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE menu_day_id = ? AND type = ?`, menuDayID, mealType)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

// DeleteDay removes the menu day for date and its meals.
func (s *MenuStore) DeleteDay(ctx context.Context, householdID int64, date string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM meals WHERE menu_day_id IN (SELECT id FROM menu_days WHERE household_id = ? AND date = ?)`,
		householdID, date,
	)
	if err != nil {
		return fmt.Errorf("delete day meals: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM menu_days WHERE household_id = ? AND date = ?`, householdID, date)
	if err != nil {
		return fmt.Errorf("delete menu day: %w", err)
	}
	return nil
}
