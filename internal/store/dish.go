package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/mealplan/internal/model"
)

type DishStore struct {
	db DBTX
}

func NewDishStore(db DBTX) *DishStore {
	return &DishStore{db: db}
}

// DishParams holds the writable fields of a dish.
type DishParams struct {
	Name        string
	Description *string
	Ingredients []string
	Category    *model.DishCategory
	ImageURL    *string
}

func scanDish(s scanner) (*model.Dish, error) {
	var d model.Dish
	var description, category, imageURL sql.NullString
	var ingredients string
	err := s.Scan(
		&d.ID, &d.HouseholdID, &d.Name, &description, &ingredients, &category, &imageURL,
		&d.CreatedAt, &d.UpdatedAt, &d.MealCount,
	)
	if err != nil {
		return nil, err
	}
	d.Description = stringPtr(description)
	d.ImageURL = stringPtr(imageURL)
	if category.Valid {
		c := model.DishCategory(category.String)
		d.Category = &c
	}
	if err := json.Unmarshal([]byte(ingredients), &d.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if d.Ingredients == nil {
		d.Ingredients = []string{}
	}
	return &d, nil
}

const dishCols = `d.id, d.household_id, d.name, d.description, d.ingredients, d.category, d.image_url,
	d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM meals m WHERE m.dish_id = d.id)`

func encodeIngredients(ingredients []string) (string, error) {
	if ingredients == nil {
		ingredients = []string{}
	}
	b, err := json.Marshal(ingredients)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(b), nil
}

func nullCategory(c *model.DishCategory) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func (s *DishStore) Create(ctx context.Context, householdID int64, p DishParams) (*model.Dish, error) {
	ingredients, err := encodeIngredients(p.Ingredients)
	if err != nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO dishes (household_id, name, description, ingredients, category, image_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, p.Name, nullString(p.Description), ingredients, nullCategory(p.Category), nullString(p.ImageURL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert dish: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// Get returns the dish only if it belongs to the household.
func (s *DishStore) Get(ctx context.Context, householdID, id int64) (*model.Dish, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+dishCols+` FROM dishes d WHERE d.id = ? AND d.household_id = ?`,
		id, householdID,
	)
	d, err := scanDish(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dish: %w", err)
	}
	return d, nil
}

// List returns the household's dishes by name. A nil category lists all.
func (s *DishStore) List(ctx context.Context, householdID int64, category *model.DishCategory) ([]model.Dish, error) {
	query := `SELECT ` + dishCols + ` FROM dishes d WHERE d.household_id = ?`
	args := []any{householdID}
	if category != nil {
		query += ` AND d.category = ?`
		args = append(args, string(*category))
	}
	query += ` ORDER BY d.name COLLATE NOCASE ASC, d.id ASC`
	return s.query(ctx, query, args...)
}

// ListRecent returns up to limit dishes, most recently created first.
func (s *DishStore) ListRecent(ctx context.Context, householdID int64, limit int) ([]model.Dish, error) {
	return s.query(ctx,
		`SELECT `+dishCols+` FROM dishes d WHERE d.household_id = ?
		 ORDER BY d.created_at DESC, d.id DESC LIMIT ?`,
		householdID, limit,
	)
}

func (s *DishStore) query(ctx context.Context, query string, args ...any) ([]model.Dish, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	defer rows.Close()

	dishes := []model.Dish{}
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

func (s *DishStore) Update(ctx context.Context, householdID, id int64, p DishParams) (*model.Dish, error) {
	ingredients, err := encodeIngredients(p.Ingredients)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE dishes SET name = ?, description = ?, ingredients = ?, category = ?, image_url = ?,
		 updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND household_id = ?`,
		p.Name, nullString(p.Description), ingredients, nullCategory(p.Category), nullString(p.ImageURL),
		id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update dish: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// Delete removes the dish and every meal that references it.
func (s *DishStore) Delete(ctx context.Context, householdID, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE dish_id = ?`, id); err != nil {
		return fmt.Errorf("delete dish meals: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM dishes WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete dish: %w", err)
	}
	return nil
}

// NameExists reports whether another dish in the household already uses
// name. Names are compared with Unicode case folding, which SQLite's lower()
// only does for ASCII. excludeID is ignored when zero.
func (s *DishStore) NameExists(ctx context.Context, householdID int64, name string, excludeID int64) (bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM dishes WHERE household_id = ? AND id != ?`,
		householdID, excludeID,
	)
	if err != nil {
		return false, fmt.Errorf("check dish name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return false, fmt.Errorf("scan dish name: %w", err)
		}
		if strings.EqualFold(existing, name) {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("check dish name: %w", err)
	}
	return false, nil
}
