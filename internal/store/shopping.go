package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplan/internal/model"
)

type ShoppingStore struct {
	db DBTX
}

func NewShoppingStore(db DBTX) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// NewShoppingItem is an item to insert.
type NewShoppingItem struct {
	Name     string
	Quantity *string
}

// ShoppingItemUpdate is a partial update; nil fields are left unchanged.
type ShoppingItemUpdate struct {
	Name     *string
	Quantity *string
	Checked  *bool
}

func scanShoppingItem(s scanner) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var quantity sql.NullString
	err := s.Scan(&item.ID, &item.HouseholdID, &item.Name, &quantity, &item.Checked, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Quantity = stringPtr(quantity)
	return &item, nil
}

const shoppingItemCols = `id, household_id, name, quantity, checked, created_at`

// List returns unchecked items first, newest first within each group.
func (s *ShoppingStore) List(ctx context.Context, householdID int64) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shoppingItemCols+` FROM shopping_items WHERE household_id = ?
		 ORDER BY checked ASC, created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	items := []model.ShoppingItem{}
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListNames returns the names of every item on the list, checked or not.
func (s *ShoppingStore) ListNames(ctx context.Context, householdID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM shopping_items WHERE household_id = ?`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list shopping names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan shopping name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *ShoppingStore) Create(ctx context.Context, householdID int64, item NewShoppingItem) (*model.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (household_id, name, quantity) VALUES (?, ?, ?)`,
		householdID, item.Name, nullString(item.Quantity),
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

// CreateMany inserts every item and reports how many were added. Run it in a
// transaction to make the batch atomic.
func (s *ShoppingStore) CreateMany(ctx context.Context, householdID int64, items []NewShoppingItem) (int, error) {
	for i, item := range items {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO shopping_items (household_id, name, quantity) VALUES (?, ?, ?)`,
			householdID, item.Name, nullString(item.Quantity),
		); err != nil {
			return i, fmt.Errorf("insert shopping item %q: %w", item.Name, err)
		}
	}
	return len(items), nil
}

func (s *ShoppingStore) Get(ctx context.Context, householdID, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shoppingItemCols+` FROM shopping_items WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) Update(ctx context.Context, householdID, id int64, u ShoppingItemUpdate) (*model.ShoppingItem, error) {
	// An empty quantity clears it.
	quantity := nullString(u.Quantity)
	if quantity.String == "" {
		quantity.Valid = false
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items SET
		   name = COALESCE(?, name),
		   quantity = CASE WHEN ? THEN ? ELSE quantity END,
		   checked = COALESCE(?, checked)
		 WHERE id = ? AND household_id = ?`,
		nullString(u.Name), u.Quantity != nil, quantity, nullBool(u.Checked),
		id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	return s.Get(ctx, householdID, id)
}

func (s *ShoppingStore) Delete(ctx context.Context, householdID, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

// ClearChecked deletes every checked item and returns how many were removed.
func (s *ShoppingStore) ClearChecked(ctx context.Context, householdID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE household_id = ? AND checked = 1`, householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear checked items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
