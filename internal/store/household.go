package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealplan/internal/model"
)

type HouseholdStore struct {
	db DBTX
}

func NewHouseholdStore(db DBTX) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(s scanner) (*model.Household, error) {
	var h model.Household
	err := s.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHouseholdMember(s scanner) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := s.Scan(&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const householdCols = `id, name, created_at, updated_at`
const householdMemberCols = `id, household_id, user_id, role, joined_at`

func (s *HouseholdStore) Create(ctx context.Context, name string) (*model.Household, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(ctx context.Context, id int64, name string) (*model.Household, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a household and everything it owns. Children are deleted
// explicitly, leaves first, so the result does not depend on the
// foreign_keys pragma. Callers should run it inside a transaction.
func (s *HouseholdStore) Delete(ctx context.Context, id int64) error {
	steps := []struct {
		what  string
		query string
	}{
		{"meals", `DELETE FROM meals WHERE menu_day_id IN (SELECT id FROM menu_days WHERE household_id = ?)`},
		{"menu days", `DELETE FROM menu_days WHERE household_id = ?`},
		{"dishes", `DELETE FROM dishes WHERE household_id = ?`},
		{"shopping items", `DELETE FROM shopping_items WHERE household_id = ?`},
		{"invites", `DELETE FROM household_invites WHERE household_id = ?`},
		{"members", `DELETE FROM household_members WHERE household_id = ?`},
		{"household", `DELETE FROM households WHERE id = ?`},
	}
	for _, step := range steps {
		if _, err := s.db.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("delete %s: %w", step.what, err)
		}
	}
	return nil
}

func (s *HouseholdStore) AddMember(ctx context.Context, householdID, userID int64, role model.Role) (*model.HouseholdMember, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO household_members (household_id, user_id, role) VALUES (?, ?, ?)`,
		householdID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMemberByID(ctx, id)
}

func (s *HouseholdStore) GetMemberByID(ctx context.Context, id int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdMemberCols+` FROM household_members WHERE id = ?`, id)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMembershipByUser returns the user's only membership, or nil if the user
// has none.
func (s *HouseholdStore) GetMembershipByUser(ctx context.Context, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdMemberCols+` FROM household_members WHERE user_id = ?`, userID)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) GetMember(ctx context.Context, householdID, userID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListMembers returns the household's members with their user loaded,
// owner first and then by join order.
func (s *HouseholdStore) ListMembers(ctx context.Context, householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hm.id, hm.household_id, hm.user_id, hm.role, hm.joined_at,
		        u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM household_members hm
		 JOIN users u ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY CASE hm.role WHEN 'OWNER' THEN 0 ELSE 1 END, hm.joined_at ASC, hm.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.HouseholdMember{}
	for rows.Next() {
		var m model.HouseholdMember
		var u model.User
		if err := rows.Scan(
			&m.ID, &m.HouseholdID, &m.UserID, &m.Role, &m.JoinedAt,
			&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.User = &u
		members = append(members, m)
	}
	return members, rows.Err()
}

// OtherMembers returns every member of the household except the given user,
// earliest joined first.
func (s *HouseholdStore) OtherMembers(ctx context.Context, householdID, userID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+householdMemberCols+` FROM household_members
		 WHERE household_id = ? AND user_id != ?
		 ORDER BY joined_at ASC, id ASC`,
		householdID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list other members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) UpdateMemberRole(ctx context.Context, memberID int64, role model.Role) error {
	_, err := s.db.ExecContext(ctx, `UPDATE household_members SET role = ? WHERE id = ?`, role, memberID)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

func (s *HouseholdStore) DeleteMember(ctx context.Context, memberID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM household_members WHERE id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// CountOwners returns the number of OWNER memberships in the household.
func (s *HouseholdStore) CountOwners(ctx context.Context, householdID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM household_members WHERE household_id = ? AND role = 'OWNER'`, householdID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}
