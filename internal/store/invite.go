package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/mealplan/internal/model"
)

type InviteStore struct {
	db DBTX
}

func NewInviteStore(db DBTX) *InviteStore {
	return &InviteStore{db: db}
}

func scanInvite(s scanner) (*model.HouseholdInvite, error) {
	var inv model.HouseholdInvite
	err := s.Scan(&inv.ID, &inv.Email, &inv.HouseholdID, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const inviteCols = `id, email, household_id, invited_by, created_at, expires_at`

func (s *InviteStore) Create(ctx context.Context, householdID, invitedBy int64, email string, ttl time.Duration) (*model.HouseholdInvite, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO household_invites (email, household_id, invited_by, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(email)), householdID, invitedBy, now, now.Add(ttl),
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the invite regardless of expiry.
func (s *InviteStore) GetByID(ctx context.Context, id int64) (*model.HouseholdInvite, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inviteCols+` FROM household_invites WHERE id = ?`, id)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return inv, nil
}

func (s *InviteStore) ListActiveForHousehold(ctx context.Context, householdID int64) ([]model.HouseholdInvite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inviteCols+` FROM household_invites
		 WHERE household_id = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC`,
		householdID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := []model.HouseholdInvite{}
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// ListActiveForEmail returns unexpired invites addressed to email, newest
// first, with the inviting household's name filled in.
func (s *InviteStore) ListActiveForEmail(ctx context.Context, email string) ([]model.HouseholdInvite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.email, i.household_id, i.invited_by, i.created_at, i.expires_at, h.name
		 FROM household_invites i
		 JOIN households h ON h.id = i.household_id
		 WHERE i.email = ? AND i.expires_at > ?
		 ORDER BY i.created_at DESC, i.id DESC`,
		strings.ToLower(strings.TrimSpace(email)), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list invites for email: %w", err)
	}
	defer rows.Close()

	invites := []model.HouseholdInvite{}
	for rows.Next() {
		var inv model.HouseholdInvite
		if err := rows.Scan(
			&inv.ID, &inv.Email, &inv.HouseholdID, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &inv.HouseholdName,
		); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// FindActiveForEmail returns the newest unexpired invite for email, or nil.
func (s *InviteStore) FindActiveForEmail(ctx context.Context, email string) (*model.HouseholdInvite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM household_invites
		 WHERE email = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email)), time.Now().UTC(),
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	return inv, nil
}

// FindActive returns an unexpired invite for email into the given household, or nil.
func (s *InviteStore) FindActive(ctx context.Context, householdID int64, email string) (*model.HouseholdInvite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM household_invites
		 WHERE household_id = ? AND email = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		householdID, strings.ToLower(strings.TrimSpace(email)), time.Now().UTC(),
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invite: %w", err)
	}
	return inv, nil
}

func (s *InviteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM household_invites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}
