package store

import (
	"context"
	"testing"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(openTestDB(t))
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create(context.Background(), "  Alice@Example.com ", "Alice")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	if _, err := us.Create(ctx, "alice@example.com", "Alice"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create(ctx, "ALICE@example.com", "Alice2"); err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	if _, err := us.Create(ctx, "alice@example.com", "Alice"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := us.GetByEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Name != "Alice" {
		t.Errorf("name = %q, want %q", u.Name, "Alice")
	}

	missing, err := us.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for nonexistent email")
	}
}

func TestUserUpdateName(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	created, _ := us.Create(ctx, "alice@example.com", "Alice")
	updated, err := us.UpdateName(ctx, created.ID, "Alice Updated")
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.Name != "Alice Updated" {
		t.Errorf("name = %q, want %q", updated.Name, "Alice Updated")
	}
}

func TestUserDelete(t *testing.T) {
	us := setupUserTestDB(t)
	ctx := context.Background()

	created, _ := us.Create(ctx, "alice@example.com", "Alice")
	if err := us.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	u, err := us.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if u != nil {
		t.Error("expected nil after delete")
	}
}
