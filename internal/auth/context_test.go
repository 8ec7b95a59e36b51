package auth

import (
	"context"
	"testing"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	id := Identity{UserID: 1, Email: "alice@example.com", Name: "Alice", SessionID: 3}

	ctx := WithIdentity(context.Background(), id)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Identity in context")
	}
	if got != id {
		t.Errorf("identity = %+v, want %+v", got, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Identity")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: 7})
	if UserID(ctx) != 7 {
		t.Errorf("UserID = %d, want 7", UserID(ctx))
	}
	if UserID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}
