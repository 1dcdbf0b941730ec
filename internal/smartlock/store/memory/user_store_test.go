package memory_test

import (
	"context"
	"testing"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store/memory"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

func TestUserStore_DeletedSlotNotReused(t *testing.T) {
	us := memory.NewUserStore()
	ctx := context.Background()

	if _, err := us.CreateUser(ctx, types.User{Email: "a@x.io", FullName: "A"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := us.CreateUser(ctx, types.User{Email: "b@x.io", FullName: "B"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := us.DeleteUser(ctx, b.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	c, err := us.CreateUser(ctx, types.User{Email: "c@x.io", FullName: "C"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if c.BiometricID != 3 {
		t.Errorf("expected slot 3 after deleting slot 2, got %d", c.BiometricID)
	}
}

func TestUserStore_ExplicitSlotAdvancesSequence(t *testing.T) {
	us := memory.NewUserStore()
	ctx := context.Background()

	if _, err := us.CreateUser(ctx, types.User{Email: "a@x.io", FullName: "A", BiometricID: 7}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := us.CreateUser(ctx, types.User{Email: "b@x.io", FullName: "B"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if b.BiometricID != 8 {
		t.Errorf("expected 8, got %d", b.BiometricID)
	}
}
