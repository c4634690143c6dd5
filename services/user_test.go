package services

import (
	"context"
	"testing"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
)

func newUserFixture(t *testing.T) (*UserService, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	t.Cleanup(func() { m.Close() })
	return NewUserService(m), m
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, models.SignupRequest{Email: "anna@example.com", Password: "secret123", Name: "Anna"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Error("password stored unhashed")
	}

	if _, err := svc.Signup(ctx, models.SignupRequest{Email: "anna@example.com", Password: "other", Name: "Anna 2"}); models.CodeOf(err) != models.CodeValidationFailed {
		t.Errorf("duplicate signup = %v, want validation failure", err)
	}

	if _, err := svc.Authenticate(ctx, models.LoginRequest{Email: "anna@example.com", Password: "secret123"}); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, models.LoginRequest{Email: "anna@example.com", Password: "wrong"}); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("wrong password = %v, want not authenticated", err)
	}
	if _, err := svc.Authenticate(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret123"}); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("unknown email = %v, want not authenticated", err)
	}

	identity, err := svc.Identity(ctx, user.ID)
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if identity.Name != "Anna" || identity.Email != "anna@example.com" {
		t.Errorf("Identity = %+v, want Anna's", identity)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user, _ := svc.Signup(ctx, models.SignupRequest{Email: "anna@example.com", Password: "secret123", Name: "Anna"})

	session, err := svc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.ID != user.ID {
		t.Errorf("Refresh returned user %q, want %q", refreshed.ID, user.ID)
	}

	if _, err := svc.Refresh(ctx, "bogus"); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("Refresh with unknown token = %v, want not authenticated", err)
	}

	if err := svc.Logout(ctx, session.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("Refresh after logout = %v, want not authenticated", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user, _ := svc.Signup(ctx, models.SignupRequest{Email: "anna@example.com", Password: "secret123", Name: "Anna"})

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpass123"); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("ChangePassword with wrong current = %v, want not authenticated", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "secret123", "newpass123"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, models.LoginRequest{Email: "anna@example.com", Password: "secret123"}); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Error("old password still authenticates")
	}
	if _, err := svc.Authenticate(ctx, models.LoginRequest{Email: "anna@example.com", Password: "newpass123"}); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, m := newUserFixture(t)
	ctx := context.Background()

	user, _ := svc.Signup(ctx, models.SignupRequest{Email: "anna@example.com", Password: "secret123", Name: "Anna"})
	session, _ := svc.CreateSession(ctx, user.ID)

	if err := svc.DeleteAccount(ctx, user.ID, "wrong"); models.CodeOf(err) != models.CodeNotAuthenticated {
		t.Errorf("DeleteAccount with wrong password = %v, want not authenticated", err)
	}

	if err := svc.DeleteAccount(ctx, user.ID, "secret123"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := m.Get(ctx, store.Users, user.ID); err != store.ErrNotFound {
		t.Error("user still exists after account deletion")
	}
	if _, err := m.Get(ctx, store.Sessions, session.ID); err != store.ErrNotFound {
		t.Error("session survived account deletion")
	}
}
