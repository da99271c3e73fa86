package service

import (
	"context"
	"errors"
	"testing"

	"snapgram/internal/models"
)

func TestAuthService_SignUp_HashesPasswordAndCreatesActiveUser(t *testing.T) {
	users := &fakeUserRepo{createID: 42}
	svc := NewAuthService(users, "test-key")

	id, err := svc.SignUp("alice", "alice@example.com", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}

	if len(users.creates) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(users.creates))
	}
	created := users.creates[0]
	if created.Username != "alice" || created.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", created)
	}
	if !created.IsActive {
		t.Errorf("new users must start active")
	}
	if created.PasswordHash == "s3cr3t" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(created.PasswordHash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}
}

func TestAuthService_SignUp_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"empty_password", "bob@example.com", "   "},
		{"empty_email", "", "pass123"},
		{"email_without_at", "not-an-email", "pass123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &fakeUserRepo{}
			svc := NewAuthService(users, "test-key")

			if _, err := svc.SignUp("bob", tc.email, tc.password); err == nil {
				t.Fatalf("expected error")
			}
			if len(users.creates) != 0 {
				t.Fatalf("expected no Create calls, got %d", len(users.creates))
			}
		})
	}
}

func TestAuthService_GenerateToken_RoundTripAndLastLogin(t *testing.T) {
	hash, err := hashPassword("pass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := &fakeUserRepo{user: &models.User{ID: 7, Username: "carol", PasswordHash: hash, IsActive: true}}
	svc := NewAuthService(users, "test-key")

	token, err := svc.GenerateToken(context.Background(), "carol", "pass123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 7 {
		t.Fatalf("parsed user id = %d, want 7", uid)
	}

	if len(users.touched) != 1 || users.touched[0] != 7 {
		t.Fatalf("expected last_login touch for user 7, got %v", users.touched)
	}
}

func TestAuthService_GenerateToken_Failures(t *testing.T) {
	hash, _ := hashPassword("right")

	cases := []struct {
		name string
		repo *fakeUserRepo
		pass string
		want error
	}{
		{"unknown_user", &fakeUserRepo{user: nil}, "x", ErrUserNotFound},
		{"inactive_user", &fakeUserRepo{user: &models.User{ID: 1, PasswordHash: hash}}, "right", ErrUserNotFound},
		{"wrong_password", &fakeUserRepo{user: &models.User{ID: 1, PasswordHash: hash, IsActive: true}}, "wrong", ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAuthService(tc.repo, "test-key")
			_, err := svc.GenerateToken(context.Background(), "u", tc.pass)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if len(tc.repo.touched) != 0 {
				t.Fatalf("last_login must not be touched on failure")
			}
		})
	}
}

func TestAuthService_ParseToken_WrongKey(t *testing.T) {
	hash, _ := hashPassword("pass123")
	users := &fakeUserRepo{user: &models.User{ID: 7, PasswordHash: hash, IsActive: true}}

	issuer := NewAuthService(users, "key-a")
	verifier := NewAuthService(users, "key-b")

	token, err := issuer.GenerateToken(context.Background(), "u", "pass123")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatalf("expected verification failure with a different signing key")
	}
}

func TestAuthService_ParseToken_Garbage(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{}, "test-key")
	if _, err := svc.ParseToken("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
