package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastArgon2(t *testing.T) {
	t.Helper()
	// Keep hashing cheap in unit tests.
	t.Setenv("VIDTUBE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("VIDTUBE_ARGON2_ITERATIONS", "1")
}

func seedUser(t *testing.T, s *MemoryStore, username, email string) User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), CreateUserInput{
		Username: username,
		Email:    email,
		Password: "correct horse battery",
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestMemoryStore_CreateUser_Conflicts(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	seedUser(t, s, "Alice", "alice@example.com")

	_, err := s.CreateUser(ctx, CreateUserInput{
		Username: "ALICE", // collides case-insensitively
		Email:    "other@example.com",
		Password: "correct horse battery",
	})
	if !IsConflict(err) {
		t.Fatalf("expected username conflict, got %v", err)
	}
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Field != "username" {
		t.Fatalf("expected username field, got %+v", ce)
	}

	_, err = s.CreateUser(ctx, CreateUserInput{
		Username: "bob",
		Email:    "Alice@Example.COM",
		Password: "correct horse battery",
	})
	if !IsConflict(err) {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestMemoryStore_GetUserAuthByIdentity(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u := seedUser(t, s, "Alice", "alice@example.com")

	for _, identifier := range []string{"alice", "ALICE", "alice@example.com", "Alice@Example.com"} {
		ua, err := s.GetUserAuthByIdentity(ctx, identifier)
		if err != nil {
			t.Fatalf("GetUserAuthByIdentity(%q): %v", identifier, err)
		}
		if ua.User.ID != u.ID {
			t.Fatalf("GetUserAuthByIdentity(%q): wrong user", identifier)
		}
		if ua.PasswordHash == "" {
			t.Fatalf("expected password hash")
		}
		if ua.RefreshToken != nil {
			t.Fatalf("fresh user must have no refresh credential")
		}
	}

	if _, err := s.GetUserAuthByIdentity(ctx, "nobody"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_RefreshTokenLifecycle(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "alice", "alice@example.com")

	// login: set T1
	t1 := "credential-one"
	if err := s.SetRefreshToken(ctx, u.ID, &t1, now); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	ua, err := s.GetUserAuthByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserAuthByID: %v", err)
	}
	if ua.RefreshToken == nil || *ua.RefreshToken != t1 {
		t.Fatalf("stored credential mismatch after set")
	}

	// rotation: T1 -> T2 succeeds once
	if err := s.ReplaceRefreshToken(ctx, u.ID, t1, "credential-two", now); err != nil {
		t.Fatalf("ReplaceRefreshToken: %v", err)
	}

	// replaying T1 loses the compare-and-swap
	if err := s.ReplaceRefreshToken(ctx, u.ID, t1, "credential-three", now); !IsTokenReused(err) {
		t.Fatalf("expected token reuse, got %v", err)
	}

	// logout: clear, then any rotation fails
	if err := s.SetRefreshToken(ctx, u.ID, nil, now); err != nil {
		t.Fatalf("SetRefreshToken(nil): %v", err)
	}
	if err := s.ReplaceRefreshToken(ctx, u.ID, "credential-two", "credential-four", now); !IsTokenReused(err) {
		t.Fatalf("expected token reuse after logout, got %v", err)
	}

	// unknown user is indistinguishable from a mismatch
	if err := s.ReplaceRefreshToken(ctx, "missing", "x", "y", now); !IsTokenReused(err) {
		t.Fatalf("expected token reuse for unknown user, got %v", err)
	}

	// but SetRefreshToken reports the missing row
	if err := s.SetRefreshToken(ctx, "missing", &t1, now); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_SetPasswordHash(t *testing.T) {
	fastArgon2(t)
	s := NewMemoryStore()
	ctx := context.Background()

	u := seedUser(t, s, "alice", "alice@example.com")

	if err := s.SetPasswordHash(ctx, u.ID, "$argon2id$new", time.Time{}); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	ua, err := s.GetUserAuthByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserAuthByID: %v", err)
	}
	if ua.PasswordHash != "$argon2id$new" {
		t.Fatalf("hash not replaced")
	}

	if err := s.SetPasswordHash(ctx, "missing", "h", time.Time{}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
