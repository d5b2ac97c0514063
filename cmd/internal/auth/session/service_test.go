package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidtube/cmd/identity"
	"vidtube/cmd/security/token"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessTokenSecret = []byte("0123456789abcdef0123456789abcdef")
	cfg.RefreshTokenSecret = []byte("fedcba9876543210fedcba9876543210")
	return cfg
}

func fastArgon2(t *testing.T) {
	t.Helper()
	t.Setenv("VIDTUBE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("VIDTUBE_ARGON2_ITERATIONS", "1")
}

func newTestService(t *testing.T) (*Service, *identity.MemoryStore, identity.User) {
	t.Helper()
	fastArgon2(t)

	store := identity.NewMemoryStore()
	svc, err := NewService(testConfig(), store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	u, err := store.CreateUser(context.Background(), identity.CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return svc, store, u
}

func storedRefresh(t *testing.T, store *identity.MemoryStore, userID string) *string {
	t.Helper()
	ua, err := store.GetUserAuthByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetUserAuthByID: %v", err)
	}
	return ua.RefreshToken
}

func TestService_Login(t *testing.T) {
	svc, store, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, got, err := svc.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user: %s", got.ID)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("expected a credential pair")
	}
	if !issued.RefreshExp.After(issued.AccessExp) {
		t.Fatalf("refresh must outlive access")
	}

	// The stored credential is the returned one, byte for byte.
	st := storedRefresh(t, store, u.ID)
	if st == nil || *st != issued.RefreshToken {
		t.Fatalf("stored refresh credential differs from issued one")
	}

	// Both credentials verify with the right kinds.
	if sub, err := svc.Codec().Verify(issued.AccessToken, token.KindAccess, now); err != nil || sub != u.ID {
		t.Fatalf("access verify: sub=%q err=%v", sub, err)
	}
	if sub, err := svc.Codec().Verify(issued.RefreshToken, token.KindRefresh, now); err != nil || sub != u.ID {
		t.Fatalf("refresh verify: sub=%q err=%v", sub, err)
	}

	// Email works as an identifier too.
	if _, _, err := svc.Login(ctx, now, "Alice@Example.com", "correct horse battery"); err != nil {
		t.Fatalf("Login by email: %v", err)
	}
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	cases := []struct{ identifier, password string }{
		{"alice", "wrong password"},
		{"nobody", "correct horse battery"},
		{"", "correct horse battery"},
		{"alice", ""},
	}
	for _, tc := range cases {
		if _, _, err := svc.Login(ctx, now, tc.identifier, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q, %q): got %v, want ErrInvalidCredentials", tc.identifier, tc.password, err)
		}
	}
}

func TestService_Refresh_RotatesAndDetectsReuse(t *testing.T) {
	svc, store, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, _, err := svc.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	t1 := issued.RefreshToken

	// T1 -> T2
	now = now.Add(time.Minute)
	rotated, err := svc.Refresh(ctx, now, t1)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == t1 {
		t.Fatalf("rotation returned the same credential")
	}
	st := storedRefresh(t, store, u.ID)
	if st == nil || *st != rotated.RefreshToken {
		t.Fatalf("store does not hold the rotated credential")
	}

	// Replaying T1 is reuse and kills everything.
	now = now.Add(time.Minute)
	if _, err := svc.Refresh(ctx, now, t1); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("replay: got %v, want ErrTokenReused", err)
	}
	if storedRefresh(t, store, u.ID) != nil {
		t.Fatalf("reuse must invalidate the stored credential")
	}

	// Even the latest credential is dead after the reuse response.
	if _, err := svc.Refresh(ctx, now, rotated.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("post-reuse refresh: got %v, want ErrTokenReused", err)
	}
}

func TestService_Refresh_RejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, _, err := svc.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// An access credential is not a refresh credential.
	if _, err := svc.Refresh(ctx, now, issued.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access-as-refresh: got %v, want ErrInvalidToken", err)
	}

	if _, err := svc.Refresh(ctx, now, "not-a-credential"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: got %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Refresh(ctx, now, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty: got %v, want ErrInvalidToken", err)
	}

	// Past the refresh TTL the credential is expired, not merely invalid.
	late := now.Add(svc.Config().RefreshTokenTTL + time.Minute)
	if _, err := svc.Refresh(ctx, late, issued.RefreshToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired: got %v, want ErrExpired", err)
	}
}

func TestService_Logout(t *testing.T) {
	svc, store, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, _, err := svc.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, now, u.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if storedRefresh(t, store, u.ID) != nil {
		t.Fatalf("logout must clear the stored credential")
	}

	// Idempotent, including for unknown users.
	if err := svc.Logout(ctx, now, u.ID); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if err := svc.Logout(ctx, now, "missing"); err != nil {
		t.Fatalf("Logout(missing): %v", err)
	}

	// The old refresh credential is dead.
	if _, err := svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("refresh after logout: got %v, want ErrTokenReused", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc, store, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, _, err := svc.Login(ctx, now, "alice", "correct horse battery"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.ChangePassword(ctx, now, u.ID, "wrong", "a brand new passphrase"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong old password: got %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(ctx, now, "missing", "x", "a brand new passphrase"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: got %v, want ErrUserNotFound", err)
	}

	if err := svc.ChangePassword(ctx, now, u.ID, "correct horse battery", "a brand new passphrase"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if storedRefresh(t, store, u.ID) != nil {
		t.Fatalf("password change must invalidate the refresh credential")
	}

	if _, _, err := svc.Login(ctx, now, "alice", "correct horse battery"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
	if _, _, err := svc.Login(ctx, now, "alice", "a brand new passphrase"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
