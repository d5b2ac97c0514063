package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGate_Authenticate(t *testing.T) {
	svc, store, u := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	gate, err := NewGate(svc.Codec(), store)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	issued, _, err := svc.Login(ctx, now, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := gate.Authenticate(ctx, issued.AccessToken, now)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("wrong user: %s", got.ID)
	}

	// A refresh credential never passes the gate.
	if _, err := gate.Authenticate(ctx, issued.RefreshToken, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh-as-access: got %v, want ErrInvalidToken", err)
	}

	if _, err := gate.Authenticate(ctx, "", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty: got %v, want ErrInvalidToken", err)
	}

	late := now.Add(svc.Config().AccessTokenTTL + time.Minute)
	if _, err := gate.Authenticate(ctx, issued.AccessToken, late); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired: got %v, want ErrExpired", err)
	}
}

func TestGate_UnknownSubject(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	gate, err := NewGate(svc.Codec(), store)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	// Mint a structurally valid credential for a subject with no user row.
	cred, _, err := svc.Codec().IssueAccess("01ARZ3NDEKTSV4RRFFQ69G5FAV", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := gate.Authenticate(ctx, cred, now); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}
