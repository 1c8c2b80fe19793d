package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"GeetaSaathi/internal/flow"
	"GeetaSaathi/pkg/errors"
)

func TestCreateSessionIssuesTokens(t *testing.T) {
	svc := newTestService(flow.NewMemoryStore(), 10)
	auth := NewAuthService(svc, NewMemoryTokenStore())

	resp, err := auth.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.ExpiresIn <= 0 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Session.Phase != string(flow.PhaseWelcome) || resp.Session.SessionID == "" {
		t.Fatalf("session = %+v", resp.Session)
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(flow.NewMemoryStore(), 10)
	auth := NewAuthService(svc, NewMemoryTokenStore())

	created, err := auth.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// iat 精度为秒，保证新 token 与旧 token 不同
	time.Sleep(1100 * time.Millisecond)

	rotated, err := auth.RefreshToken(ctx, created.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if rotated.RefreshToken == created.RefreshToken {
		t.Fatal("refresh token should rotate")
	}

	if _, err := auth.RefreshToken(ctx, created.RefreshToken); !stderrors.Is(err, errors.Unauthorized) {
		t.Fatalf("old refresh token reuse: err = %v", err)
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(newTestService(flow.NewMemoryStore(), 10), NewMemoryTokenStore())

	created, err := auth.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.RefreshToken(ctx, created.AccessToken); !stderrors.Is(err, errors.Unauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestRevokeInvalidatesRefresh(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(flow.NewMemoryStore(), 10)
	auth := NewAuthService(svc, NewMemoryTokenStore())

	created, err := auth.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	auth.Revoke(ctx, created.Session.SessionID)

	if _, err := auth.RefreshToken(ctx, created.RefreshToken); !stderrors.Is(err, errors.Unauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}
