package forex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lukasz-zimnoch/forex"
)

func TestAuthService_Register(t *testing.T) {
	tests := map[string]struct {
		username string
		password string
		expected error
	}{
		"valid":            {"alice", "Abcdef1!", nil},
		"short password":   {"alice", "abc", forex.ErrWeakPassword},
		"no symbol":        {"alice", "Abcdefg1", forex.ErrWeakPassword},
		"no uppercase":     {"alice", "abcdef1!", forex.ErrWeakPassword},
		"empty username":   {"", "Abcdef1!", forex.ErrInvalidUsername},
		"blank username":   {"   ", "Abcdef1!", forex.ErrInvalidUsername},
		"duplicate":        {"taken", "Abcdef1!", forex.ErrDuplicateUsername},
		"unicode username": {"żaneta", "Abcdef1!", nil},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			if _, err := f.auth.Register(ctx, "taken", "Abcdef1!"); err != nil {
				t.Fatal(err)
			}

			account, err := f.auth.Register(ctx, test.username, test.password)
			if !errors.Is(err, test.expected) {
				t.Fatalf(
					"unexpected error\n"+
						"expected: [%v]\n"+
						"actual:   [%v]",
					test.expected,
					err,
				)
			}

			if test.expected != nil {
				return
			}

			assertDecimal(t, "initial balance", dec("1000"), account.Balance)

			if string(account.PasswordHash) == test.password {
				t.Errorf("password stored in plain text")
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.auth.Register(ctx, "alice", "Abcdef1!"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.auth.Login(ctx, "alice", "Abcdef1?"); !errors.Is(err, forex.ErrInvalidCredentials) {
		t.Errorf("unexpected error for wrong password: [%v]", err)
	}

	if _, err := f.auth.Login(ctx, "bob", "Abcdef1!"); !errors.Is(err, forex.ErrInvalidCredentials) {
		t.Errorf("unexpected error for unknown user: [%v]", err)
	}

	if _, ok, _ := f.auth.CurrentIdentity(ctx); ok {
		t.Fatalf("failed login must not remember an identity")
	}

	session, err := f.auth.Login(ctx, "alice", "Abcdef1!")
	if err != nil {
		t.Fatal(err)
	}

	username, ok := session.Identity()
	if !ok || username != "alice" {
		t.Errorf(
			"unexpected session identity\n"+
				"expected: [%v]\n"+
				"actual:   [%v %v]",
			"alice true",
			username,
			ok,
		)
	}

	identity, ok, err := f.auth.CurrentIdentity(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if !ok || identity != "alice" {
		t.Errorf("unexpected stored identity: [%v %v]", identity, ok)
	}
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.login(t, "alice")

	if err := f.auth.Logout(ctx, session); err != nil {
		t.Fatal(err)
	}

	if _, ok := session.Identity(); ok {
		t.Errorf("session still active after logout")
	}

	if _, ok, _ := f.auth.CurrentIdentity(ctx); ok {
		t.Errorf("identity still stored after logout")
	}

	if err := f.auth.Logout(ctx, session); !errors.Is(err, forex.ErrNotAuthenticated) {
		t.Errorf("unexpected error for second logout: [%v]", err)
	}

	if err := f.auth.Logout(ctx, nil); !errors.Is(err, forex.ErrNotAuthenticated) {
		t.Errorf("unexpected error for nil session: [%v]", err)
	}
}

func TestAuthService_RestoreSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.auth.RestoreSession(ctx); !errors.Is(err, forex.ErrNotAuthenticated) {
		t.Errorf("unexpected error without stored identity: [%v]", err)
	}

	f.login(t, "alice")

	session, err := f.auth.RestoreSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if username, ok := session.Identity(); !ok || username != "alice" {
		t.Errorf("unexpected restored identity: [%v %v]", username, ok)
	}

	// A remembered identity of a vanished account is not trusted.
	if err := f.sessionStore.Save(ctx, "ghost"); err != nil {
		t.Fatal(err)
	}

	if _, err := f.auth.RestoreSession(ctx); !errors.Is(err, forex.ErrNotAuthenticated) {
		t.Errorf("unexpected error for unknown identity: [%v]", err)
	}
}
