package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordGateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "password.hash")
	hash, err := HashPassword("tafia-rhum")
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteHashFile(path, hash); err != nil {
		t.Fatal(err)
	}

	gate, err := LoadPasswordGate(path)
	if err != nil {
		t.Fatalf("load gate: %v", err)
	}
	if err := gate.Check("tafia-rhum"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := gate.Check("tafia-rum"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHashPasswordRejectsWeak(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoadPasswordGateRequiresHash(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadPasswordGate(filepath.Join(dir, "missing")); !errors.Is(err, ErrNoPasswordHash) {
		t.Errorf("missing file: expected ErrNoPasswordHash, got %v", err)
	}

	blank := filepath.Join(dir, "blank")
	if err := os.WriteFile(blank, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPasswordGate(blank); !errors.Is(err, ErrNoPasswordHash) {
		t.Errorf("blank file: expected ErrNoPasswordHash, got %v", err)
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("not-a-hash"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPasswordGate(plain); err == nil {
		t.Errorf("plain text password must not be accepted as a hash")
	}
}

func TestNewPasswordGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ti-punch!"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewPasswordGate(append(hash, '\n')).Check("ti-punch!"); err != nil {
		t.Errorf("trailing newline in hash should be ignored: %v", err)
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager(strings.Repeat("k", 32), time.Hour)
	token, err := m.Generate()
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "club" || claims.ID == "" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"other secret", mustToken(t, NewJWTManager(strings.Repeat("x", 32), time.Hour)), ErrInvalidToken},
		{"expired", mustToken(t, NewJWTManager(strings.Repeat("k", 32), -time.Minute)), ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomSecret()
	if len(a) != 64 || a == b {
		t.Errorf("unexpected secrets %q %q", a, b)
	}
}

func mustToken(t *testing.T, m *JWTManager) string {
	t.Helper()
	token, err := m.Generate()
	if err != nil {
		t.Fatal(err)
	}
	return token
}
