// Package auth gates access to the ledger: one shared club password checked
// against a bcrypt hash kept in a side file, then short-lived session tokens.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNoPasswordHash     = errors.New("password hash file missing or empty")
)

// HashPassword returns the bcrypt hash of a new club password.
func HashPassword(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// WriteHashFile stores a password hash, readable by the owner only.
func WriteHashFile(path string, hash []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create hash directory: %w", err)
	}
	if err := os.WriteFile(path, append(bytes.TrimSpace(hash), '\n'), 0o600); err != nil {
		return fmt.Errorf("write hash file: %w", err)
	}
	return nil
}

// PasswordGate checks the club password against the hash from the side file.
type PasswordGate struct {
	hash []byte
}

// LoadPasswordGate reads the hash file. A missing or blank file is an error:
// the ledger must never be reachable without a password.
func LoadPasswordGate(path string) (*PasswordGate, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoPasswordHash, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read hash file: %w", err)
	}
	hash := bytes.TrimSpace(data)
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPasswordHash, path)
	}
	if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("hash file %s: %w", path, err)
	}
	return &PasswordGate{hash: hash}, nil
}

// NewPasswordGate builds a gate from an in-memory hash.
func NewPasswordGate(hash []byte) *PasswordGate {
	return &PasswordGate{hash: bytes.TrimSpace(hash)}
}

// Check returns ErrInvalidCredentials unless password matches.
func (g *PasswordGate) Check(password string) error {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
