// Package auth gates the master role behind a shared secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrAuthFailure is reported when a supplied secret does not match.
var ErrAuthFailure = errors.New("auth: secret mismatch")

// Gate compares input against the configured secret.
type Gate struct {
	secret []byte
}

// NewGate returns a Gate for secret. An empty secret never authenticates.
func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(strings.TrimSpace(secret))}
}

// Check reports whether input matches the secret.
func (g *Gate) Check(input string) bool {
	if g == nil || len(g.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(input)), g.secret) == 1
}

// Verify is Check returning ErrAuthFailure on mismatch.
func (g *Gate) Verify(input string) error {
	if !g.Check(input) {
		return ErrAuthFailure
	}
	return nil
}
