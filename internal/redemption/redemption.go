// Package redemption records which signed tokens have been used so a
// capability can be spent at most once within its validity window.
package redemption

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrAlreadyRedeemed is returned when a token was claimed before.
var ErrAlreadyRedeemed = errors.New("token already redeemed")

// Backend defines the storage operations used by the Ledger.
type Backend interface {
	// Claim atomically marks key as used for ttl. It returns
	// ErrAlreadyRedeemed if key is already marked.
	Claim(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Ledger wraps a backend and derives storage keys from raw tokens so
// tokens themselves are never persisted.
type Ledger struct {
	backend Backend
}

func New(backend Backend) *Ledger {
	return &Ledger{backend: backend}
}

// Key returns the ledger key for a token issued for purpose.
func Key(purpose, token string) string {
	sum := sha256.Sum256([]byte(token))
	return purpose + ":" + hex.EncodeToString(sum[:])
}

// Claim marks token as redeemed for ttl.
func (l *Ledger) Claim(ctx context.Context, purpose, token string, ttl time.Duration) error {
	return l.backend.Claim(ctx, Key(purpose, token), ttl)
}

// Release undoes a Claim, for use when the guarded action failed.
func (l *Ledger) Release(ctx context.Context, purpose, token string) error {
	return l.backend.Release(ctx, Key(purpose, token))
}
