// Package token issues and verifies stateless, purpose-scoped capability
// tokens used for invitation and password-reset links.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose namespaces a token. A token verifies only under the purpose it
// was issued for.
type Purpose string

const (
	PurposeInvite        Purpose = "invite"
	PurposePasswordReset Purpose = "password-reset"
)

var (
	// ErrInvalid covers malformed, forged and wrong-purpose tokens.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired is returned when a token is older than the allowed age.
	ErrExpired = errors.New("token expired")
)

type claims struct {
	Purpose Purpose `json:"pur"`
	jwt.RegisteredClaims
}

// Service signs tokens with keys derived from a process-wide secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

// NewService constructs a Service. The secret must not be empty.
func NewService(secret string) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// WithClock returns a copy of s that reads time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	return &Service{secret: s.secret, now: now}
}

// DeriveKey returns a signing key for label so that keys used for
// different purposes never coincide.
func DeriveKey(secret []byte, label string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(label))
	return mac.Sum(nil)
}

func (s *Service) key(purpose Purpose) []byte {
	return DeriveKey(s.secret, "token:"+string(purpose))
}

// Issue returns a signed token binding payload to purpose and the
// current time.
func (s *Service) Issue(purpose Purpose, payload string) (string, error) {
	if purpose == "" {
		return "", errors.New("token purpose is required")
	}
	c := claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key(purpose))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, purpose and age of tokenString and returns
// its payload. Age is measured in whole seconds from issuance; a token
// exactly maxAge old is still valid.
func (s *Service) Verify(purpose Purpose, tokenString string, maxAge time.Duration) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return s.key(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Purpose != purpose || c.IssuedAt == nil {
		return "", ErrInvalid
	}

	age := s.now().Truncate(time.Second).Sub(c.IssuedAt.Time)
	if age < 0 {
		return "", fmt.Errorf("%w: issued in the future", ErrInvalid)
	}
	if age > maxAge {
		return "", ErrExpired
	}
	return c.Subject, nil
}
