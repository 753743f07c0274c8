// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken         = errors.New("invalid team token")
	ErrTokenExpired         = errors.New("team token expired")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
)

// GenerateID returns a new random UUID string
func GenerateID() string {
	return uuid.NewString()
}

// PasscodeDigest hashes a team passcode with the server salt.
// Only the digest is stored; lookups compare digests.
func PasscodeDigest(passcode, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(passcode))
	return hex.EncodeToString(h.Sum(nil))
}

// TokenIssuer signs the bearer tokens handed out at login. A token carries
// its expiry and is verifiable without storage.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer derives the signing key from secret under its own label, so
// a token key never equals the passcode digest key even when both come from
// the same secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte("landbid team token key"))
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{key: h.Sum(nil), ttl: ttl, now: time.Now}
}

const DefaultTokenTTL = 24 * time.Hour

// Issue returns a token for teamID and the time it stops being accepted.
func (ti *TokenIssuer) Issue(teamID string) (string, time.Time) {
	expires := ti.now().Add(ti.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expires.Unix(), 36)
	return exp + "." + ti.sign(teamID, exp), expires
}

func (ti *TokenIssuer) sign(teamID, exp string) string {
	h := hmac.New(sha256.New, ti.key)
	h.Write([]byte(teamID))
	h.Write([]byte{0})
	h.Write([]byte(exp))
	// URL-safe base64 without padding
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Validate checks that token was issued for teamID and has not expired.
func (ti *TokenIssuer) Validate(teamID, token string) error {
	if teamID == "" || token == "" {
		return ErrInvalidToken
	}
	exp, mac, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidToken
	}
	if !hmac.Equal([]byte(mac), []byte(ti.sign(teamID, exp))) {
		return ErrInvalidToken
	}
	unix, err := strconv.ParseInt(exp, 36, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if !ti.now().Before(time.Unix(unix, 0)) {
		return ErrTokenExpired
	}
	return nil
}

// AdminVerifier checks the admin password against a bcrypt hash
type AdminVerifier struct {
	hash []byte
}

// NewAdminVerifier prefers a precomputed bcrypt hash; a plain password is
// hashed once at startup.
func NewAdminVerifier(password, hash string) (*AdminVerifier, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return &AdminVerifier{hash: []byte(hash)}, nil
	}
	if password == "" {
		return nil, errors.New("admin password or hash required")
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AdminVerifier{hash: h}, nil
}

func (v *AdminVerifier) Verify(password string) error {
	if password == "" {
		return ErrInvalidAdminPassword
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
		return ErrInvalidAdminPassword
	}
	return nil
}
