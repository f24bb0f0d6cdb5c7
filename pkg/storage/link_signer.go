package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LinkSigner issues and verifies expiring download tokens for stored files.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner constructs a signer. A non-positive ttl defaults to one day.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form id.expiry.path.signature.
func (s *LinkSigner) Sign(id, name string) (string, time.Time, error) {
	if id == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("id and name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	return strings.Join([]string{id, expiry, encoded, s.mac(id, expiry, encoded)}, "."), expiresAt, nil
}

// Verify checks the signature and expiry and returns the id and stored name.
func (s *LinkSigner) Verify(token string) (id, name string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	id, expiry, encoded, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.mac(id, expiry, encoded)), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid token expiry")
	}
	if s.now().After(time.Unix(unix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decode name: %w", err)
	}
	return id, string(raw), nil
}

func (s *LinkSigner) mac(id, expiry, encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + expiry + "|" + encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
