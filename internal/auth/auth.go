// Package auth provides the admin capability check consumed by every
// mutating editor operation.
//
// Identity issuance is out of scope: tokens come from configuration, and a
// checker only answers "may this session mutate". Read operations never
// consult a checker.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Checker reports whether a session token carries the admin capability.
type Checker interface {
	IsAdmin(token string) bool
}

// StaticChecker grants admin to a fixed set of tokens from configuration.
type StaticChecker struct {
	tokens []string
}

// NewStaticChecker builds a checker over the given tokens. Empty tokens are
// ignored; a checker with no tokens grants admin to no one.
func NewStaticChecker(tokens ...string) *StaticChecker {
	c := &StaticChecker{}
	for _, t := range tokens {
		if t != "" {
			c.tokens = append(c.tokens, t)
		}
	}
	return c
}

// IsAdmin implements Checker using constant-time comparison.
func (c *StaticChecker) IsAdmin(token string) bool {
	if token == "" {
		return false
	}
	for _, t := range c.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

// AllowAll grants admin to every session. Used for local single-user runs
// where no token is configured on purpose.
type AllowAll struct{}

// IsAdmin implements Checker.
func (AllowAll) IsAdmin(string) bool { return true }

// BearerToken extracts the token from an Authorization: Bearer header,
// returning "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
