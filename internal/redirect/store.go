// Package redirect stores the pending post-login redirect target between
// login initiation and callback completion. Values are written once, read
// once, then deleted.
package redirect

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// KeyPrefix is the storage key prefix for pending redirect targets.
const KeyPrefix = "sf_admin_post_login_redirect"

// TTL bounds how long an unconsumed redirect target survives. A callback that
// never arrives should not leave keys behind forever.
const TTL = 15 * time.Minute

// Store persists pending redirect targets. Implementations: Redis (prod),
// in-memory (tests).
type Store interface {
	// Put records the redirect target for a login attempt.
	Put(ctx context.Context, loginID, path string) error

	// Take returns the stored target and deletes it in the same operation.
	// ok is false when nothing was stored.
	Take(ctx context.Context, loginID string) (path string, ok bool, err error)

	// Delete removes the stored target, if any.
	Delete(ctx context.Context, loginID string) error
}

// SanitizePath reduces an untrusted stored value to a safe relative path.
// Anything that is not a plain same-site path resolves to "/": absolute URLs,
// scheme-relative URLs, traversal, unparseable strings.
func SanitizePath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return "/"
	}
	// "//host" is scheme-relative, not a local path
	if strings.HasPrefix(trimmed, "//") {
		return "/"
	}
	if strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, "\\\r\n") {
		return "/"
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return trimmed
}
