package textutil

import "strings"

const apiSuffix = "/api"

// NormalizeAPIBaseURL canonicalizes a backend base URL: trailing slashes are
// trimmed and the /api suffix is appended when absent. Blank input returns
// ok=false rather than an error.
func NormalizeAPIBaseURL(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	trimmed = strings.TrimRight(trimmed, "/")
	if !strings.HasSuffix(trimmed, apiSuffix) {
		trimmed += apiSuffix
	}
	return trimmed, true
}
