package textutil

import (
	"net/url"
	"strings"
)

// HostAllowList accepts https URLs whose host is either an exact match or a
// subdomain of one of the suffix domains.
type HostAllowList struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewHostAllowList builds an allow-list from exact hosts and suffix domains.
// A suffix of "supabase.co" admits any "*.supabase.co" host but not the bare
// domain itself.
func NewHostAllowList(exact []string, suffixes []string) *HostAllowList {
	l := &HostAllowList{exact: make(map[string]struct{}, len(exact))}
	for _, h := range exact {
		l.exact[strings.ToLower(h)] = struct{}{}
	}
	for _, s := range suffixes {
		l.suffixes = append(l.suffixes, strings.ToLower(strings.TrimPrefix(s, ".")))
	}
	return l
}

// Allow reports whether raw is an https URL with an allowed host. Malformed
// URLs are rejected, never an error.
func (l *HostAllowList) Allow(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "https" || u.Hostname() == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := l.exact[host]; ok {
		return true
	}
	for _, suffix := range l.suffixes {
		if strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// DefaultImageHosts is the allow-list for product image URLs: our CDN, a few
// known image hosts, and any bucket under the storage provider's domain.
func DefaultImageHosts() *HostAllowList {
	return NewHostAllowList(
		[]string{
			"cdn.stackfinder.io",
			"images.unsplash.com",
			"avatars.githubusercontent.com",
		},
		[]string{"supabase.co"},
	)
}
