package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/stackfinder/stackfinder/internal/i18n"
)

// Disallowed path prefixes. Crawlers have no business in the admin console or
// the JSON API.
var disallowedPrefixes = []string{"/admin", "/api"}

// RobotsTxt renders the robots rule set for the site.
func RobotsTxt(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")

	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for _, prefix := range disallowedPrefixes {
		fmt.Fprintf(&b, "Disallow: %s\n", prefix)
	}
	b.WriteString("Allow: /\n")
	fmt.Fprintf(&b, "\nSitemap: %s/sitemap.xml\n", base)
	return b.String()
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders the sitemap XML: one entry per locale × registered path,
// in registry order with locales grouped per path.
func Sitemap(baseURL string, routes []Route, lastMod time.Time) (string, error) {
	builder := NewBuilder(baseURL)

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, route := range routes {
		for _, tag := range i18n.Supported() {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        builder.PageURL(tag, route.Path),
				LastMod:    lastMod.UTC().Format("2006-01-02"),
				ChangeFreq: route.ChangeFreq,
				Priority:   route.Priority,
			})
		}
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sitemap: %w", err)
	}
	return xml.Header + string(out) + "\n", nil
}
