// Package seo composes locale-aware page metadata, robots rules and the
// sitemap from a static path registry. Everything here is deterministic
// string composition over the configured site base URL.
package seo

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/stackfinder/stackfinder/internal/i18n"
	"github.com/stackfinder/stackfinder/internal/textutil"
)

// descriptionLimit bounds meta descriptions for social previews.
const descriptionLimit = 160

// siteNames and taglines are the locale-specific translated strings for the
// site shell.
var siteNames = map[string]string{
	"en": "StackFinder",
	"es": "StackFinder",
}

var taglines = map[string]string{
	"en": "Discover the best tools for your stack",
	"es": "Descubre las mejores herramientas para tu stack",
}

// pageTitles are the translated titles for the static registry pages. The
// root path uses the bare site name.
var pageTitles = map[string]map[string]string{
	"/products":   {"en": "Products", "es": "Productos"},
	"/categories": {"en": "Categories", "es": "Categorías"},
	"/about":      {"en": "About", "es": "Acerca de"},
	"/contact":    {"en": "Contact", "es": "Contacto"},
}

// PageTitle resolves the translated title for a static page. Unknown paths
// and the root return an empty title, which Page renders as the site name.
func PageTitle(locale language.Tag, path string) string {
	titles, ok := pageTitles[path]
	if !ok {
		return ""
	}
	if title, ok := titles[locale.String()]; ok {
		return title
	}
	return titles[i18n.Default().String()]
}

// PageMeta is the resolved metadata for one page in one locale.
type PageMeta struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	Alternates  map[string]string `json:"alternates"`
	OpenGraph   OpenGraph         `json:"open_graph"`
}

// OpenGraph holds the social-preview tags.
type OpenGraph struct {
	Title       string `json:"og:title"`
	Description string `json:"og:description"`
	URL         string `json:"og:url"`
	SiteName    string `json:"og:site_name"`
	Locale      string `json:"og:locale"`
	Image       string `json:"og:image,omitempty"`
}

// Builder composes page metadata against a fixed site base URL.
type Builder struct {
	baseURL string
}

// NewBuilder creates a metadata builder. The base URL has already been
// resolved through the config precedence chain.
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimRight(baseURL, "/")}
}

// PageURL returns the absolute URL for a path in a locale.
func (b *Builder) PageURL(locale language.Tag, path string) string {
	if path == "/" {
		path = ""
	}
	return b.baseURL + "/" + locale.String() + path
}

// Page resolves metadata for a static page. An empty title falls back to the
// site name; the description is reduced from markdown and truncated.
func (b *Builder) Page(locale language.Tag, path, title, description string) PageMeta {
	code := locale.String()
	siteName := siteNames[code]
	if siteName == "" {
		siteName = siteNames[i18n.Default().String()]
	}

	if title == "" {
		title = siteName
	} else {
		title = title + " · " + siteName
	}

	if description == "" {
		description = taglines[code]
	}
	description = textutil.Truncate(textutil.MarkdownToPlainText(description), descriptionLimit)

	alternates := make(map[string]string, len(i18n.Codes()))
	for _, tag := range i18n.Supported() {
		alternates[tag.String()] = b.PageURL(tag, path)
	}

	canonical := b.PageURL(locale, path)

	return PageMeta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		Alternates:  alternates,
		OpenGraph: OpenGraph{
			Title:       title,
			Description: description,
			URL:         canonical,
			SiteName:    siteName,
			Locale:      code,
		},
	}
}

// Tagline returns the locale-specific site tagline.
func Tagline(locale language.Tag) string {
	if t, ok := taglines[locale.String()]; ok {
		return t
	}
	return taglines[i18n.Default().String()]
}
