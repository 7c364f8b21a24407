// Package i18n declares the locales the directory is published in and helpers
// for resolving a request locale.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Supported locales. English is the default and always listed first.
var (
	English = language.English
	Spanish = language.Spanish

	supported = []language.Tag{English, Spanish}
	matcher   = language.NewMatcher(supported)
)

// Default returns the default locale tag.
func Default() language.Tag {
	return English
}

// Supported returns the supported locale tags in priority order.
func Supported() []language.Tag {
	tags := make([]language.Tag, len(supported))
	copy(tags, supported)
	return tags
}

// Codes returns the supported locale codes ("en", "es").
func Codes() []string {
	codes := make([]string, len(supported))
	for i, tag := range supported {
		codes[i] = tag.String()
	}
	return codes
}

// Parse resolves a locale code to a supported tag. Unknown or empty values
// resolve to the default locale; the bool reports whether value matched a
// supported locale exactly.
func Parse(value string) (language.Tag, bool) {
	value = strings.TrimSpace(strings.ToLower(value))
	for _, tag := range supported {
		if tag.String() == value {
			return tag, true
		}
	}
	return Default(), false
}

// Match picks the best supported locale for an Accept-Language header.
// Malformed headers resolve to the default locale.
func Match(acceptLanguage string) language.Tag {
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}
