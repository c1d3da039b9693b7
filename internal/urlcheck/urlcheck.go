// Package urlcheck normalizes and validates the long URLs users submit.
package urlcheck

import (
	"net/url"
	"strings"
	"unicode"
)

const defaultScheme = "http://"

// AddScheme prepends "http://" unless rawURL already starts with "http://"
// or "https://". The prefix check is case-sensitive.
func AddScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}

	return defaultScheme + rawURL
}

// Validate reports whether rawURL is an absolute URL with a scheme and a host.
// Empty strings and strings containing whitespace are invalid.
func Validate(rawURL string) bool {
	if rawURL == "" || strings.ContainsFunc(rawURL, unicode.IsSpace) {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return u.Scheme != "" && u.Hostname() != ""
}

// Normalize applies AddScheme and then Validate, returning the normalized URL
// and whether it is valid.
func Normalize(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	normalized := AddScheme(rawURL)

	return normalized, Validate(normalized)
}
