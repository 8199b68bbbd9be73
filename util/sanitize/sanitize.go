// Package sanitize normalizes user-supplied and derived strings into safe
// identifiers: project names and file name parts.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// separatorReplacer maps common separators to hyphens
	separatorReplacer = strings.NewReplacer(
		"_", "-",
		" ", "-",
		".", "-",
	)

	// nonAlphanumericRegex matches non-alphanumeric characters
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

	// multiDashRegex matches multiple consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
)

// ForProjectName sanitizes a string for use as a warren project name.
// Project names become directory components and registry keys, so the
// result contains only lowercase letters, digits, and hyphens.
func ForProjectName(s string) string {
	if s == "" {
		return ""
	}

	s = separatorReplacer.Replace(s)
	s = nonAlphanumericRegex.ReplaceAllString(s, "-")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return strings.ToLower(s)
}

// ForFileName sanitizes a string for use as a file name component.
// Underscores are preserved; anything hostile becomes an underscore.
func ForFileName(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = nonAlphanumericRegex.ReplaceAllString(s, "_")
	s = regexp.MustCompile(`_+`).ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	return s
}
