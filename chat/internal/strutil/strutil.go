// Package strutil provides string utility functions for the chat package.
package strutil

import "strings"

// Truncate truncates a string to a maximum length, appending "..." when cut.
// Uses rune-level truncation to ensure Unicode safety (correct handling of
// multi-byte characters like Chinese). Returns empty string if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// ContainsAny reports whether s contains any of the patterns.
func ContainsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// NormalizeDigits converts full-width digits to their ASCII equivalents.
// Android IMEs frequently submit full-width digits in form fields.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return '0' + (r - '０')
		}
		return r
	}, s)
}
