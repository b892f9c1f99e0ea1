package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans user HTML for forum content, keeping safe formatting.
func Sanitize(input string) string {
	return strings.TrimSpace(richPolicy.Sanitize(input))
}

// SanitizePlain strips all markup, for free-text health notes.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy.Sanitize(input)))
}

// SanitizeOptional applies SanitizePlain and maps blank results to nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := SanitizePlain(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
