package utils

import "strings"

// NormalizeOrigin strips surrounding spaces and a trailing slash so origins compare equal
func NormalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.TrimSpace(origin), "/")
}
