package util

import (
	"errors"
	"strings"
)

// SanitizeKeySegment makes s safe to use as one segment of a storage key.
// Separators become underscores; traversal and blank segments are rejected.
func SanitizeKeySegment(s string) (string, error) {
	if strings.Contains(s, "..") {
		return "", errors.New("invalid key segment")
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid key segment")
	}
	return s, nil
}
