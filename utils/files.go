package utils

import (
	"os"
	"strings"
	"unicode/utf8"
)

// VerifyFileExists checks if file exists at the given path and is not a directory.
func VerifyFileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadOptionalFile returns the trimmed contents of path, or "" when the file
// does not exist. Other read errors are returned.
func ReadOptionalFile(path string) (string, error) {
	if path == "" || !VerifyFileExists(path) {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Truncate shortens s to at most n runes for log fields, marking the cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
