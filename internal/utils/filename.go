package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename sanitizes a filename for vault compatibility.
// It removes characters that are invalid in filenames or problematic
// in markdown links (slashes, colons, quotes, hashtags, brackets).
func SanitizeFilename(filename string) string {
	// Remove invalid filename characters
	filename = invalidFilenameChars.ReplaceAllString(filename, "")

	// Replace newlines/tabs with spaces
	filename = whitespaceChars.ReplaceAllString(filename, " ")

	// Collapse multiple spaces
	filename = multipleSpaces.ReplaceAllString(filename, " ")

	// Trim whitespace
	filename = strings.TrimSpace(filename)

	// Markdown-link specific sanitization
	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(filename) > 200 {
		filename = strings.TrimSpace(filename[:200])
	}

	// Ensure it's not empty
	if filename == "" {
		filename = "untitled"
	}

	return filename
}

// SuffixFilename appends a numeric suffix before the file extension,
// e.g. SuffixFilename("map.png", 2) -> "map-2.png". Used to resolve
// collisions between distinct blobs that sanitize to the same name.
func SuffixFilename(filename string, n int) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s-%d%s", base, n, ext)
}

// TruncatePreview shortens field content for failure diagnostics.
// Truncation is rune-aware so multi-byte text is never cut mid-character.
func TruncatePreview(s string, max int) string {
	s = multipleSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
