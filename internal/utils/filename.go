package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Multiple whitespace characters to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

const maxFilenameRunes = 120

// SanitizeFilename makes a book name safe to use as a markdown file name.
// Letters from any script are kept. Length is limited in runes so multi-byte
// names are never cut mid-character.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// markdown link syntax
	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	if runes := []rune(filename); len(runes) > maxFilenameRunes {
		filename = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}

	if filename == "" {
		filename = "Untitled"
	}
	return filename
}

// BookFileName names the export file of the book at 1-based position in the
// canonical order, so files sort like the bible does: "01 Genesis.md".
func BookFileName(position int, name string) string {
	return fmt.Sprintf("%02d %s.md", position, SanitizeFilename(name))
}
