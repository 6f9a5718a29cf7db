package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidColor = errors.New("invalid highlight color")

// HighlightColors are the named colors the reader offers.
var HighlightColors = []string{"yellow", "green", "blue", "pink", "purple", "orange"}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// NormalizeHighlightColor accepts a named color or a #RGB, #RRGGBB or
// #AARRGGBB hex value and returns its canonical form: a lowercase name, or
// uppercase #RRGGBB. An empty color stays empty and means "no highlight".
func NormalizeHighlightColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return "", nil
	}
	lower := strings.ToLower(color)
	for _, name := range HighlightColors {
		if lower == name {
			return name, nil
		}
	}
	if !hexColor.MatchString(color) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}

	hex := strings.ToUpper(color[1:])
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 8:
		hex = hex[2:]
	}
	return "#" + hex, nil
}

// ColorToCalloutType maps highlight colors to markdown callout types.
// Default return is "quote" for unknown colors.
func ColorToCalloutType(color string) string {
	colorMapping := map[string]string{
		"yellow":  "quote", // Yellow highlights -> quotes
		"#FFFF00": "quote",
		"green":   "note", // Green highlights -> notes
		"#00FF00": "note",
		"orange":  "warning", // Orange and red highlights -> warnings
		"#FF0000": "warning",
		"blue":    "info", // Blue highlights -> info
		"#0000FF": "info",
		"pink":    "tip", // Pink and magenta highlights -> tips
		"#FF00FF": "tip",
		"purple":  "example", // Purple highlights -> examples
	}

	normalized, err := NormalizeHighlightColor(color)
	if err != nil {
		return "quote"
	}
	if calloutType, ok := colorMapping[normalized]; ok {
		return calloutType
	}
	return "quote"
}
