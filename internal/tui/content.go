package tui

import (
	"fmt"
	"strings"
)

// Layout constants.
const (
	truncateSuffix = "..."
	borderPadding  = 2
	defaultWidth   = 80
)

// ContentRenderer renders a loaded value into at most width columns.
type ContentRenderer[T any] func(value T, width int) string

// DefaultRenderer formats the value with fmt.
func DefaultRenderer[T any](value T, _ int) string {
	return ValueStyle.Render(fmt.Sprint(value))
}

// ItemsRenderer renders one numbered line per item, truncating lines that
// exceed width.
func ItemsRenderer(items []string, width int) string {
	if len(items) == 0 {
		return InfoStyle.Render("No items.")
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		prefix := fmt.Sprintf("%2d. ", i+1)
		b.WriteString(LabelStyle.Render(prefix))
		b.WriteString(ValueStyle.Render(truncate(item, width-len(prefix))))
	}
	return b.String()
}

// truncate shortens s to at most width runes, marking the cut with "...".
// A width of zero or less disables truncation.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= len(truncateSuffix) {
		return string(r[:width])
	}
	return string(r[:width-len(truncateSuffix)]) + truncateSuffix
}
