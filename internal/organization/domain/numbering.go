package domain

import (
	"fmt"
	"strings"
)

// Render produces a document number for the given year and sequence value.
// Format placeholders: {prefix}, {year}, {seq}.
func (n NumberingConfig) Render(year int, seq int64) string {
	format := strings.TrimSpace(n.Format)
	if format == "" {
		format = "{prefix}{year}-{seq}"
	}
	replacer := strings.NewReplacer(
		"{prefix}", n.Prefix,
		"{year}", fmt.Sprintf("%d", year),
		"{seq}", fmt.Sprintf("%04d", seq),
	)
	return replacer.Replace(format)
}
