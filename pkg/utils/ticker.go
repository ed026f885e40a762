package utils

import "strings"

// NormalizeTicker canonicalizes a ticker symbol read from a spreadsheet
// cell: surrounding whitespace is trimmed and the symbol is uppercased.
// An all-whitespace cell normalizes to the empty string.
func NormalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
