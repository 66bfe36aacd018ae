package core

import "strings"

// CleanString normalizes user-entered text before validation; surrounding
// whitespace never counts towards `required` or `notblank`.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}
