// Package normalize canonicalizes the free-text fields of raw transaction
// records. Every function is pure; a value that cannot be interpreted is
// reported through the boolean result rather than an error so that the
// caller decides whether to drop the record.
package normalize

import (
	"strings"

	"golang.org/x/text/width"
)

// Fold maps full-width digits and Latin letters to their half-width forms
// and trims surrounding space, so "ＲＣ" and "RC" compare equal.
func Fold(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// FoldUpper folds width and upper-cases Latin letters.
func FoldUpper(s string) string {
	return strings.ToUpper(Fold(s))
}
