// Package stringops implements the Unicode-delegating string operations
// the object model hands off rather than hand-rolling: NFC/NFD/NFKC/NFKD
// normalization backing String.prototype.normalize, and locale-aware
// comparison backing String.prototype.localeCompare. Grounded on the
// teacher's builtinCompareLocaleStr/builtinSameText (internal/interp
// package), which reach for the same golang.org/x/text subpackages.
package stringops

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Form names a Unicode normalization form, matching the four strings
// String.prototype.normalize accepts.
type Form string

const (
	NFC  Form = "NFC"
	NFD  Form = "NFD"
	NFKC Form = "NFKC"
	NFKD Form = "NFKD"
)

// Normalize applies the named Unicode normalization form to s. An
// unrecognized form falls back to NFC, the language's own default when
// normalize() is called with no argument.
func Normalize(s string, form Form) string {
	var f norm.Form
	switch form {
	case NFD:
		f = norm.NFD
	case NFKC:
		f = norm.NFKC
	case NFKD:
		f = norm.NFKD
	default:
		f = norm.NFC
	}
	return f.String(s)
}

// LocaleCompare implements localeCompare: a locale-aware three-way
// comparison, falling back to English collation when locale fails to
// parse (the same fallback the teacher's builtinCompareLocaleStr uses).
func LocaleCompare(a, b, locale string, caseSensitive bool) int {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	var col *collate.Collator
	if caseSensitive {
		col = collate.New(tag)
	} else {
		col = collate.New(tag, collate.IgnoreCase)
	}
	return col.CompareString(a, b)
}

// SameText performs the case-insensitive equality check used by the
// language's Object.is-adjacent text-comparison helpers (grounded on the
// teacher's builtinSameText), via Unicode case folding rather than a
// naive ToLower/ToUpper comparison.
func SameText(a, b string) bool {
	return strings.EqualFold(a, b)
}
