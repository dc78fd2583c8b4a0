package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reKeySeparators = regexp.MustCompile(`[ /,\[\];:()\-]`)
	reUnderscores   = regexp.MustCompile(`_+`)
	reSpaces        = regexp.MustCompile(`\s+`)
)

// NormalizeKey turns a free-text label into a lookup key:
// "Rated Load Q [kg]" -> "rated_load_q_kg".
func NormalizeKey(input string) string {
	s := norm.NFC.String(input)
	s = strings.TrimSpace(strings.ToLower(s))
	s = reKeySeparators.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NormalizeSpaces collapses whitespace runs and trims the result.
func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}

// ShortLabel is the unit designation used in clauses: the first
// whitespace-delimited token, upper-cased. "a1 passenger lift" -> "A1".
func ShortLabel(generalInformation string) string {
	fields := strings.Fields(generalInformation)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// FillPositional substitutes each "{}" in template with the next argument.
// Surplus arguments are ignored, missing ones render as empty text.
func FillPositional(template string, args ...string) string {
	var b strings.Builder
	rest := template
	i := 0
	for {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:idx])
		if i < len(args) {
			b.WriteString(args[i])
		}
		i++
		rest = rest[idx+2:]
	}
	return b.String()
}

// PrefixBeforeNth returns the text preceding the n-th (0-based) occurrence of
// marker, or the whole text when there are fewer occurrences.
func PrefixBeforeNth(text, marker string, n int) string {
	if marker == "" {
		return ""
	}
	offset := 0
	for i := 0; ; i++ {
		idx := strings.Index(text[offset:], marker)
		if idx < 0 {
			return text
		}
		if i == n {
			return text[:offset+idx]
		}
		offset += idx + len(marker)
	}
}
