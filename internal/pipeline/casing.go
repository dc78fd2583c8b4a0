package pipeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matches acronym-led values such as "LED-belysning" or "AISI 441".
var reAcronymPrefix = regexp.MustCompile(`^[A-ZÅÄÖ]{2,}([- ]|$)`)

var sentenceTerminators = []string{". ", ": ", "? ", "! ", "\n"}

// AdjustCase fits candidate to its position in surrounding text: upper-case
// first letter at the start of a sentence, lower-case otherwise. Codes and
// abbreviations (AISI, LED-, A1, HR64) are never touched.
func AdjustCase(surrounding, marker, candidate string) string {
	before := surrounding
	if idx := strings.Index(surrounding, marker); idx >= 0 && marker != "" {
		before = surrounding[:idx]
	}
	return CaseAfter(before, candidate)
}

// CaseAfter fits candidate to text that directly follows before.
func CaseAfter(before, candidate string) string {
	if candidate == "" || isProtected(candidate) {
		return candidate
	}
	if StartsSentence(before) {
		return mapFirstRune(candidate, unicode.ToUpper)
	}
	return mapFirstRune(candidate, unicode.ToLower)
}

// StartsSentence reports whether text placed after before begins a sentence.
func StartsSentence(before string) bool {
	if strings.TrimSpace(before) == "" {
		return true
	}
	for _, term := range sentenceTerminators {
		if strings.HasSuffix(before, term) {
			return true
		}
	}
	return false
}

func isProtected(candidate string) bool {
	if reAcronymPrefix.MatchString(candidate) {
		return true
	}
	if isAllUpper(candidate) {
		return true
	}
	runes := []rune(candidate)
	if len(runes) >= 2 && isAllUpper(string(runes[:2])) && strings.ContainsFunc(candidate, unicode.IsDigit) {
		return true
	}
	return false
}

// isAllUpper is true when s has at least one cased letter and no lower-case ones.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func mapFirstRune(s string, fn func(rune) rune) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(fn(r)) + s[size:]
}
