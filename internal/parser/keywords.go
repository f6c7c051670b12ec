package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	dotPattern        = regexp.MustCompile(`\.`)
	nonAlphaNumPattern = regexp.MustCompile(`[^A-Z0-9 ]`)
	dupSpacePattern    = regexp.MustCompile(` +`)
	stripDiacritics    = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// normalize upper-cases text and strips diacritics via NFKD decomposition,
// matching common/parsing.normalize's
// unicodedata.normalize('NFKD', text).encode('ASCII', errors='ignore').
func normalize(text string) string {
	ascii, _, err := transform.String(stripDiacritics, text)
	if err != nil {
		ascii = text
	}
	return strings.ToUpper(ascii)
}

// cleanup removes dots, collapses anything that isn't a letter, digit or
// space into a single space, and squashes runs of spaces.
func cleanup(text string) string {
	text = dotPattern.ReplaceAllString(text, "")
	text = nonAlphaNumPattern.ReplaceAllString(text, " ")
	return dupSpacePattern.ReplaceAllString(text, " ")
}

// ExtractKeywords reduces a set of free-text literals into a deduplicated,
// normalized keyword list: normalize, cleanup, tokenize on spaces, drop
// tokens of length <= 2. Order is not significant — keywords are used for
// rule matching (internal/rules), not display.
func ExtractKeywords(literals []string) []string {
	unique := make(map[string]struct{})
	for _, literal := range literals {
		if literal == "" {
			continue
		}
		clean := cleanup(normalize(literal))
		for _, token := range strings.Split(clean, " ") {
			if len(token) > 2 {
				unique[token] = struct{}{}
			}
		}
	}
	keywords := make([]string, 0, len(unique))
	for token := range unique {
		keywords = append(keywords, token)
	}
	return keywords
}

// ExtractLiterals resolves a list of nested-item paths against record,
// keeping only the string-valued results, the input ExtractKeywords
// expects.
func ExtractLiterals(record Record, paths []string) []string {
	literals := make([]string, 0, len(paths))
	for _, path := range paths {
		if s, ok := GetNestedString(record, path); ok {
			literals = append(literals, s)
		}
	}
	return literals
}
