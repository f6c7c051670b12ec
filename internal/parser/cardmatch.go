package parser

import (
	"regexp"
	"strings"
)

// MatchMaskedCardNumber reports whether a masked card number as fetched
// from a provider (e.g. "1234********5678") matches a fully configured
// card number, treating each run of asterisks as matching that many
// digits. Adapted from bank/bankia/parsing.py's match_card_regex: each '*'
// becomes '\d', and the pattern is anchored only at the start of the
// configured number, as re.match is.
func MatchMaskedCardNumber(masked, configured string) bool {
	pattern := "^" + regexp.QuoteMeta(masked)
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta("*"), `\d`)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(configured)
}
