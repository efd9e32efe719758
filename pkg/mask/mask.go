// Package mask normalizes raw log lines before template mining by
// replacing volatile substrings with fixed placeholder tokens.
package mask

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for volatile values.
const (
	IPToken   = "<IP>"
	GUIDToken = "<GUID>"
	NumToken  = "<NUM>"
)

var (
	ipv4Re = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
	guidRe = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)
	numRe  = regexp.MustCompile(`\b\d+\b`)
)

// Mask replaces IPv4 addresses, UUIDs, and standalone numbers with
// placeholder tokens. IPs and UUIDs are masked before bare numbers so
// their digit groups are not masked piecemeal. Masking is idempotent:
// placeholders contain no digits, so a second pass is a no-op.
func Mask(line string) string {
	line = ipv4Re.ReplaceAllString(line, IPToken)
	line = guidRe.ReplaceAllString(line, GUIDToken)
	line = numRe.ReplaceAllString(line, NumToken)
	return line
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', ',', ':', ';', '=', '[', ']':
		return true
	}
	return false
}

// Tokenize masks a line and splits it into tokens on the fixed delimiter
// set (space, tab, comma, colon, semicolon, '=', '[', ']'). Empty tokens
// are discarded; the result may be empty but is never nil for non-empty
// input.
func Tokenize(line string) []string {
	return strings.FieldsFunc(Mask(line), isDelimiter)
}
