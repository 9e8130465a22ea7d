// Package preprocess turns raw input text into dictionary lookup keys and
// remembers the punctuation around each word so it can be put back after
// transcription.
package preprocess

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// punctuation is stripped from both ends of a token to build its lookup key
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~«» "

// Token is an input word split into its edge punctuation and core word
type Token struct {
	Pre  string // leading run of non-alphanumeric characters
	Core string // lookup key
	Post string // trailing run of non-alphanumeric characters
}

// Normalize strips edge punctuation and lower-cases the remainder
func Normalize(token string) string {
	return strings.ToLower(strings.Trim(token, punctuation))
}

// Capture splits token into leading punctuation, lookup key and trailing
// punctuation. Interior punctuation such as apostrophes stays in the key.
// A token without any letter or digit is kept whole in Pre.
func Capture(token string) Token {
	start := strings.IndexFunc(token, isAlphaNumeric)
	if start < 0 {
		return Token{Pre: token}
	}
	end := strings.LastIndexFunc(token, isAlphaNumeric)
	_, size := utf8.DecodeRuneInString(token[end:])
	end += size

	return Token{
		Pre:  token[:start],
		Core: Normalize(token[start:end]),
		Post: token[end:],
	}
}

// Restore wraps variant in the token's captured punctuation
func (t Token) Restore(variant string) string {
	return t.Pre + variant + t.Post
}

// Tokenize splits text on whitespace and captures every word. The text is
// NFC-normalized and lower-cased first.
func Tokenize(text string) []Token {
	fields := strings.Fields(strings.ToLower(norm.NFC.String(text)))
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Capture(f)
	}
	return tokens
}

// Keys splits text on whitespace and normalizes every word
func Keys(text string) []string {
	fields := strings.Fields(norm.NFC.String(text))
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = Normalize(f)
	}
	return keys
}

func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
