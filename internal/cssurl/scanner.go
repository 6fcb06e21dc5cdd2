// Package cssurl extracts the payloads of url(...) tokens from CSS text.
//
// It is not a CSS tokenizer: only the url function is recognised, the
// literal token is matched case-sensitively, and malformed input yields
// fewer matches rather than an error.
package cssurl

import "strings"

const token = "url"

// Token is one url(...) payload and its byte range in the scanned text.
// Text[Start:End] equals Value.
type Token struct {
	Value string
	Start int
	End   int
}

// Scan returns the trimmed payload of every url(...) in text, in order of
// appearance. Quotes around the payload are optional but must balance.
// A token without a closing delimiter is abandoned. Empty payloads such as
// url() are reported as empty strings.
func Scan(text string) []string {
	var urls []string
	for _, tok := range Tokens(text) {
		urls = append(urls, tok.Value)
	}
	return urls
}

// Tokens is Scan with the position of each payload, for callers that
// rewrite text in place.
func Tokens(text string) []Token {
	var tokens []Token

	i := 0
	for i < len(text) {
		k := strings.Index(text[i:], token)
		if k < 0 {
			break
		}
		pos := skipSpace(text, i+k+len(token))
		if pos >= len(text) || text[pos] != '(' {
			i = i + k + len(token)
			continue
		}

		tok, next, ok := capture(text, pos+1)
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		i = next
	}

	return tokens
}

// capture reads one url payload starting just past the opening paren.
// It returns the payload, the index following the closing paren, and
// whether the token was terminated.
func capture(text string, pos int) (Token, int, bool) {
	pos = skipSpace(text, pos)

	stack := []byte{')'}
	quoted := false
	if pos < len(text) && isQuote(text[pos]) {
		stack = append(stack, text[pos])
		quoted = true
		pos++
	}
	pos = skipSpace(text, pos)

	start, end := pos, -1
	for ; pos < len(text); pos++ {
		c := text[pos]
		top := stack[len(stack)-1]

		switch {
		case c == top:
			stack = stack[:len(stack)-1]
			if quoted && len(stack) == 1 && end < 0 {
				end = pos
			}
			if len(stack) == 0 {
				if end < 0 {
					end = pos
				}
				return trimmed(text, start, end), pos + 1, true
			}
		case top == ')' && c == '(':
			stack = append(stack, ')')
		case top == ')' && isQuote(c):
			stack = append(stack, c)
		}
	}

	return Token{}, len(text), false
}

// trimmed returns text[start:end] without surrounding CSS whitespace.
func trimmed(text string, start, end int) Token {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return Token{Value: text[start:end], Start: start, End: end}
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func skipSpace(text string, pos int) int {
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
