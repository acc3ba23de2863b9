package rql

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	identToken tokenKind = iota
	numberToken
	stringToken
	symbolToken
	eofToken
)

type token struct {
	kind tokenKind
	text string // raw text; unquoted value for strings
	pos  int
}

// is reports whether the token is the given keyword or symbol, case-insensitively.
func (t token) is(word string) bool {
	return (t.kind == identToken || t.kind == symbolToken) && strings.EqualFold(t.text, word)
}

// raw returns the token as it appeared in the query.
func (t token) raw() string {
	if t.kind == stringToken {
		return "'" + strings.ReplaceAll(t.text, "'", "''") + "'"
	}
	return t.text
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	i := 0
	for i < len(rs) {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '\'' || r == '"':
			quote := r
			start := i
			i++
			var b strings.Builder
			closed := false
			for i < len(rs) {
				if rs[i] == quote {
					if i+1 < len(rs) && rs[i+1] == quote {
						b.WriteRune(quote)
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				b.WriteRune(rs[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at position %d", start)
			}
			toks = append(toks, token{kind: stringToken, text: b.String(), pos: start})

		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1]) && precedesValue(toks)) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			i++
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: numberToken, text: string(rs[start:i]), pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: identToken, text: string(rs[start:i]), pos: start})

		default:
			start := i
			if i+1 < len(rs) {
				two := string(rs[i : i+2])
				if two == "!=" || two == "<>" || two == "<=" || two == ">=" {
					toks = append(toks, token{kind: symbolToken, text: two, pos: start})
					i += 2
					continue
				}
			}
			if strings.ContainsRune("(),*=<>;+-/%", r) {
				toks = append(toks, token{kind: symbolToken, text: string(r), pos: start})
				i++
				continue
			}
			return nil, fmt.Errorf("unexpected character %q at position %d", r, start)
		}
	}
	toks = append(toks, token{kind: eofToken, pos: len(rs)})
	return toks, nil
}

// precedesValue reports whether a minus sign at this point starts a negative literal.
func precedesValue(toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	last := toks[len(toks)-1]
	if last.kind == symbolToken {
		return last.text != ")" && last.text != "*"
	}
	return last.is("in") || last.is("and") || last.is("limit") || last.is("select")
}
