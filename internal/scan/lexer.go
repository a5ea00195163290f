package scan

import (
	"strings"
	"unicode"

	"github.com/roach88/polyexpr/internal/ir"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokQuoted
	tokNumber
	tokString
	tokParam
	tokSymbol
)

type token struct {
	kind tokenKind
	text string

	// prefix is set on string tokens written X'..', U&'..' or _charset'..'.
	prefix string
	pos    ir.Pos
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return t.prefix + "'" + t.text + "'"
	case tokQuoted:
		return `"` + t.text + `"`
	}
	return t.text
}

// twoCharSymbols are checked before single characters.
var twoCharSymbols = []string{"<>", "<=", ">=", "!=", "||", "=>"}

const singleCharSymbols = "+-*/%=<>(),."

type lexer struct {
	src    []rune
	off    int
	line   int
	column int
}

func newLexer(text string) *lexer {
	return &lexer{src: []rune(text), line: 1, column: 1}
}

func (l *lexer) peek(k int) rune {
	if l.off+k >= len(l.src) {
		return -1
	}
	return l.src[l.off+k]
}

func (l *lexer) read() rune {
	r := l.src[l.off]
	l.off++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

// tokenize splits text into tokens. The last token is always tokEOF.
func tokenize(text string) ([]token, error) {
	l := newLexer(text)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) skipSpaceAndComments() error {
	for {
		r := l.peek(0)
		switch {
		case r < 0:
			return nil
		case unicode.IsSpace(r):
			l.read()
		case r == '-' && l.peek(1) == '-':
			for l.peek(0) >= 0 && l.peek(0) != '\n' {
				l.read()
			}
		case r == '/' && l.peek(1) == '*':
			pos := l.pos()
			l.read()
			l.read()
			for {
				if l.peek(0) < 0 {
					return ir.NewReductionError(pos, "unterminated comment")
				}
				if l.read() == '*' && l.peek(0) == '/' {
					l.read()
					break
				}
			}
		default:
			return nil
		}
	}
}

func (l *lexer) pos() ir.Pos {
	return ir.Pos{Line: l.line, Column: l.column}
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	pos := l.pos()
	r := l.peek(0)

	switch {
	case r < 0:
		return token{kind: tokEOF, pos: pos}, nil
	case r == 'U' || r == 'u':
		if l.peek(1) == '&' && l.peek(2) == '\'' {
			l.read()
			l.read()
			return l.scanString("U&", pos)
		}
		return l.scanWord(pos)
	case unicode.IsLetter(r) || r == '_':
		return l.scanWord(pos)
	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peek(1))):
		return l.scanNumber(pos), nil
	case r == '"':
		return l.scanQuotedIdentifier(pos)
	case r == '\'':
		return l.scanString("", pos)
	case r == '?':
		l.read()
		return token{kind: tokParam, text: "?", pos: pos}, nil
	}

	for _, sym := range twoCharSymbols {
		if r == rune(sym[0]) && l.peek(1) == rune(sym[1]) {
			l.read()
			l.read()
			return token{kind: tokSymbol, text: sym, pos: pos}, nil
		}
	}
	if strings.ContainsRune(singleCharSymbols, r) {
		l.read()
		return token{kind: tokSymbol, text: string(r), pos: pos}, nil
	}
	return token{}, ir.NewReductionError(pos, "unexpected character %q", r)
}

// scanWord reads an identifier or keyword. A word directly followed by a
// quote is a string prefix: X'..' or _charset'..'.
func (l *lexer) scanWord(pos ir.Pos) (token, error) {
	var sb strings.Builder
	for {
		r := l.peek(0)
		if r < 0 || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$') {
			break
		}
		sb.WriteRune(l.read())
	}
	word := sb.String()
	if l.peek(0) == '\'' && (strings.EqualFold(word, "X") || (strings.HasPrefix(word, "_") && len(word) > 1)) {
		return l.scanString(word, pos)
	}
	return token{kind: tokIdent, text: word, pos: pos}, nil
}

func (l *lexer) scanNumber(pos ir.Pos) token {
	var sb strings.Builder
	digits := func() {
		for unicode.IsDigit(l.peek(0)) {
			sb.WriteRune(l.read())
		}
	}
	digits()
	if l.peek(0) == '.' {
		sb.WriteRune(l.read())
		digits()
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		next := l.peek(1)
		if unicode.IsDigit(next) || ((next == '+' || next == '-') && unicode.IsDigit(l.peek(2))) {
			sb.WriteRune(l.read())
			if next == '+' || next == '-' {
				sb.WriteRune(l.read())
			}
			digits()
		}
	}
	return token{kind: tokNumber, text: sb.String(), pos: pos}
}

// scanString reads a single-quoted string starting at the quote. Doubled
// quotes stand for one quote.
func (l *lexer) scanString(prefix string, pos ir.Pos) (token, error) {
	l.read()
	var sb strings.Builder
	for {
		r := l.peek(0)
		if r < 0 {
			return token{}, ir.NewReductionError(pos, "unterminated string")
		}
		l.read()
		if r == '\'' {
			if l.peek(0) != '\'' {
				break
			}
			l.read()
		}
		sb.WriteRune(r)
	}
	return token{kind: tokString, text: sb.String(), prefix: prefix, pos: pos}, nil
}

func (l *lexer) scanQuotedIdentifier(pos ir.Pos) (token, error) {
	l.read()
	var sb strings.Builder
	for {
		r := l.peek(0)
		if r < 0 {
			return token{}, ir.NewReductionError(pos, "unterminated quoted identifier")
		}
		l.read()
		if r == '"' {
			if l.peek(0) != '"' {
				break
			}
			l.read()
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return token{}, ir.NewReductionError(pos, "zero-length quoted identifier")
	}
	return token{kind: tokQuoted, text: sb.String(), pos: pos}, nil
}
