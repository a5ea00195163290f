package literal

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/polyexpr/internal/types"
)

// CharString is a character string literal. Text is stored NFC-normalized.
// Charset and Collation are empty when not written explicitly; Collation is
// a BCP 47 language tag.
type CharString struct {
	Text      string
	Charset   string
	Collation string
}

// sqlCharsets maps SQL charset spellings onto IANA names.
var sqlCharsets = map[string]string{
	"UTF8":   "UTF-8",
	"UTF16":  "UTF-16",
	"LATIN1": "ISO-8859-1",
	"ASCII":  "US-ASCII",
}

// NewCharString validates the charset and collation and normalizes text.
func NewCharString(text, charset, collation string) (CharString, error) {
	cs := CharString{Text: norm.NFC.String(text)}
	if charset != "" {
		name := strings.ToUpper(charset)
		if err := ValidateCharset(name); err != nil {
			return CharString{}, err
		}
		cs.Charset = name
	}
	if collation != "" {
		tag, err := language.Parse(collation)
		if err != nil {
			return CharString{}, fmt.Errorf("unknown collation %q: %w", collation, err)
		}
		cs.Collation = tag.String()
	}
	return cs, nil
}

// ValidateCharset checks a charset name against the IANA registry.
func ValidateCharset(name string) error {
	iana := name
	if mapped, ok := sqlCharsets[strings.ToUpper(name)]; ok {
		iana = mapped
	}
	if _, err := ianaindex.IANA.Encoding(iana); err != nil {
		return fmt.Errorf("unknown character set %q", name)
	}
	return nil
}

func (CharString) literal()   {}
func (CharString) Kind() Kind { return KindCharString }

// Type is CHAR(n) where n counts characters.
func (c CharString) Type() types.Type {
	return types.CharType(false, utf8.RuneCountInString(c.Text), c.Charset, c.Collation)
}

// String renders _CHARSET'text' COLLATE "tag" with embedded quotes doubled.
func (c CharString) String() string {
	var sb strings.Builder
	if c.Charset != "" {
		sb.WriteString("_")
		sb.WriteString(c.Charset)
	}
	sb.WriteString(QuoteString(c.Text))
	if c.Collation != "" {
		sb.WriteString(" COLLATE ")
		sb.WriteString(strconv.Quote(c.Collation))
	}
	return sb.String()
}

// Compare orders two strings using the collation of c, falling back to
// code-point order when no collation is set.
func (c CharString) Compare(other CharString) int {
	if c.Collation == "" {
		return strings.Compare(c.Text, other.Text)
	}
	col := collate.New(language.Make(c.Collation))
	return col.CompareString(c.Text, other.Text)
}

// QuoteString wraps s in single quotes, doubling embedded quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// UnescapeUnicode replaces escape sequences of the form \XXXX (escape
// followed by four hex digits) with the corresponding character; a doubled
// escape yields the escape itself. A zero escape returns c unchanged.
func UnescapeUnicode(c CharString, escape rune) (CharString, error) {
	if escape == 0 {
		return c, nil
	}
	src := []rune(c.Text)
	var sb strings.Builder
	for i := 0; i < len(src); i++ {
		r := src[i]
		if r != escape {
			sb.WriteRune(r)
			continue
		}
		if i+1 < len(src) && src[i+1] == escape {
			sb.WriteRune(escape)
			i++
			continue
		}
		if i+5 > len(src) {
			return CharString{}, fmt.Errorf("unicode escape sequence starting at character %d is not exactly four hex digits", i)
		}
		v, err := strconv.ParseUint(string(src[i+1:i+5]), 16, 32)
		if err != nil {
			return CharString{}, fmt.Errorf("unicode escape sequence starting at character %d is not exactly four hex digits", i)
		}
		sb.WriteRune(rune(v))
		i += 4
	}
	return CharString{Text: norm.NFC.String(sb.String()), Charset: c.Charset, Collation: c.Collation}, nil
}

// BinaryString is a binary literal written as hex digits, X'ABAB'. An odd
// number of hex digits is allowed; the bit count is four per digit.
type BinaryString struct {
	Hex string
}

// NewBinaryString validates and upper-cases a hex digit string.
func NewBinaryString(hexits string) (BinaryString, error) {
	for _, r := range hexits {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return BinaryString{}, fmt.Errorf("binary literal string must contain only characters '0' - '9', 'A' - 'F'")
		}
	}
	return BinaryString{Hex: strings.ToUpper(hexits)}, nil
}

func (BinaryString) literal()   {}
func (BinaryString) Kind() Kind { return KindBinaryString }

// BitCount is the number of bits the literal denotes.
func (b BinaryString) BitCount() int {
	return len(b.Hex) * 4
}

// Bytes returns the value, right-padding an odd final hex digit with zero.
func (b BinaryString) Bytes() []byte {
	h := b.Hex
	if len(h)%2 == 1 {
		h += "0"
	}
	out, _ := hex.DecodeString(h)
	return out
}

func (b BinaryString) Type() types.Type {
	return types.BinaryType(false, b.BitCount()/8)
}

func (b BinaryString) String() string {
	return "X'" + b.Hex + "'"
}

// ConcatStrings concatenates adjacent string literals. All inputs must be of
// the same class; the result takes the charset and collation of the first.
func ConcatStrings(lits []Literal) (Literal, error) {
	if len(lits) == 0 {
		return nil, fmt.Errorf("no literals to concatenate")
	}
	if len(lits) == 1 {
		return lits[0], nil
	}
	switch first := lits[0].(type) {
	case CharString:
		var sb strings.Builder
		for i, l := range lits {
			cs, ok := l.(CharString)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate %s literal at position %d with CHAR_STRING", l.Kind(), i)
			}
			sb.WriteString(cs.Text)
		}
		return CharString{Text: norm.NFC.String(sb.String()), Charset: first.Charset, Collation: first.Collation}, nil
	case BinaryString:
		var sb strings.Builder
		for i, l := range lits {
			bs, ok := l.(BinaryString)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate %s literal at position %d with BINARY_STRING", l.Kind(), i)
			}
			sb.WriteString(bs.Hex)
		}
		return BinaryString{Hex: sb.String()}, nil
	}
	return nil, fmt.Errorf("cannot concatenate %s literals", lits[0].Kind())
}
