package literal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/polyexpr/internal/types"
)

var (
	symbolPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ (),]*$`)
	charsetPattern = regexp.MustCompile(`^_([A-Za-z][A-Za-z0-9_\-]*)'`)
)

// Parse reads the canonical text of a literal. It accepts every form String
// produces, plus lower-case keywords and extra whitespace.
func Parse(text string) (Literal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("empty literal")
	}
	upper := strings.ToUpper(s)
	switch upper {
	case "NULL":
		return Null{}, nil
	case "TRUE":
		return NewBoolean(true), nil
	case "FALSE":
		return NewBoolean(false), nil
	case "UNKNOWN":
		return UnknownBoolean(), nil
	}

	switch {
	case hasKeyword(upper, "TIMESTAMP"):
		body, tz, err := datetimeBody(s, "TIMESTAMP")
		if err != nil {
			return nil, err
		}
		return ParseTimestamp(body, tz)
	case hasKeyword(upper, "TIME"):
		body, tz, err := datetimeBody(s, "TIME")
		if err != nil {
			return nil, err
		}
		return ParseTime(body, tz)
	case hasKeyword(upper, "DATE"):
		body, _, err := datetimeBody(s, "DATE")
		if err != nil {
			return nil, err
		}
		return ParseDate(body)
	case hasKeyword(upper, "INTERVAL"):
		return parseInterval(s)
	case strings.HasPrefix(upper, "X'"):
		body, rest, err := readQuoted(s[1:])
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("unexpected text after binary literal: %q", rest)
		}
		return NewBinaryString(body)
	case strings.HasPrefix(s, "'") || charsetPattern.MatchString(s):
		return parseCharString(s)
	case s[0] == '-' || s[0] == '+' || s[0] == '.' || (s[0] >= '0' && s[0] <= '9'):
		return ParseNumeric(s)
	case symbolPattern.MatchString(s):
		return Symbol{Tag: upper}, nil
	}
	return nil, fmt.Errorf("unrecognized literal %q", text)
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(text string) Literal {
	l, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("literal.MustParse(%q): %v", text, err))
	}
	return l
}

func hasKeyword(upper, kw string) bool {
	if !strings.HasPrefix(upper, kw) {
		return false
	}
	rest := upper[len(kw):]
	return rest != "" && (rest[0] == ' ' || rest[0] == '\'' || rest[0] == '-' || rest[0] == '+')
}

// datetimeBody strips the keyword and optional WITH LOCAL TIME ZONE and
// returns the quoted body.
func datetimeBody(s, kw string) (string, bool, error) {
	rest := strings.TrimSpace(s[len(kw):])
	tz := false
	const withTZ = "WITH LOCAL TIME ZONE"
	if len(rest) >= len(withTZ) && strings.EqualFold(rest[:len(withTZ)], withTZ) {
		if kw == "DATE" {
			return "", false, fmt.Errorf("DATE literal cannot have a time zone")
		}
		tz = true
		rest = strings.TrimSpace(rest[len(withTZ):])
	}
	body, tail, err := readQuoted(rest)
	if err != nil {
		return "", false, fmt.Errorf("illegal %s literal: %w", kw, err)
	}
	if strings.TrimSpace(tail) != "" {
		return "", false, fmt.Errorf("unexpected text after %s literal: %q", kw, tail)
	}
	return body, tz, nil
}

func parseInterval(s string) (Literal, error) {
	rest := strings.TrimSpace(s[len("INTERVAL"):])
	sign := 1
	if rest != "" && (rest[0] == '-' || rest[0] == '+') {
		if rest[0] == '-' {
			sign = -1
		}
		rest = strings.TrimSpace(rest[1:])
	}
	raw, tail, err := readQuoted(rest)
	if err != nil {
		return nil, fmt.Errorf("illegal INTERVAL literal: %w", err)
	}
	q, err := types.ParseIntervalQualifier(tail)
	if err != nil {
		return nil, err
	}
	return NewInterval(sign, raw, q)
}

func parseCharString(s string) (Literal, error) {
	charset := ""
	if m := charsetPattern.FindStringSubmatch(s); m != nil {
		charset = m[1]
		s = s[len(m[0])-1:]
	}
	body, rest, err := readQuoted(s)
	if err != nil {
		return nil, err
	}
	collation := ""
	rest = strings.TrimSpace(rest)
	if rest != "" {
		const kw = "COLLATE "
		if len(rest) < len(kw) || !strings.EqualFold(rest[:len(kw)], kw) {
			return nil, fmt.Errorf("unexpected text after string literal: %q", rest)
		}
		tag := strings.TrimSpace(rest[len(kw):])
		if unq, err := strconv.Unquote(tag); err == nil {
			tag = unq
		}
		collation = tag
	}
	return NewCharString(body, charset, collation)
}

// readQuoted reads a single-quoted string at the start of s, undoubling
// embedded quotes. It returns the body and the text after the closing quote.
func readQuoted(s string) (string, string, error) {
	if !strings.HasPrefix(s, "'") {
		return "", "", fmt.Errorf("expected quoted string, got %q", s)
	}
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			sb.WriteByte('\'')
			i++
			continue
		}
		return sb.String(), s[i+1:], nil
	}
	return "", "", fmt.Errorf("unterminated string %q", s)
}
