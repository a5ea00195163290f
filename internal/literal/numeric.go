package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/polyexpr/internal/types"
)

// ExactNumeric is an exact number that keeps its written precision and
// scale: "123.450" has precision 6 and scale 3 and formats back to
// "123.450".
type ExactNumeric struct {
	Value     decimal.Decimal
	Precision int
	Scale     int
}

func (ExactNumeric) literal()   {}
func (ExactNumeric) Kind() Kind { return KindExactNumeric }

// Type maps scale 0 values in the 32-bit range to INTEGER, other scale 0
// values to BIGINT, and everything else to DECIMAL(precision, scale).
func (n ExactNumeric) Type() types.Type {
	if n.Scale == 0 {
		if n.Value.IsInteger() {
			if n.Value.GreaterThanOrEqual(decimal.NewFromInt(math.MinInt32)) &&
				n.Value.LessThanOrEqual(decimal.NewFromInt(math.MaxInt32)) {
				return types.IntegerType(false)
			}
			if n.Value.GreaterThanOrEqual(decimal.NewFromInt(math.MinInt64)) &&
				n.Value.LessThanOrEqual(decimal.NewFromInt(math.MaxInt64)) {
				return types.BigIntType(false)
			}
		}
	}
	return types.DecimalType(false, n.Precision, n.Scale)
}

func (n ExactNumeric) String() string {
	return n.Value.StringFixed(int32(n.Scale))
}

// IsInteger reports whether the literal has scale 0.
func (n ExactNumeric) IsInteger() bool {
	return n.Scale == 0
}

// Int64 returns the value as an int64 when it has no fractional part.
func (n ExactNumeric) Int64() (int64, bool) {
	if !n.Value.IsInteger() {
		return 0, false
	}
	if n.Value.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || n.Value.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, false
	}
	return n.Value.IntPart(), true
}

// ApproxNumeric is a floating-point literal such as 1.0E3.
type ApproxNumeric struct {
	Value float64
}

func (ApproxNumeric) literal()         {}
func (ApproxNumeric) Kind() Kind       { return KindApproxNumeric }
func (ApproxNumeric) Type() types.Type { return types.DoubleType(false) }

// String renders mantissa and exponent, e.g. 1.0E3, 1.5E-7, -2.25E0.
func (a ApproxNumeric) String() string {
	s := strconv.FormatFloat(a.Value, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return fmt.Sprintf("%sE%d", mantissa, e)
}

// ParseNumeric parses an unsigned or signed numeric literal. The presence of
// an exponent makes it approximate; otherwise it is exact and keeps the
// digit string's precision and scale.
func ParseNumeric(text string) (Literal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("empty numeric literal")
	}
	if strings.ContainsAny(s, "eE") {
		return ParseApproxNumeric(s)
	}
	return ParseExactNumeric(s)
}

// ParseExactNumeric parses digits with an optional sign and decimal point.
func ParseExactNumeric(text string) (ExactNumeric, error) {
	s := strings.TrimSpace(text)
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" {
		return ExactNumeric{}, fmt.Errorf("invalid exact numeric literal %q", text)
	}
	intPart, frac, hasPoint := strings.Cut(body, ".")
	if !allDigits(intPart) || !allDigits(frac) || (intPart == "" && frac == "") {
		return ExactNumeric{}, fmt.Errorf("invalid exact numeric literal %q", text)
	}
	scale := len(frac)
	prec := max(len(strings.TrimLeft(intPart, "0"))+scale, 1)
	normalized := s
	if hasPoint && frac == "" {
		normalized = strings.TrimSuffix(s, ".")
	}
	if intPart == "" {
		normalized = strings.Replace(normalized, ".", "0.", 1)
	}
	v, err := decimal.NewFromString(normalized)
	if err != nil {
		return ExactNumeric{}, fmt.Errorf("invalid exact numeric literal %q: %w", text, err)
	}
	return ExactNumeric{Value: v, Precision: prec, Scale: scale}, nil
}

// ParseApproxNumeric parses a number with an exponent.
func ParseApproxNumeric(text string) (ApproxNumeric, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return ApproxNumeric{}, fmt.Errorf("invalid approximate numeric literal %q", text)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return ApproxNumeric{}, fmt.Errorf("approximate numeric literal %q out of range", text)
	}
	return ApproxNumeric{Value: f}, nil
}

// NewExactInt returns an exact literal for an integer.
func NewExactInt(v int64) ExactNumeric {
	s := strconv.FormatInt(v, 10)
	return ExactNumeric{Value: decimal.NewFromInt(v), Precision: len(strings.TrimPrefix(s, "-")), Scale: 0}
}

// CreateNegative negates a numeric literal, keeping precision and scale.
func CreateNegative(l Literal) (Literal, error) {
	switch n := l.(type) {
	case ExactNumeric:
		return ExactNumeric{Value: n.Value.Neg(), Precision: n.Precision, Scale: n.Scale}, nil
	case ApproxNumeric:
		return ApproxNumeric{Value: -n.Value}, nil
	}
	return nil, fmt.Errorf("cannot negate %s literal", l.Kind())
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
