// Package literal implements typed SQL constants with canonical text forms.
//
// Literal is a sealed interface: only the value types in this package
// implement it, so consumers switch over the concrete types exhaustively.
// Every literal derives its logical type without external context, and
// String renders the canonical SQL spelling, which Parse accepts back:
//
//	Parse(Parse(s).String()) == Parse(s)
//
// Literals are immutable values.
package literal

import (
	"fmt"

	"github.com/roach88/polyexpr/internal/types"
)

// Kind tags the variant of a literal.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindExactNumeric
	KindApproxNumeric
	KindCharString
	KindBinaryString
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindSymbol
)

var kindNames = [...]string{
	"NULL", "BOOLEAN", "EXACT_NUMERIC", "APPROX_NUMERIC", "CHAR_STRING",
	"BINARY_STRING", "DATE", "TIME", "TIMESTAMP", "INTERVAL", "SYMBOL",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Literal is a typed constant value.
type Literal interface {
	literal() // sealed

	// Kind returns the variant tag.
	Kind() Kind

	// Type returns the logical type of the literal.
	Type() types.Type

	// String returns the canonical SQL text of the literal.
	String() string
}

// Format returns the canonical text of a literal. It is the left inverse of
// Parse.
func Format(l Literal) string {
	return l.String()
}

// Equal reports whether two literals denote the same typed value.
func Equal(a, b Literal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Type() == b.Type() && a.String() == b.String()
}

// Null is the NULL literal.
type Null struct{}

func (Null) literal()         {}
func (Null) Kind() Kind       { return KindNull }
func (Null) Type() types.Type { return types.NullType() }
func (Null) String() string   { return "NULL" }

// Boolean is TRUE, FALSE or UNKNOWN.
type Boolean struct {
	Value   bool
	Unknown bool
}

// NewBoolean returns TRUE or FALSE.
func NewBoolean(v bool) Boolean {
	return Boolean{Value: v}
}

// UnknownBoolean returns the UNKNOWN literal, a BOOLEAN null.
func UnknownBoolean() Boolean {
	return Boolean{Unknown: true}
}

func (Boolean) literal()   {}
func (Boolean) Kind() Kind { return KindBoolean }

func (b Boolean) Type() types.Type {
	return types.BooleanType(b.Unknown)
}

func (b Boolean) String() string {
	switch {
	case b.Unknown:
		return "UNKNOWN"
	case b.Value:
		return "TRUE"
	}
	return "FALSE"
}

// Symbol is an enumeration flag such as BOTH, LEADING, a time unit or a
// type specification used as an operand (e.g. the target of CAST).
type Symbol struct {
	Tag string
}

func (Symbol) literal()         {}
func (Symbol) Kind() Kind       { return KindSymbol }
func (Symbol) Type() types.Type { return types.SymbolType() }
func (s Symbol) String() string { return s.Tag }
