// Package binding provides the views of a call that operator type rules
// consume.
//
// Three bindings exist:
//   - Call: a call in the tree, with operand types supplied by the session
//   - Explicit: an operator and a list of operand types, with no tree
//     behind it (the functions command, operator tests)
//   - Aggregate: an override that pins GroupCount and HasFilter for the
//     subject of FILTER, WITHIN GROUP and OVER
package binding

import (
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
	"github.com/roach88/polyexpr/internal/types"
)

// TypeFunc returns the derived type of an operand node.
type TypeFunc func(n ir.Node) types.Type

// Call binds a call node. The operand types come from typeOf, which is
// normally the session's derived-type cache.
type Call struct {
	call       *ir.Call
	typeOf     TypeFunc
	groupCount int
}

// Option configures a Call binding.
type Option func(*Call)

// WithGroupCount sets the aggregate group count. The default is -1.
func WithGroupCount(n int) Option {
	return func(b *Call) { b.groupCount = n }
}

// NewCall returns a binding for call.
func NewCall(call *ir.Call, typeOf TypeFunc, opts ...Option) *Call {
	b := &Call{call: call, typeOf: typeOf, groupCount: -1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Call) Operator() *ir.Operator { return b.call.Operator() }
func (b *Call) OperandCount() int      { return len(b.call.Operands) }
func (b *Call) GroupCount() int        { return b.groupCount }
func (b *Call) HasFilter() bool        { return false }
func (b *Call) Pos() ir.Pos            { return b.call.Pos() }

func (b *Call) OperandType(i int) types.Type {
	n := b.call.Operand(i)
	if n == nil {
		return types.UnknownType()
	}
	return b.typeOf(n)
}

func (b *Call) OperandNode(i int) (ir.Node, bool) {
	n := b.call.Operand(i)
	return n, n != nil
}

// OperandLiteralValue returns the literal value of operand i, looking
// through CAST and negating through unary minus.
func (b *Call) OperandLiteralValue(i int) (literal.Literal, bool) {
	return LiteralValue(b.call.Operand(i))
}

// LiteralValue returns the constant value of n when n is a literal, a CAST
// of one, or a unary minus applied to a numeric literal.
func LiteralValue(n ir.Node) (literal.Literal, bool) {
	if c, ok := n.(*ir.Call); ok && c.Operator().Kind == ir.KindMinusPrefix && len(c.Operands) == 1 {
		v, ok := LiteralValue(c.Operands[0])
		if !ok {
			return nil, false
		}
		neg, err := literal.CreateNegative(v)
		if err != nil {
			return nil, false
		}
		return neg, true
	}
	return ir.IsLiteral(n, true)
}

// Explicit binds an operator to operand types without a call node.
type Explicit struct {
	op         *ir.Operator
	types      []types.Type
	pos        ir.Pos
	groupCount int
}

// NewExplicit returns a binding of op to the given operand types.
func NewExplicit(op *ir.Operator, operandTypes []types.Type, pos ir.Pos) *Explicit {
	return &Explicit{op: op, types: operandTypes, pos: pos, groupCount: -1}
}

func (b *Explicit) Operator() *ir.Operator { return b.op }
func (b *Explicit) OperandCount() int      { return len(b.types) }
func (b *Explicit) GroupCount() int        { return b.groupCount }
func (b *Explicit) HasFilter() bool        { return false }
func (b *Explicit) Pos() ir.Pos            { return b.pos }

func (b *Explicit) OperandType(i int) types.Type {
	if i < 0 || i >= len(b.types) {
		return types.UnknownType()
	}
	return b.types[i]
}

func (b *Explicit) OperandLiteralValue(int) (literal.Literal, bool) { return nil, false }
func (b *Explicit) OperandNode(int) (ir.Node, bool)                 { return nil, false }

// aggregate pins the aggregate state of a binding.
type aggregate struct {
	ir.Binding
	groupCount int
	hasFilter  bool
}

func (a aggregate) GroupCount() int { return a.groupCount }
func (a aggregate) HasFilter() bool { return a.hasFilter }

// Aggregate wraps b so that GroupCount and HasFilter report the given
// values. FILTER, WITHIN GROUP and OVER derive their aggregate through
// such a binding.
func Aggregate(b ir.Binding, groupCount int, hasFilter bool) ir.Binding {
	return aggregate{Binding: b, groupCount: groupCount, hasFilter: hasFilter}
}
