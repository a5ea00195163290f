package operators

import (
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

// FirstKnown gives every unknown operand the type of the first operand
// whose type is known.
func FirstKnown(b ir.Binding, arity int) []types.Type {
	known := types.UnknownType()
	for i := 0; i < b.OperandCount(); i++ {
		if t := b.OperandType(i); t.IsKnown() && t.Name != types.Null {
			known = t
			break
		}
	}
	out := make([]types.Type, arity)
	for i := range out {
		out[i] = known
	}
	return out
}

// BooleanOperands types every operand as BOOLEAN.
func BooleanOperands(_ ir.Binding, arity int) []types.Type {
	return Fixed(types.BooleanType(true))(nil, arity)
}

// Fixed types every operand as t.
func Fixed(t types.Type) ir.OperandTypeInference {
	return func(_ ir.Binding, arity int) []types.Type {
		out := make([]types.Type, arity)
		for i := range out {
			out[i] = t
		}
		return out
	}
}

// FromParams types operands from the operator's declared parameters.
func FromParams(b ir.Binding, arity int) []types.Type {
	params := b.Operator().ParamTypes
	out := make([]types.Type, arity)
	for i := range out {
		if i < len(params) {
			out[i] = params[i]
		} else {
			out[i] = types.UnknownType()
		}
	}
	return out
}
