package operators

import (
	"fmt"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

// anyNullable reports whether any operand type is nullable.
func anyNullable(b ir.Binding) bool {
	for i := 0; i < b.OperandCount(); i++ {
		if b.OperandType(i).Nullable {
			return true
		}
	}
	return false
}

// ExplicitType always returns t.
func ExplicitType(t types.Type) ir.ReturnTypeRule {
	return func(ir.Binding) (types.Type, error) { return t, nil }
}

// ArgType returns the type of operand i.
func ArgType(i int) ir.ReturnTypeRule {
	return func(b ir.Binding) (types.Type, error) {
		if i >= b.OperandCount() {
			return types.Type{}, fmt.Errorf("%s has no operand %d", b.Operator().Name, i)
		}
		return b.OperandType(i), nil
	}
}

// NullableIfAny makes the result of rule nullable when any operand is.
func NullableIfAny(rule ir.ReturnTypeRule) ir.ReturnTypeRule {
	return func(b ir.Binding) (types.Type, error) {
		t, err := rule(b)
		if err != nil {
			return t, err
		}
		if anyNullable(b) {
			t = t.WithNullability(true)
		}
		return t, nil
	}
}

// BooleanNullable returns BOOLEAN, nullable when any operand is.
var BooleanNullable = NullableIfAny(ExplicitType(types.BooleanType(false)))

// BooleanNotNull returns BOOLEAN NOT NULL.
var BooleanNotNull = ExplicitType(types.BooleanType(false))

// LeastRestrictiveArgs returns the least restrictive type of all operands.
func LeastRestrictiveArgs(b ir.Binding) (types.Type, error) {
	t, ok := types.LeastRestrictive(OperandTypes(b))
	if !ok {
		return types.Type{}, fmt.Errorf("operands of %s have no common type", b.Operator().Name)
	}
	return t, nil
}

// arithmetic combines two numeric operand types with combine. Datetime
// plus or minus an interval keeps the datetime type; interval arithmetic
// keeps the interval type.
func arithmetic(combine func(a, b types.Type) types.Type) ir.ReturnTypeRule {
	return func(b ir.Binding) (types.Type, error) {
		if b.OperandCount() != 2 {
			return types.Type{}, fmt.Errorf("%s expects two operands", b.Operator().Name)
		}
		t0, t1 := b.OperandType(0), b.OperandType(1)
		nullable := t0.Nullable || t1.Nullable
		switch {
		case t0.IsNumeric() && t1.IsNumeric():
			return combine(t0, t1), nil
		case types.FamilyDatetime.Contains(t0) && t1.IsInterval():
			return t0.WithNullability(nullable), nil
		case t0.IsInterval() && types.FamilyDatetime.Contains(t1):
			return t1.WithNullability(nullable), nil
		case t0.IsInterval() && t1.IsNumeric():
			return t0.WithNullability(nullable), nil
		case t0.IsNumeric() && t1.IsInterval():
			return t1.WithNullability(nullable), nil
		case t0.Name == types.Null || t0.Name == types.Unknown:
			return t1.WithNullability(true), nil
		case t1.Name == types.Null || t1.Name == types.Unknown:
			return t0.WithNullability(true), nil
		}
		return LeastRestrictiveArgs(b)
	}
}

// DecimalSum types + and -.
var DecimalSum = arithmetic(types.DecimalSum)

// DecimalProduct types *.
var DecimalProduct = arithmetic(types.DecimalProduct)

// DecimalQuotient types / and %.
var DecimalQuotient = arithmetic(types.DecimalQuotient)

// ConcatType types ||: a VARCHAR whose length is the sum of the operand
// lengths, or VARBINARY for binary operands.
func ConcatType(b ir.Binding) (types.Type, error) {
	length := 0
	name := types.Varchar
	for i := 0; i < b.OperandCount(); i++ {
		t := b.OperandType(i)
		if t.Family() == types.FamilyBinary {
			name = types.Varbinary
		}
		if t.Precision != types.NotSpecified {
			length += t.Precision
		}
	}
	t := types.WithPrecision(name, length, types.NotSpecified)
	if lead := b.OperandType(0); lead.IsCharacter() {
		t.Charset, t.Collation = lead.Charset, lead.Collation
	}
	return t.WithNullability(anyNullable(b)), nil
}

// aggregateNullable reports whether an aggregate may return NULL because
// it can see an empty group.
func aggregateNullable(b ir.Binding) bool {
	return b.GroupCount() == 0 || b.HasFilter()
}

// CountType returns BIGINT NOT NULL.
var CountType = ExplicitType(types.BigIntType(false))

// SumReturn types SUM: the widened operand type, nullable over an empty
// group.
func SumReturn(b ir.Binding) (types.Type, error) {
	t := types.SumType(b.OperandType(0))
	if aggregateNullable(b) {
		t = t.WithNullability(true)
	}
	return t, nil
}

// Sum0Return types $SUM0, which yields zero over an empty group.
func Sum0Return(b ir.Binding) (types.Type, error) {
	return types.SumType(b.OperandType(0)), nil
}

// AggregateArgType returns the operand type, nullable over an empty group.
// Used by MIN, MAX and AVG.
func AggregateArgType(b ir.Binding) (types.Type, error) {
	t := b.OperandType(0)
	if aggregateNullable(b) {
		t = t.WithNullability(true)
	}
	return t, nil
}

// FirstSuccessful tries each rule in turn and returns the first result
// without an error.
func FirstSuccessful(rules ...ir.ReturnTypeRule) ir.ReturnTypeRule {
	return func(b ir.Binding) (types.Type, error) {
		var err error
		for _, r := range rules {
			var t types.Type
			if t, err = r(b); err == nil {
				return t, nil
			}
		}
		return types.Type{}, err
	}
}
