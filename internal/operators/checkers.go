package operators

import (
	"fmt"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

// OperandTypes returns the derived operand types of a binding.
func OperandTypes(b ir.Binding) []types.Type {
	out := make([]types.Type, b.OperandCount())
	for i := range out {
		out[i] = b.OperandType(i)
	}
	return out
}

// CallSignature renders the actual argument types of a binding in the
// syntax of its operator, e.g. "<INTEGER> + <BOOLEAN>" or
// "ABS(<VARCHAR(3)>)".
func CallSignature(b ir.Binding) string {
	ts := OperandTypes(b)
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = "<" + t.WithNullability(true).String() + ">"
	}
	return renderForm(b.Operator(), parts)
}

// AllowedSignatures renders the forms an operator accepts, one per line.
func AllowedSignatures(op *ir.Operator) string {
	if op.OperandCheck == nil || len(op.OperandCheck.Forms) == 0 {
		return renderForm(op, nil)
	}
	forms := make([]string, len(op.OperandCheck.Forms))
	for i, f := range op.OperandCheck.Forms {
		parts := make([]string, len(f))
		for j, fam := range f {
			parts[j] = "<" + fam + ">"
		}
		forms[i] = renderForm(op, parts)
	}
	return strings.Join(forms, "\n")
}

func renderForm(op *ir.Operator, parts []string) string {
	switch op.Syntax {
	case ir.SyntaxBinary:
		if len(parts) == 2 {
			return parts[0] + " " + op.Name + " " + parts[1]
		}
	case ir.SyntaxPrefix:
		if len(parts) == 1 {
			return op.Name + parts[0]
		}
	case ir.SyntaxPostfix:
		if len(parts) == 1 {
			return parts[0] + " " + op.Name
		}
	case ir.SyntaxSpecial:
		if op.Kind == ir.KindBetween && len(parts) == 3 {
			return parts[0] + " " + op.Name + " " + parts[1] + " AND " + parts[2]
		}
	}
	return op.Name + "(" + strings.Join(parts, ", ") + ")"
}

// NewCallTypeError builds the standard "Cannot apply" failure for operand
// i. expected names the family the operand should have belonged to.
func NewCallTypeError(b ir.Binding, operand int, expected string) *ir.CompileError {
	op := b.Operator()
	msg := fmt.Sprintf("Cannot apply '%s' to arguments of type '%s'. Supported form(s): '%s'",
		op.Name, CallSignature(b), AllowedSignatures(op))
	err := ir.NewTypeCheckError(b.Pos(), operand, msg)
	err.Details = map[string]string{"expected": expected}
	return err
}

// NewOperandCountError builds the operand count failure. An exact range
// reports the expected count; any other range reports a generic message.
func NewOperandCountError(b ir.Binding) *ir.CompileError {
	op := b.Operator()
	r := op.OperandCountRange()
	var msg string
	if r.IsExact() {
		msg = fmt.Sprintf("Invalid number of arguments to function '%s'. Was expecting %d arguments", op.Name, r.Min)
	} else {
		msg = fmt.Sprintf("Invalid number of arguments to function '%s': wrong number of arguments", op.Name)
	}
	err := ir.NewTypeCheckError(b.Pos(), -1, msg)
	err.Details = map[string]string{"expected": r.String(), "actual": fmt.Sprintf("%d", b.OperandCount())}
	return err
}

// Families accepts exactly len(fams) operands, operand i in fams[i].
func Families(fams ...types.Family) *ir.OperandTypeChecker {
	return OptionalFamilies(len(fams), fams...)
}

// OptionalFamilies accepts between required and len(fams) operands.
func OptionalFamilies(required int, fams ...types.Family) *ir.OperandTypeChecker {
	return &ir.OperandTypeChecker{
		Range: ir.Between(required, len(fams)),
		Forms: [][]string{familyNames(fams)},
		Check: func(b ir.Binding) error {
			for i := 0; i < b.OperandCount() && i < len(fams); i++ {
				if !fams[i].Contains(b.OperandType(i)) {
					return NewCallTypeError(b, i, fams[i].String())
				}
			}
			return nil
		},
	}
}

// OneOf accepts any of several fixed-arity family forms. On failure the
// operand reported is the first mismatch of the closest form.
func OneOf(forms ...[]types.Family) *ir.OperandTypeChecker {
	lo, hi := len(forms[0]), len(forms[0])
	names := make([][]string, len(forms))
	for i, f := range forms {
		lo, hi = min(lo, len(f)), max(hi, len(f))
		names[i] = familyNames(f)
	}
	return &ir.OperandTypeChecker{
		Range: ir.Between(lo, hi),
		Forms: names,
		Check: func(b ir.Binding) error {
			bestFail, bestFam := -1, ""
			for _, f := range forms {
				if len(f) != b.OperandCount() {
					continue
				}
				fail := -1
				for i, fam := range f {
					if !fam.Contains(b.OperandType(i)) {
						fail = i
						break
					}
				}
				if fail < 0 {
					return nil
				}
				if fail > bestFail {
					bestFail, bestFam = fail, f[fail].String()
				}
			}
			return NewCallTypeError(b, max(bestFail, 0), bestFam)
		},
	}
}

// Variadic accepts at least n operands, all in fam.
func Variadic(n int, fam types.Family) *ir.OperandTypeChecker {
	return &ir.OperandTypeChecker{
		Range: ir.AtLeast(n),
		Forms: [][]string{{fam.String(), "..."}},
		Check: func(b ir.Binding) error {
			for i := 0; i < b.OperandCount(); i++ {
				if !fam.Contains(b.OperandType(i)) {
					return NewCallTypeError(b, i, fam.String())
				}
			}
			return nil
		},
	}
}

// ComparableOperands accepts two operands that can be compared.
func ComparableOperands() *ir.OperandTypeChecker {
	return &ir.OperandTypeChecker{
		Range: ir.Exactly(2),
		Forms: [][]string{{"COMPARABLE_TYPE", "COMPARABLE_TYPE"}},
		Check: func(b ir.Binding) error {
			if !types.Comparable(b.OperandType(0), b.OperandType(1)) {
				return NewCallTypeError(b, 1, b.OperandType(0).Family().String())
			}
			return nil
		},
	}
}

// SameFamily accepts operands in r that share a least restrictive type.
func SameFamily(r ir.CountRange) *ir.OperandTypeChecker {
	return &ir.OperandTypeChecker{
		Range: r,
		Forms: [][]string{{"EQUIVALENT_TYPE", "..."}},
		Check: func(b ir.Binding) error {
			ts := OperandTypes(b)
			for i := 1; i < len(ts); i++ {
				if _, ok := types.LeastRestrictive(ts[:i+1]); !ok {
					return NewCallTypeError(b, i, ts[0].Family().String())
				}
			}
			return nil
		},
	}
}

// AnyTypes accepts any operand types in r.
func AnyTypes(r ir.CountRange) *ir.OperandTypeChecker {
	return &ir.OperandTypeChecker{Range: r}
}

// Niladic accepts no operands.
func Niladic() *ir.OperandTypeChecker {
	return AnyTypes(ir.Exactly(0))
}

// Explicit accepts operands assignable to declared parameter types.
func Explicit(params []types.Type) *ir.OperandTypeChecker {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.SignatureString()
	}
	return &ir.OperandTypeChecker{
		Range: ir.Exactly(len(params)),
		Forms: [][]string{names},
		Check: func(b ir.Binding) error {
			for i := 0; i < b.OperandCount() && i < len(params); i++ {
				if !types.CanAssignFrom(params[i], b.OperandType(i)) {
					return NewCallTypeError(b, i, params[i].SignatureString())
				}
			}
			return nil
		},
	}
}

func familyNames(fams []types.Family) []string {
	out := make([]string, len(fams))
	for i, f := range fams {
		out[i] = f.String()
	}
	return out
}
