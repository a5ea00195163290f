package operators

import (
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

// Routine describes a user-defined function or procedure.
type Routine struct {
	Name       string
	Params     []types.Type
	ParamNames []string // nil when the routine takes positional arguments only
	Returns    types.Type
	Procedure  bool
	Aggregate  bool
	Distinct   bool // aggregate accepts DISTINCT/ALL
	Filter     bool // aggregate accepts FILTER
}

// NewRoutine builds the descriptor of a user-defined routine. Its operands
// are checked against the declared parameter types and unknown operands
// are inferred from them.
func NewRoutine(r Routine) *ir.Operator {
	category := ir.CategoryUserDefinedFunction
	if r.Procedure {
		category = ir.CategoryUserDefinedProcedure
	}
	ret := ExplicitType(r.Returns)
	if r.Aggregate {
		ret = routineAggregateReturn(r.Returns)
	}
	return &ir.Operator{
		Name:             r.Name,
		Kind:             ir.KindOtherFunction,
		Syntax:           ir.SyntaxFunction,
		LeftPrec:         precFunction,
		RightPrec:        precFunction,
		Category:         category,
		ReturnType:       ret,
		OperandInference: FromParams,
		OperandCheck:     Explicit(r.Params),
		ParamTypes:       r.Params,
		ParamNames:       r.ParamNames,
		IsAggregate:      r.Aggregate,
		AllowsDistinct:   r.Aggregate && r.Distinct,
		AllowsFilter:     r.Aggregate && r.Filter,
	}
}

func routineAggregateReturn(t types.Type) ir.ReturnTypeRule {
	return func(b ir.Binding) (types.Type, error) {
		if aggregateNullable(b) {
			return t.WithNullability(true), nil
		}
		return t, nil
	}
}
