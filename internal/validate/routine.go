package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/polyexpr/internal/binding"
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/resolve"
	"github.com/roach88/polyexpr/internal/types"
)

// deriveRoutine validates a call through its operator's type rules:
//
//  1. derive the operand types, skipping non-expression operands
//  2. resolve a placeholder operator and rebind the call
//  3. permute named arguments into parameter order
//  4. check the operand count, infer unknown operand types, check types
//  5. check quantifier and aggregate legality
//  6. compute the return type
//
// ctx is nil unless the call is the subject of FILTER, WITHIN GROUP or
// OVER.
func (s *Session) deriveRoutine(c *ir.Call, ctx *ir.AggregateContext) (types.Type, error) {
	names, err := argumentNames(c)
	if err != nil {
		return types.Type{}, err
	}

	aggregatesBefore := s.aggregates
	argTypes, err := s.deriveOperands(c)
	if err != nil {
		return types.Type{}, err
	}

	if c.Operator().Placeholder {
		if err := s.resolveCall(c, argTypes, names); err != nil {
			return types.Type{}, err
		}
	}
	op := c.Operator()

	if names != nil {
		if err := s.permuteArguments(c, op, names); err != nil {
			return types.Type{}, err
		}
	}

	if op.IsAggregate {
		if s.aggregates > aggregatesBefore {
			return types.Type{}, ir.NewNestedAggregateError(c.Pos(), op.Name)
		}
		s.aggregates++
	} else if ctx != nil {
		return types.Type{}, ir.NewNotAggregateError(c.Pos(), aggregateConstruct(*ctx), ir.String(c))
	}

	b := s.bind(c, ctx)
	if !op.OperandCountRange().IsValid(len(c.Operands)) {
		return types.Type{}, operators.NewOperandCountError(b)
	}
	s.inferOperands(c, b)

	if op.OperandCheck != nil && op.OperandCheck.Check != nil {
		if err := op.OperandCheck.Check(b); err != nil {
			return types.Type{}, err
		}
	}

	if err := s.checkQuantifier(c); err != nil {
		return types.Type{}, err
	}
	if op.IsAggregate {
		if err := checkAggregateContext(c, ctx); err != nil {
			return types.Type{}, err
		}
	}

	if op.ReturnType == nil {
		panic(ir.InvariantViolation{Message: fmt.Sprintf("operator %s has no return type rule", op.Name)})
	}
	t, err := op.ReturnType(b)
	if err != nil {
		return types.Type{}, err
	}
	s.logger.Debug("call validated",
		"op", op.Name,
		"type", t.String(),
		"depth", s.callDepth)
	return t, nil
}

// argumentNames returns the parameter names of a call made with
// "name => value" arguments, or nil for a positional call.
func argumentNames(c *ir.Call) ([]string, error) {
	var names []string
	named := 0
	seen := make(map[string]bool)
	for _, o := range c.Operands {
		name, ok := operators.ArgumentName(o)
		if !ok {
			continue
		}
		named++
		key := strings.ToUpper(name)
		if seen[key] {
			return nil, ir.NewTypeCheckError(o.Pos(), -1, fmt.Sprintf("Duplicate argument name '%s'", name))
		}
		seen[key] = true
		names = append(names, name)
	}
	if named == 0 {
		return nil, nil
	}
	if named != len(c.Operands) {
		return nil, ir.NewTypeCheckError(c.Pos(), -1, "Some but not all arguments are named")
	}
	return names, nil
}

func (s *Session) deriveOperands(c *ir.Call) ([]types.Type, error) {
	op := c.Operator()
	ts := make([]types.Type, len(c.Operands))
	for i, o := range c.Operands {
		if op.IsNonExprOperand(i) || o == nil {
			ts[i] = types.UnknownType()
			continue
		}
		t, err := s.DeriveType(o)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return ts, nil
}

// resolveCall replaces a placeholder operator with the routine overload
// resolution selects. When nothing matches and some argument is a ROW
// constructor, resolution is retried once with those arguments typed as
// column lists.
func (s *Session) resolveCall(c *ir.Call, argTypes []types.Type, names []string) error {
	placeholder := c.Operator()
	req := resolve.Request{
		Name:     placeholder.Name,
		ArgTypes: argTypes,
		ArgNames: names,
		Category: ir.CategoryUnspecified,
		Syntax:   ir.SyntaxFunction,
		Kind:     placeholder.Kind,
		Pos:      c.Pos(),
	}
	op, err := s.resolver.Resolve(req)
	if ir.IsNoMatchError(err) && hasRowArgument(c) && s.resolver.MatchByParameterCount(req.Name, len(argTypes), req.Category) {
		retry := req
		retry.ArgTypes = make([]types.Type, len(argTypes))
		for i, o := range c.Operands {
			retry.ArgTypes[i] = argTypes[i]
			if isRowCall(o) {
				retry.ArgTypes[i] = types.ColumnListType()
			}
		}
		s.logger.Debug("retrying resolution with column lists", "name", req.Name)
		if op, err = s.resolver.Resolve(retry); err == nil {
			for _, o := range c.Operands {
				if isRowCall(o) {
					s.derived[o.ID()] = types.ColumnListType()
				}
			}
		}
	}
	if err != nil {
		return err
	}
	s.rebinder.Rebind(c, op)
	s.logger.Debug("operator resolved",
		"name", placeholder.Name,
		"signature", req.Signature(),
		"category", op.Category)
	return nil
}

func isRowCall(n ir.Node) bool {
	c, ok := n.(*ir.Call)
	return ok && c.Operator().Kind == ir.KindRow
}

func hasRowArgument(c *ir.Call) bool {
	for _, o := range c.Operands {
		if isRowCall(o) {
			return true
		}
	}
	return false
}

// permuteArguments rewrites "name => value" operands into the values in
// parameter order.
func (s *Session) permuteArguments(c *ir.Call, op *ir.Operator, names []string) error {
	if op.ParamNames == nil {
		return ir.NewTypeCheckError(c.Pos(), -1, fmt.Sprintf("%s does not accept named arguments", op.Name))
	}
	values := make([]ir.Node, len(op.ParamNames))
	for i, name := range names {
		p := resolve.ParamIndex(op, name)
		if p < 0 {
			return ir.NewTypeCheckError(c.Operands[i].Pos(), i, fmt.Sprintf("%s has no parameter named '%s'", op.Name, name))
		}
		values[p] = c.Operands[i].(*ir.Call).Operand(1)
	}
	for p, v := range values {
		if v == nil {
			return ir.NewTypeCheckError(c.Pos(), p, fmt.Sprintf("No value supplied for parameter '%s' of %s", op.ParamNames[p], op.Name))
		}
	}
	c.Operands = values
	return nil
}

// bind returns the binding type rules see for c. Under FILTER, WITHIN
// GROUP or OVER the aggregate state comes from ctx rather than the session.
func (s *Session) bind(c *ir.Call, ctx *ir.AggregateContext) ir.Binding {
	if !c.Operator().IsAggregate {
		return binding.NewCall(c, s.typeOf)
	}
	if ctx == nil {
		return binding.NewCall(c, s.typeOf, binding.WithGroupCount(s.groupCount))
	}
	return binding.Aggregate(binding.NewCall(c, s.typeOf), ctx.GroupCount, ctx.HasFilter)
}

// inferOperands asks the operator to propose types for operands whose type
// is still unknown and records them.
func (s *Session) inferOperands(c *ir.Call, b ir.Binding) {
	op := c.Operator()
	if op.OperandInference == nil {
		return
	}
	unknown := false
	for i, o := range c.Operands {
		if !op.IsNonExprOperand(i) && !s.typeOf(o).IsKnown() {
			unknown = true
			break
		}
	}
	if !unknown {
		return
	}
	inferred := op.OperandInference(b, len(c.Operands))
	for i, o := range c.Operands {
		if i < len(inferred) {
			s.InferOperandType(o, inferred[i])
		}
	}
}

func (s *Session) checkQuantifier(c *ir.Call) error {
	if c.Quantifier == ir.QuantifierNone {
		return nil
	}
	op := c.Operator()
	if !op.IsAggregate || !op.AllowsDistinct {
		return ir.NewQuantifierError(c.Pos(), c.Quantifier, op.Name)
	}
	return nil
}

func checkAggregateContext(c *ir.Call, ctx *ir.AggregateContext) error {
	op := c.Operator()
	var windowed, ordered, filtered bool
	if ctx != nil {
		windowed, ordered, filtered = ctx.Windowed, ctx.Ordered, ctx.HasFilter
	}
	switch {
	case ctx != nil && ctx.WithinGroup && !op.AllowsWithinGroup:
		return ir.NewTypeCheckError(c.Pos(), 0, fmt.Sprintf("WITHIN GROUP is not allowed in a call to %s", op.Name))
	case filtered && !op.AllowsFilter:
		return aggregateUsageError(c.Pos(), "FILTER is not allowed in a call to %s", op.Name)
	case op.RequiresOrder && !windowed:
		return aggregateUsageError(c.Pos(), "%s requires an OVER clause", op.Name)
	case op.RequiresOrder && !ordered:
		return aggregateUsageError(c.Pos(), "%s requires a window with ORDER BY", op.Name)
	}
	return nil
}

func aggregateUsageError(pos ir.Pos, format string, args ...any) *ir.CompileError {
	return &ir.CompileError{
		Code:    ir.ErrCodeNotAggregate,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Operand: -1,
	}
}

func aggregateConstruct(ctx ir.AggregateContext) string {
	switch {
	case ctx.Windowed:
		return "OVER"
	case ctx.HasFilter:
		return "FILTER"
	}
	return "WITHIN GROUP"
}
