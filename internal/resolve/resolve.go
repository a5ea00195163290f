// Package resolve selects the routine a function call refers to.
//
// Resolution narrows the overloads of a name in passes:
//
//  1. lookup by name, syntax and category
//  2. keep routines whose operand count range accepts the argument count
//     (user-defined procedures stop here: they overload on count only)
//  3. keep routines whose declared parameter types accept the argument
//     types; arguments passed by name are permuted into parameter order
//  4. stop if fewer than two remain
//  5. for each argument from left to right, keep only the routines whose
//     parameter type ranks best in the argument type's precedence list
//  6. keep routines of the requested kind
//
// Exactly one survivor is a match. None is NO_MATCH, more than one is
// AMBIGUOUS_CALL. Routines without declared parameter types (most
// builtins) survive pass 3 and are checked later by their operand checker.
package resolve

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/types"
)

// Request describes one call to resolve.
type Request struct {
	Name string

	// ArgTypes are the derived argument types in call order. Unknown
	// types (uninferred dynamic parameters) match any parameter.
	ArgTypes []types.Type

	// ArgNames holds the parameter name of each argument when the call
	// passes arguments by name, nil for positional calls.
	ArgNames []string

	Category ir.Category
	Syntax   ir.Syntax

	// Kind restricts the final pass to routines of one kind. KindOther
	// disables the kind filter.
	Kind ir.Kind

	Pos ir.Pos
}

// Signature renders the call as "NAME(TYPE, ...)".
func (r Request) Signature() string {
	return types.Signature(r.Name, r.ArgTypes)
}

// Resolver looks up routines in one operator table.
type Resolver struct {
	table *operators.Table
}

// New returns a resolver over table.
func New(table *operators.Table) *Resolver {
	return &Resolver{table: table}
}

// Table returns the table the resolver searches.
func (r *Resolver) Table() *operators.Table {
	return r.table
}

// Resolve returns the unique routine matching req.
func (r *Resolver) Resolve(req Request) (*ir.Operator, error) {
	candidates := r.Candidates(req)
	switch len(candidates) {
	case 0:
		slog.Debug("no routine matched",
			"name", req.Name,
			"signature", req.Signature())
		return nil, ir.NewNoMatchError(req.Pos, req.Signature())
	case 1:
		slog.Debug("routine resolved",
			"name", req.Name,
			"signature", req.Signature(),
			"syntax", candidates[0].Syntax)
		return candidates[0], nil
	}
	names := make([]string, len(candidates))
	for i, op := range candidates {
		names[i] = routineSignature(op)
	}
	return nil, ir.NewAmbiguousError(req.Pos, req.Signature(), names)
}

func routineSignature(op *ir.Operator) string {
	if op.ParamTypes == nil {
		return fmt.Sprintf("%s/%s", op.Name, op.Syntax)
	}
	return types.Signature(op.Name, op.ParamTypes)
}

// Candidates runs every resolution pass and returns the survivors in
// registration order.
func (r *Resolver) Candidates(req Request) []*ir.Operator {
	routines := r.table.Lookup(req.Name, req.Syntax, req.Category)
	routines = filterByCount(routines, len(req.ArgTypes))

	if req.Category == ir.CategoryUserDefinedProcedure {
		return routines
	}

	routines = filterByParamType(req, routines)
	if len(routines) < 2 {
		return routines
	}

	routines = filterByTypePrecedence(req, routines)
	return filterByKind(routines, req.Kind)
}

// MatchByParameterCount reports whether any function named name accepts
// n arguments, ignoring types.
func (r *Resolver) MatchByParameterCount(name string, n int, category ir.Category) bool {
	routines := r.table.Lookup(name, ir.SyntaxFunction, category)
	return len(filterByCount(routines, n)) > 0
}

func filterByCount(routines []*ir.Operator, n int) []*ir.Operator {
	var out []*ir.Operator
	for _, op := range routines {
		if op.OperandCountRange().IsValid(n) {
			out = append(out, op)
		}
	}
	return out
}

func filterByParamType(req Request, routines []*ir.Operator) []*ir.Operator {
	if req.Syntax != ir.SyntaxFunction {
		return routines
	}
	var out []*ir.Operator
	for _, op := range routines {
		if acceptsArgs(op, req) {
			out = append(out, op)
		}
	}
	return out
}

func acceptsArgs(op *ir.Operator, req Request) bool {
	if op.ParamTypes == nil {
		return true
	}
	args, ok := PermuteArgTypes(op, req.ArgTypes, req.ArgNames)
	if !ok {
		return false
	}
	for i, param := range op.ParamTypes {
		if i >= len(args) {
			break
		}
		arg := args[i]
		if !arg.IsKnown() {
			continue
		}
		if !types.CanAssignFrom(param, arg) {
			return false
		}
	}
	return true
}

// PermuteArgTypes maps argument types onto the parameters of op. For
// positional calls it returns argTypes unchanged. For named calls each
// name must be a parameter of op; parameters without an argument get the
// unknown type.
func PermuteArgTypes(op *ir.Operator, argTypes []types.Type, argNames []string) ([]types.Type, bool) {
	if argNames == nil {
		return argTypes, true
	}
	out := make([]types.Type, len(op.ParamTypes))
	for i := range out {
		out[i] = types.UnknownType()
	}
	for i, name := range argNames {
		p := ParamIndex(op, name)
		if p < 0 || i >= len(argTypes) {
			return nil, false
		}
		out[p] = argTypes[i]
	}
	return out, true
}

// ParamIndex returns the index of the parameter called name, or -1.
// Parameter names compare case-insensitively.
func ParamIndex(op *ir.Operator, name string) int {
	for i, p := range op.ParamNames {
		if strings.EqualFold(p, name) {
			return i
		}
	}
	return -1
}

func filterByTypePrecedence(req Request, routines []*ir.Operator) []*ir.Operator {
	if req.Syntax != ir.SyntaxFunction {
		return routines
	}
	for i, arg := range req.ArgTypes {
		prec := types.PrecedenceListOf(arg)
		best, ok := bestMatch(routines, i, prec)
		if !ok {
			continue
		}
		var kept []*ir.Operator
		for _, op := range routines {
			param, ok := paramType(op, i)
			if ok && prec.Compare(param, best) >= 0 {
				kept = append(kept, op)
			}
		}
		routines = kept
	}
	return routines
}

// bestMatch returns the parameter type at position i that ranks highest in
// prec among the routines that declare one.
func bestMatch(routines []*ir.Operator, i int, prec types.PrecedenceList) (types.Type, bool) {
	var best types.Type
	found := false
	for _, op := range routines {
		param, ok := paramType(op, i)
		if !ok {
			continue
		}
		if !found || prec.Compare(best, param) < 0 {
			best = param
			found = true
		}
	}
	return best, found
}

func paramType(op *ir.Operator, i int) (types.Type, bool) {
	if i < 0 || i >= len(op.ParamTypes) {
		return types.Type{}, false
	}
	return op.ParamTypes[i], true
}

func filterByKind(routines []*ir.Operator, kind ir.Kind) []*ir.Operator {
	if kind == ir.KindOther {
		return routines
	}
	var out []*ir.Operator
	for _, op := range routines {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}
