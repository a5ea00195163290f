package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/types"
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in a set of declarations.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Error codes for declaration validation
const (
	// E101: a parameter or return type does not parse
	ErrInvalidType = "E101"
	// E102: two parameters share a name
	ErrDuplicateParam = "E102"
	// E103: some parameters are named and others are not
	ErrPartialParamNames = "E103"
	// E104: a procedure is declared as an aggregate
	ErrAggregateProcedure = "E104"
	// E105: two overloads of a name have the same parameter types
	ErrDuplicateOverload = "E105"
	// E106: a routine reuses the name of a built-in function
	ErrShadowsBuiltin = "E106"
)

// Validate checks decls against each other and against base. A nil base
// skips the checks that need one. All errors are returned, in declaration
// order.
func Validate(decls []FunctionDecl, base *operators.Table) []ValidationError {
	var errs []ValidationError

	caseSensitive := base != nil && base.CaseSensitiveNames()
	seen := make(map[string]string)
	for _, d := range decls {
		errs = append(errs, validateTypes(d)...)
		errs = append(errs, validateParamNames(d)...)
		errs = append(errs, validateKind(d)...)

		sig, ok := declSignature(d, caseSensitive)
		if !ok {
			continue
		}
		if prev, dup := seen[sig]; dup {
			errs = append(errs, ValidationError{
				Field:   "function." + d.Name,
				Message: fmt.Sprintf("overload %s is declared twice (first as %s)", sig, prev),
				Code:    ErrDuplicateOverload,
				Line:    d.Pos.Line(),
			})
			continue
		}
		seen[sig] = d.Name
		if base != nil {
			errs = append(errs, validateAgainstBase(d, sig, base)...)
		}
	}

	return errs
}

// E101: every type specification parses
func validateTypes(d FunctionDecl) []ValidationError {
	var errs []ValidationError
	for i, p := range d.Params {
		if _, err := types.Parse(p.Type); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("function.%s.params[%d].type", d.Name, i),
				Message: err.Error(),
				Code:    ErrInvalidType,
				Line:    d.Pos.Line(),
			})
		}
	}
	if _, err := types.Parse(d.Returns); err != nil {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("function.%s.returns", d.Name),
			Message: err.Error(),
			Code:    ErrInvalidType,
			Line:    d.Pos.Line(),
		})
	}
	return errs
}

// E102, E103: parameter names are all present or all absent, and unique
func validateParamNames(d FunctionDecl) []ValidationError {
	var errs []ValidationError
	named := 0
	seen := make(map[string]bool)
	for i, p := range d.Params {
		if p.Name == "" {
			continue
		}
		named++
		key := strings.ToUpper(p.Name)
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("function.%s.params[%d].name", d.Name, i),
				Message: fmt.Sprintf("parameter %q is declared twice", p.Name),
				Code:    ErrDuplicateParam,
				Line:    d.Pos.Line(),
			})
		}
		seen[key] = true
	}
	if named > 0 && named < len(d.Params) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("function.%s.params", d.Name),
			Message: fmt.Sprintf("%d of %d parameters are named; name all or none", named, len(d.Params)),
			Code:    ErrPartialParamNames,
			Line:    d.Pos.Line(),
		})
	}
	return errs
}

// E104: procedures are never aggregates
func validateKind(d FunctionDecl) []ValidationError {
	if d.Procedure && d.Aggregate {
		return []ValidationError{{
			Field:   "function." + d.Name,
			Message: "a procedure cannot be an aggregate",
			Code:    ErrAggregateProcedure,
			Line:    d.Pos.Line(),
		}}
	}
	return nil
}

// E105, E106: no collision with the routines already in base
func validateAgainstBase(d FunctionDecl, sig string, base *operators.Table) []ValidationError {
	var errs []ValidationError
	for _, op := range base.Lookup(d.Name, ir.SyntaxFunction, ir.CategoryUnspecified) {
		switch op.Category {
		case ir.CategoryUserDefinedFunction, ir.CategoryUserDefinedProcedure:
			if s, ok := operatorSignature(op, base.CaseSensitiveNames()); ok && s == sig {
				errs = append(errs, ValidationError{
					Field:   "function." + d.Name,
					Message: fmt.Sprintf("overload %s is already registered", sig),
					Code:    ErrDuplicateOverload,
					Line:    d.Pos.Line(),
				})
			}
		default:
			errs = append(errs, ValidationError{
				Field:   "function." + d.Name,
				Message: fmt.Sprintf("%s is a built-in %s function", op.Name, op.Category),
				Code:    ErrShadowsBuiltin,
				Line:    d.Pos.Line(),
			})
			return errs
		}
	}
	return errs
}

func declSignature(d FunctionDecl, caseSensitive bool) (string, bool) {
	ts := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		t, err := types.Parse(p.Type)
		if err != nil {
			return "", false
		}
		ts[i] = t
	}
	return types.Signature(signatureName(d.Name, caseSensitive), ts), true
}

func operatorSignature(op *ir.Operator, caseSensitive bool) (string, bool) {
	if op.ParamTypes == nil {
		return "", false
	}
	return types.Signature(signatureName(op.Name, caseSensitive), op.ParamTypes), true
}

func signatureName(name string, caseSensitive bool) string {
	if caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}
