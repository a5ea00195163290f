package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/types"
)

//go:embed schema.cue
var schemaCUE string

// ParamDecl is one declared parameter.
type ParamDecl struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// FunctionDecl is a routine declaration with schema defaults applied.
type FunctionDecl struct {
	Name        string      `json:"-"`
	Params      []ParamDecl `json:"params"`
	Returns     string      `json:"returns"`
	Procedure   bool        `json:"procedure"`
	Aggregate   bool        `json:"aggregate"`
	Distinct    bool        `json:"distinct"`
	Filter      bool        `json:"filter"`
	Description string      `json:"description,omitempty"`
	Pos         token.Pos   `json:"-"`
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DecodeFunctions decodes every declaration under the "function" field of
// v, in source order. A missing field yields no declarations.
func DecodeFunctions(v cue.Value) ([]FunctionDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	fns := v.LookupPath(cue.ParsePath("function"))
	if !fns.Exists() {
		return nil, nil
	}
	iter, err := fns.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var decls []FunctionDecl
	for iter.Next() {
		ds, err := DecodeFunction(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, ds...)
	}
	return decls, nil
}

// DecodeFunction decodes the declaration, or list of overloads, bound to
// name.
func DecodeFunction(name string, v cue.Value) ([]FunctionDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema, err := functionSchema(v.Context())
	if err != nil {
		return nil, err
	}

	if v.IncompleteKind() != cue.ListKind {
		d, err := decodeOne(schema, name, v)
		if err != nil {
			return nil, err
		}
		return []FunctionDecl{d}, nil
	}

	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var decls []FunctionDecl
	for list.Next() {
		d, err := decodeOne(schema, name, list.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, &CompileError{
			Field:   "function." + name,
			Message: "overload list is empty",
			Pos:     v.Pos(),
		}
	}
	return decls, nil
}

func functionSchema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile function schema: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#Function")), nil
}

func decodeOne(schema cue.Value, name string, v cue.Value) (FunctionDecl, error) {
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return FunctionDecl{}, formatCUEError(err)
	}
	var d FunctionDecl
	if err := u.Decode(&d); err != nil {
		return FunctionDecl{}, formatCUEError(err)
	}
	d.Name = name
	d.Pos = v.Pos()
	return d, nil
}

// CompileFunction builds the descriptor of one declaration. Type
// specifications that do not parse are CompileErrors.
func CompileFunction(d FunctionDecl) (*ir.Operator, error) {
	r := operators.Routine{
		Name:      d.Name,
		Params:    make([]types.Type, len(d.Params)),
		Procedure: d.Procedure,
		Aggregate: d.Aggregate,
		Distinct:  d.Distinct,
		Filter:    d.Filter,
	}
	for i, p := range d.Params {
		t, err := types.Parse(p.Type)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("function.%s.params[%d].type", d.Name, i),
				Message: err.Error(),
				Pos:     d.Pos,
			}
		}
		r.Params[i] = t
	}
	if names := paramNames(d); names != nil {
		r.ParamNames = names
	}
	ret, err := types.Parse(d.Returns)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("function.%s.returns", d.Name),
			Message: err.Error(),
			Pos:     d.Pos,
		}
	}
	r.Returns = ret
	return operators.NewRoutine(r), nil
}

// paramNames returns the parameter names when every parameter is named.
func paramNames(d FunctionDecl) []string {
	if len(d.Params) == 0 {
		return nil
	}
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		if p.Name == "" {
			return nil
		}
		names[i] = p.Name
	}
	return names
}

// CompileFunctions decodes, validates and compiles every declaration in v.
// Validation problems are returned together as ValidationErrors.
func CompileFunctions(v cue.Value, base *operators.Table) ([]*ir.Operator, error) {
	decls, err := DecodeFunctions(v)
	if err != nil {
		return nil, err
	}
	if errs := Validate(decls, base); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	ops := make([]*ir.Operator, 0, len(decls))
	for _, d := range decls {
		op, err := CompileFunction(d)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	ce := &CompileError{Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
