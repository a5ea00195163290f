package operators

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
)

// Table is an immutable operator registry. A *Table is a cheap handle that
// any number of sessions may share; nothing in it changes after Freeze.
type Table struct {
	ops           []*ir.Operator
	byName        map[string][]*ir.Operator
	caseSensitive bool
}

// Builder collects operators before freezing them into a Table.
type Builder struct {
	ops           []*ir.Operator
	caseSensitive bool
	frozen        bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCaseSensitiveNames makes name lookup case-sensitive.
func WithCaseSensitiveNames(on bool) BuilderOption {
	return func(b *Builder) { b.caseSensitive = on }
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register appends an operator. It panics with ir.InvariantViolation when
// the descriptor breaks a table contract: a special operator without a
// reduce hook, an unnamed operator, mismatched parameter metadata, or
// registration after Freeze.
func (b *Builder) Register(op *ir.Operator) *Builder {
	if b.frozen {
		panic(ir.InvariantViolation{Message: fmt.Sprintf("register %s after freeze", op.Name)})
	}
	if err := checkDescriptor(op); err != nil {
		panic(ir.InvariantViolation{Message: err.Error()})
	}
	b.ops = append(b.ops, op)
	return b
}

// RegisterAll registers each operator in order.
func (b *Builder) RegisterAll(ops ...*ir.Operator) *Builder {
	for _, op := range ops {
		b.Register(op)
	}
	return b
}

func checkDescriptor(op *ir.Operator) error {
	switch {
	case op == nil:
		return fmt.Errorf("nil operator")
	case op.Name == "":
		return fmt.Errorf("operator without a name")
	case op.Syntax == ir.SyntaxSpecial && op.Reduce == nil:
		return fmt.Errorf("special operator %s has no reduce hook", op.Name)
	case op.LeftPrec < 0 || op.RightPrec < 0:
		return fmt.Errorf("operator %s has negative precedence", op.Name)
	case op.ParamNames != nil && len(op.ParamNames) != len(op.ParamTypes):
		return fmt.Errorf("operator %s declares %d parameter names for %d parameter types", op.Name, len(op.ParamNames), len(op.ParamTypes))
	case op.Placeholder:
		return fmt.Errorf("placeholder %s cannot be registered", op.Name)
	}
	return nil
}

// Freeze returns the immutable table. The builder cannot be used after.
func (b *Builder) Freeze() *Table {
	if b.frozen {
		panic(ir.InvariantViolation{Message: "builder frozen twice"})
	}
	b.frozen = true
	t := &Table{
		ops:           slices.Clone(b.ops),
		byName:        make(map[string][]*ir.Operator, len(b.ops)),
		caseSensitive: b.caseSensitive,
	}
	for _, op := range t.ops {
		k := t.key(op.Name)
		t.byName[k] = append(t.byName[k], op)
	}
	return t
}

// Extend returns a builder seeded with every operator of t, for layering
// user-defined functions on top of a base table.
func (t *Table) Extend() *Builder {
	return &Builder{ops: slices.Clone(t.ops), caseSensitive: t.caseSensitive}
}

func (t *Table) key(name string) string {
	if t.caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

// CaseSensitiveNames reports whether lookups match names exactly.
func (t *Table) CaseSensitiveNames() bool {
	return t.caseSensitive
}

// Len returns the number of registered operators.
func (t *Table) Len() int {
	return len(t.ops)
}

// All returns every operator in registration order.
func (t *Table) All() []*ir.Operator {
	return slices.Clone(t.ops)
}

// Lookup returns the overloads of name. SyntaxFunction matches every
// function-like syntax; other syntaxes match exactly. CategoryUnspecified
// matches every category.
func (t *Table) Lookup(name string, syntax ir.Syntax, category ir.Category) []*ir.Operator {
	var out []*ir.Operator
	for _, op := range t.byName[t.key(name)] {
		if !op.Category.Matches(category) {
			continue
		}
		if syntax == ir.SyntaxFunction {
			if op.Syntax.IsFunctionLike() {
				out = append(out, op)
			}
			continue
		}
		if op.Syntax == syntax {
			out = append(out, op)
		}
	}
	return out
}

// LookupByNameAndArity returns every operator named name whose syntax and
// operand count range accept arity operands.
func (t *Table) LookupByNameAndArity(name string, arity int) []*ir.Operator {
	var out []*ir.Operator
	for _, op := range t.byName[t.key(name)] {
		if op.OperandCountRange().IsValid(arity) {
			out = append(out, op)
		}
	}
	return out
}

// Operator returns the single operator with the given name and syntax, or
// nil. Used by front ends to map tokens onto descriptors.
func (t *Table) Operator(name string, syntax ir.Syntax) *ir.Operator {
	for _, op := range t.byName[t.key(name)] {
		if op.Syntax == syntax {
			return op
		}
	}
	return nil
}

// Names returns the distinct operator names, sorted.
func (t *Table) Names() []string {
	seen := make(map[string]bool, len(t.ops))
	var names []string
	for _, op := range t.ops {
		if !seen[op.Name] {
			seen[op.Name] = true
			names = append(names, op.Name)
		}
	}
	slices.Sort(names)
	return names
}
