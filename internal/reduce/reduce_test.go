package reduce

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
	"github.com/roach88/polyexpr/internal/operators"
)

// tokens maps test words to operators. Unary minus is spelled "neg".
var tokens = map[string]*ir.Operator{
	"+": operators.Plus, "-": operators.Minus, "*": operators.Times, "/": operators.Divide,
	"neg": operators.UnaryMinus, "=": operators.Equals, "<": operators.LessThan,
	"AND": operators.And, "OR": operators.Or, "NOT": operators.Not, "LIKE": operators.Like,
	"IS NULL": operators.IsNull, "BETWEEN": operators.Between, "NOT BETWEEN": operators.NotBetween,
	"CASE": operators.Case, "WHEN": operators.When, "THEN": operators.Then,
	"ELSE": operators.Else, "END": operators.End, "AS": operators.As,
	"FILTER": operators.Filter, "OVER": operators.Over, "WITHIN GROUP": operators.WithinGroup,
}

// seq builds entries: operator words from tokens, numbers and quoted
// strings as literals, other words as identifiers, nodes as operands.
func seq(items ...any) []Entry {
	out := make([]Entry, 0, len(items))
	for i, it := range items {
		pos := ir.Pos{Line: 1, Column: i + 1}
		switch v := it.(type) {
		case ir.Node:
			out = append(out, Operand(v))
		case int:
			out = append(out, Operand(ir.NewLiteral(literal.NewExactInt(int64(v)), pos)))
		case string:
			if op, ok := tokens[v]; ok {
				out = append(out, Operator(op, pos))
			} else if strings.HasPrefix(v, "'") {
				out = append(out, Operand(ir.NewLiteral(literal.MustParse(v), pos)))
			} else {
				out = append(out, Operand(ir.NewIdentifier(strings.Split(v, "."), pos)))
			}
		default:
			panic(fmt.Sprintf("unexpected item %T", it))
		}
	}
	return out
}

// sexpr renders a tree fully parenthesized: OP(a, b), lists as [a, b].
func sexpr(n ir.Node) string {
	switch n := n.(type) {
	case *ir.LiteralNode:
		return n.Value.String()
	case *ir.Identifier:
		return n.String()
	case *ir.DynamicParam:
		return "?"
	case *ir.NodeList:
		parts := make([]string, len(n.Items))
		for i, it := range n.Items {
			parts[i] = sexpr(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ir.Call:
		parts := make([]string, len(n.Operands))
		for i, o := range n.Operands {
			parts[i] = sexpr(o)
		}
		return n.Operator().Name + "(" + strings.Join(parts, ", ") + ")"
	}
	return "<nil>"
}

func id(name string) *ir.Identifier {
	return ir.NewIdentifier([]string{name}, ir.Pos{Line: 1, Column: 1})
}

func call(op *ir.Operator, operands ...ir.Node) *ir.Call {
	return ir.NewCall(op, operands, ir.Pos{Line: 1, Column: 1})
}

func TestReducePrecedence(t *testing.T) {
	testCases := []struct {
		name  string
		input []any
		want  string
	}{
		{name: "multiplication binds tighter", input: []any{"a", "+", "b", "*", "c"}, want: "+(a, *(b, c))"},
		{name: "multiplication first", input: []any{"a", "*", "b", "+", "c"}, want: "+(*(a, b), c)"},
		{name: "left associative", input: []any{"a", "-", "b", "-", "c"}, want: "-(-(a, b), c)"},
		{name: "right associative", input: []any{"a", "LIKE", "b", "LIKE", "c"}, want: "LIKE(a, LIKE(b, c))"},
		{name: "unary minus", input: []any{"neg", "a", "*", "b"}, want: "*(-(a), b)"},
		{name: "unary minus operand", input: []any{"a", "*", "neg", "b"}, want: "*(a, -(b))"},
		{name: "double negation", input: []any{"neg", "neg", "a"}, want: "-(-(a))"},
		{name: "not over comparison", input: []any{"NOT", "a", "=", "b"}, want: "NOT(=(a, b))"},
		{name: "not under and", input: []any{"NOT", "a", "AND", "b"}, want: "AND(NOT(a), b)"},
		{name: "and over or", input: []any{"a", "OR", "b", "AND", "c"}, want: "OR(a, AND(b, c))"},
		{name: "postfix after comparison", input: []any{"a", "=", "b", "IS NULL"}, want: "IS NULL(=(a, b))"},
		{name: "postfix then and", input: []any{"a", "IS NULL", "AND", "b"}, want: "AND(IS NULL(a), b)"},
		{name: "single operand", input: []any{"a"}, want: "a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Reduce(seq(tc.input...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, sexpr(n))
		})
	}
}

func TestReduceSpecialConstructs(t *testing.T) {
	count := call(operators.Count, id("x"))
	window := operators.NewWindow([]ir.Node{id("k")}, []ir.Node{id("o")}, ir.Pos{Line: 1, Column: 1})
	listagg := call(operators.ListAgg, id("s"))
	order := ir.NewNodeList([]ir.Node{id("s")}, ir.Pos{})
	unresolved := call(operators.Placeholder("MYAGG"), id("a"))

	testCases := []struct {
		name  string
		input []any
		want  string
	}{
		{
			name:  "between then comparison",
			input: []any{"a", "BETWEEN", "b", "AND", "c", "<", "d"},
			want:  "<(BETWEEN(a, b, c), d)",
		},
		{
			name:  "between with arithmetic bounds",
			input: []any{"a", "BETWEEN", "b", "+", 1, "AND", "c", "*", 2, "OR", "e"},
			want:  "OR(BETWEEN(a, +(b, 1), *(c, 2)), e)",
		},
		{
			name:  "not between inside and",
			input: []any{"x", "NOT BETWEEN", 1, "AND", 2, "AND", "y"},
			want:  "AND(NOT BETWEEN(x, 1, 2), y)",
		},
		{
			name:  "between negative bound",
			input: []any{"x", "BETWEEN", "neg", 1, "AND", 1},
			want:  "BETWEEN(x, -(1), 1)",
		},
		{
			name:  "searched case",
			input: []any{"CASE", "WHEN", "a", "THEN", 1, "ELSE", 2, "END"},
			want:  "CASE([a], [1], 2)",
		},
		{
			name:  "simple case",
			input: []any{"CASE", "x", "WHEN", 1, "THEN", "'a'", "WHEN", 2, "THEN", "'b'", "END"},
			want:  "CASE([=(x, 1), =(x, 2)], ['a', 'b'], NULL)",
		},
		{
			name: "nested case",
			input: []any{"CASE", "WHEN", "CASE", "WHEN", "p", "THEN", "q", "END", "THEN", "a", "+", 1,
				"ELSE", "b", "END", "*", 3},
			want: "*(CASE([CASE([p], [q], NULL)], [+(a, 1)], b), 3)",
		},
		{
			name:  "case condition with and",
			input: []any{"CASE", "WHEN", "a", "AND", "b", "THEN", 1, "END"},
			want:  "CASE([AND(a, b)], [1], NULL)",
		},
		{
			name:  "alias",
			input: []any{"a", "+", "b", "AS", "c"},
			want:  "AS(+(a, b), c)",
		},
		{
			name:  "alias with columns",
			input: []any{"t", "AS", "u", ir.NewNodeList([]ir.Node{id("x"), id("y")}, ir.Pos{})},
			want:  "AS(t, u, [x, y])",
		},
		{
			name:  "filter",
			input: []any{count, "FILTER", "p", "AND", "q"},
			want:  "AND(FILTER(COUNT(x), p), q)",
		},
		{
			name:  "filter then over",
			input: []any{count, "FILTER", "p", "OVER", window},
			want:  "OVER(FILTER(COUNT(x), p), WINDOW([k], [o]))",
		},
		{
			name:  "filter on unresolved function",
			input: []any{unresolved, "FILTER", "p"},
			want:  "FILTER(MYAGG(a), p)",
		},
		{
			name:  "over on unresolved function",
			input: []any{unresolved, "OVER", window},
			want:  "OVER(MYAGG(a), WINDOW([k], [o]))",
		},
		{
			name:  "within group on unresolved function",
			input: []any{unresolved, "WITHIN GROUP", order},
			want:  "WITHIN GROUP(MYAGG(a), [s])",
		},
		{
			name:  "within group then filter",
			input: []any{listagg, "WITHIN GROUP", order, "FILTER", "p"},
			want:  "FILTER(WITHIN GROUP(LISTAGG(s), [s]), p)",
		},
		{
			name:  "over named window in arithmetic",
			input: []any{1, "+", call(operators.RowNumber), "OVER", "w"},
			want:  "+(1, OVER(ROW_NUMBER(), w))",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Reduce(seq(tc.input...))
			require.NoError(t, err)
			assert.Equal(t, tc.want, sexpr(n))
		})
	}
}

func TestReduceErrors(t *testing.T) {
	testCases := []struct {
		name    string
		input   []any
		code    ir.ErrorCode
		message string
	}{
		{name: "empty", input: nil, code: ir.ErrCodeReduction, message: "empty expression"},
		{name: "adjacent operands", input: []any{"a", "b"}, code: ir.ErrCodeReduction, message: "cannot reduce [a b]"},
		{name: "dangling operator", input: []any{"a", "+"}, code: ir.ErrCodeReduction, message: "cannot reduce [a +]"},
		{name: "lone operator", input: []any{"AND"}, code: ir.ErrCodeReduction, message: "cannot reduce [AND]"},
		{name: "stray when", input: []any{"WHEN", "a"}, code: ir.ErrCodeReduction, message: "WHEN without CASE"},
		{name: "stray end", input: []any{"a", "END"}, code: ir.ErrCodeReduction, message: "END without CASE"},
		{name: "case without end", input: []any{"CASE", "WHEN", "a", "THEN", 1}, code: ir.ErrCodeReduction, message: "CASE requires END"},
		{name: "case without when", input: []any{"CASE", "ELSE", 1, "END"}, code: ir.ErrCodeReduction, message: "missing operand before ELSE"},
		{name: "when without then", input: []any{"CASE", "WHEN", "a", "ELSE", 1, "END"}, code: ir.ErrCodeReduction, message: "WHEN requires THEN"},
		{name: "between without and", input: []any{"a", "BETWEEN", "b"}, code: ir.ErrCodeReduction, message: "BETWEEN requires AND"},
		{name: "between without upper", input: []any{"a", "BETWEEN", "b", "AND"}, code: ir.ErrCodeReduction, message: "BETWEEN requires an upper bound"},
		{name: "between without left", input: []any{"BETWEEN", "b", "AND", "c"}, code: ir.ErrCodeReduction, message: "BETWEEN requires a left operand"},
		{name: "qualified alias", input: []any{"a", "AS", "t.c"}, code: ir.ErrCodeReduction, message: "AS requires a simple identifier alias"},
		{name: "filter on column", input: []any{"a", "FILTER", "p"}, code: ir.ErrCodeNotAggregate, message: "FILTER must be applied to an aggregate function, got a"},
		{name: "filter on scalar call", input: []any{call(operators.Abs, id("a")), "FILTER", "p"}, code: ir.ErrCodeNotAggregate, message: "FILTER must be applied to an aggregate function, got ABS(a)"},
		{name: "over literal", input: []any{call(operators.Count, id("a")), "OVER", 1}, code: ir.ErrCodeReduction, message: "OVER requires a window, got 1"},
		{name: "within group on column", input: []any{"a", "WITHIN GROUP", "b"}, code: ir.ErrCodeNotAggregate, message: "WITHIN GROUP must be applied to an aggregate function, got a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reduce(seq(tc.input...))
			require.Error(t, err)
			var ce *ir.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.code, ce.Code)
			assert.Equal(t, tc.message, ce.Message)
		})
	}
}

func TestReduceDepthLimit(t *testing.T) {
	input := []any{"a"}
	for i := 0; i < 5; i++ {
		input = append(input, "+", "b")
	}

	_, err := New(WithMaxDepth(4)).Reduce(seq(input...))
	require.Error(t, err)
	assert.True(t, ir.IsDepthError(err))

	n, err := New(WithMaxDepth(6)).Reduce(seq(input...))
	require.NoError(t, err)
	assert.Equal(t, 6, ir.Depth(n))

	deep := make([]any, 0, 400)
	for i := 0; i < 300; i++ {
		deep = append(deep, "neg")
	}
	_, err = Reduce(seq(append(deep, "a")...))
	assert.True(t, ir.IsDepthError(err))

	assert.Equal(t, DefaultMaxDepth, New(WithMaxDepth(0)).MaxDepth())
}

func TestReduceDepthLimitFailsEarly(t *testing.T) {
	testCases := []struct {
		name  string
		input func(n int) []any
	}{
		{
			name: "left-associative chain",
			input: func(n int) []any {
				out := []any{1}
				for i := 0; i < n; i++ {
					out = append(out, "+", 1)
				}
				return out
			},
		},
		{
			name: "prefix chain",
			input: func(n int) []any {
				out := make([]any, 0, n+1)
				for i := 0; i < n; i++ {
					out = append(out, "neg")
				}
				return append(out, 1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries := seq(tc.input(20000)...)
			start := time.Now()
			_, err := New(WithMaxDepth(32)).Reduce(entries)
			elapsed := time.Since(start)

			require.Error(t, err)
			var ce *ir.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ir.ErrCodeDepthExceeded, ce.Code)
			assert.Less(t, elapsed, time.Second)
		})
	}
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	entries := seq("a", "BETWEEN", "b", "AND", "c")
	snapshot := append([]Entry(nil), entries...)
	_, err := Reduce(entries)
	require.NoError(t, err)
	assert.Equal(t, snapshot, entries)
}

func TestReduceHookMustShrink(t *testing.T) {
	stall := &ir.Operator{
		Name: "STALL", Syntax: ir.SyntaxSpecial, LeftPrec: 50, RightPrec: 50,
		Reduce: func(seq ir.Sequence, i int) (ir.Reduction, error) {
			return ir.Reduction{Start: i, End: i, Node: id("x")}, nil
		},
	}
	assert.PanicsWithValue(t, ir.InvariantViolation{Message: "reducing STALL did not shrink the sequence"}, func() {
		_, _ = Reduce([]Entry{Operand(id("a")), Operator(stall, ir.Pos{}), Operand(id("b"))})
	})

	bad := &ir.Operator{
		Name: "BAD", Syntax: ir.SyntaxSpecial, LeftPrec: 50, RightPrec: 50,
		Reduce: func(seq ir.Sequence, i int) (ir.Reduction, error) {
			return ir.Reduction{Start: i, End: i + 5}, nil
		},
	}
	assert.Panics(t, func() {
		_, _ = Reduce([]Entry{Operand(id("a")), Operator(bad, ir.Pos{})})
	})
}

func TestReduceKeepsOperatorPositions(t *testing.T) {
	n, err := Reduce(seq("a", "+", "b"))
	require.NoError(t, err)
	assert.Equal(t, ir.Pos{Line: 1, Column: 2}, n.Pos())
}
