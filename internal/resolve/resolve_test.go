package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/types"
)

func routine(name string, cat ir.Category, params ...string) *ir.Operator {
	ts := make([]types.Type, len(params))
	for i, p := range params {
		ts[i] = types.MustParse(p)
	}
	return &ir.Operator{
		Name: name, Kind: ir.KindOtherFunction, Syntax: ir.SyntaxFunction,
		LeftPrec: 100, RightPrec: 100, Category: cat,
		ParamTypes: ts, ReturnType: operators.ExplicitType(types.IntegerType(true)),
	}
}

func udf(name string, params ...string) *ir.Operator {
	return routine(name, ir.CategoryUserDefinedFunction, params...)
}

func argTypes(specs ...string) []types.Type {
	ts := make([]types.Type, len(specs))
	for i, s := range specs {
		ts[i] = types.MustParse(s)
	}
	return ts
}

var (
	fInt     = udf("F", "INTEGER")
	fBigInt  = udf("F", "BIGINT")
	fVarchar = udf("F", "VARCHAR")
	gOne     = udf("G", "INTEGER")
	gTwo     = udf("G", "INTEGER", "INTEGER")
	hNamed   = func() *ir.Operator {
		op := udf("H", "INTEGER", "VARCHAR")
		op.ParamNames = []string{"a", "b"}
		return op
	}()
	pInt     = routine("P", ir.CategoryUserDefinedProcedure, "INTEGER")
	pVarchar = routine("P", ir.CategoryUserDefinedProcedure, "VARCHAR")
)

func testResolver() *Resolver {
	table := operators.Standard().Extend().
		RegisterAll(fInt, fBigInt, fVarchar, gOne, gTwo, hNamed, pInt, pVarchar).
		Freeze()
	return New(table)
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
		want *ir.Operator
	}{
		{
			name: "exact parameter type",
			req:  Request{Name: "F", ArgTypes: argTypes("INTEGER"), Syntax: ir.SyntaxFunction},
			want: fInt,
		},
		{
			name: "closest widening wins",
			req:  Request{Name: "F", ArgTypes: argTypes("SMALLINT NOT NULL"), Syntax: ir.SyntaxFunction},
			want: fInt,
		},
		{
			name: "bigint does not narrow",
			req:  Request{Name: "f", ArgTypes: argTypes("BIGINT"), Syntax: ir.SyntaxFunction},
			want: fBigInt,
		},
		{
			name: "character family",
			req:  Request{Name: "F", ArgTypes: argTypes("CHAR(3)"), Syntax: ir.SyntaxFunction},
			want: fVarchar,
		},
		{
			name: "arity selects overload",
			req:  Request{Name: "G", ArgTypes: argTypes("INTEGER", "INTEGER"), Syntax: ir.SyntaxFunction},
			want: gTwo,
		},
		{
			name: "builtin without parameter types",
			req:  Request{Name: "abs", ArgTypes: argTypes("DECIMAL(4, 2)"), Syntax: ir.SyntaxFunction},
			want: operators.Abs,
		},
		{
			name: "prefix syntax is exact",
			req:  Request{Name: "-", ArgTypes: argTypes("INTEGER"), Syntax: ir.SyntaxPrefix},
			want: operators.UnaryMinus,
		},
		{
			name: "named arguments are permuted",
			req: Request{
				Name: "H", ArgTypes: argTypes("VARCHAR(5)", "INTEGER"),
				ArgNames: []string{"b", "A"}, Syntax: ir.SyntaxFunction,
			},
			want: hNamed,
		},
	}

	r := testResolver()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.req)
			require.NoError(t, err)
			assert.Same(t, tc.want, got)
		})
	}
}

func TestResolveFailures(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		code    ir.ErrorCode
		message string
	}{
		{
			name:    "no overload accepts the type",
			req:     Request{Name: "F", ArgTypes: argTypes("DATE"), Syntax: ir.SyntaxFunction},
			code:    ir.ErrCodeNoMatch,
			message: "No match found for function signature F(DATE)",
		},
		{
			name:    "unknown function",
			req:     Request{Name: "FOO", ArgTypes: argTypes("INTEGER", "VARCHAR(3)"), Syntax: ir.SyntaxFunction},
			code:    ir.ErrCodeNoMatch,
			message: "No match found for function signature FOO(INTEGER, VARCHAR)",
		},
		{
			name: "wrong arity",
			req:  Request{Name: "G", ArgTypes: argTypes("INTEGER", "INTEGER", "INTEGER"), Syntax: ir.SyntaxFunction},
			code: ir.ErrCodeNoMatch,
		},
		{
			name: "approximate argument ties",
			req:  Request{Name: "F", ArgTypes: argTypes("DOUBLE"), Syntax: ir.SyntaxFunction},
			code: ir.ErrCodeAmbiguous,
		},
		{
			name: "unknown argument matches every overload",
			req:  Request{Name: "F", ArgTypes: argTypes("UNKNOWN"), Syntax: ir.SyntaxFunction},
			code: ir.ErrCodeAmbiguous,
		},
		{
			name: "named argument type mismatch",
			req: Request{
				Name: "H", ArgTypes: argTypes("INTEGER", "VARCHAR(5)"),
				ArgNames: []string{"b", "a"}, Syntax: ir.SyntaxFunction,
			},
			code: ir.ErrCodeNoMatch,
		},
		{
			name: "unknown parameter name",
			req: Request{
				Name: "H", ArgTypes: argTypes("INTEGER", "VARCHAR(5)"),
				ArgNames: []string{"a", "c"}, Syntax: ir.SyntaxFunction,
			},
			code: ir.ErrCodeNoMatch,
		},
	}

	r := testResolver()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.req)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tc.code, ir.ErrorCodeOf(err))
			if tc.message != "" {
				var ce *ir.CompileError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tc.message, ce.Message)
			}
		})
	}
}

func TestAmbiguousListsCandidates(t *testing.T) {
	_, err := testResolver().Resolve(Request{
		Name: "F", ArgTypes: argTypes("DOUBLE"), Syntax: ir.SyntaxFunction,
		Pos: ir.Pos{Line: 1, Column: 8},
	})
	var ce *ir.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "F(DOUBLE)", ce.Details["signature"])
	assert.Contains(t, ce.Message, "F(INTEGER)")
	assert.Contains(t, ce.Message, "F(BIGINT)")
	assert.NotContains(t, ce.Message, "F(VARCHAR)")
	assert.Equal(t, ir.Pos{Line: 1, Column: 8}, ce.Pos)
}

func TestProceduresOverloadOnCountOnly(t *testing.T) {
	r := testResolver()
	req := Request{
		Name: "P", ArgTypes: argTypes("INTEGER"),
		Category: ir.CategoryUserDefinedProcedure, Syntax: ir.SyntaxFunction,
	}
	assert.Equal(t, []*ir.Operator{pInt, pVarchar}, r.Candidates(req))

	req.Category = ir.CategoryUserDefinedFunction
	assert.Empty(t, r.Candidates(req))
}

func TestKindFilter(t *testing.T) {
	plain := udf("K", "INTEGER")
	tagged := udf("K", "INTEGER")
	tagged.Kind = ir.KindSum
	r := New(operators.NewBuilder().RegisterAll(plain, tagged).Freeze())

	req := Request{Name: "K", ArgTypes: argTypes("INTEGER"), Syntax: ir.SyntaxFunction}
	_, err := r.Resolve(req)
	assert.True(t, ir.IsAmbiguousError(err))

	req.Kind = ir.KindOtherFunction
	got, err := r.Resolve(req)
	require.NoError(t, err)
	assert.Same(t, plain, got)
}

func TestResolveIsDeterministic(t *testing.T) {
	r := testResolver()
	req := Request{Name: "F", ArgTypes: argTypes("TINYINT"), Syntax: ir.SyntaxFunction}
	first, err := r.Resolve(req)
	require.NoError(t, err)
	for range 50 {
		got, err := r.Resolve(req)
		require.NoError(t, err)
		assert.Same(t, first, got)
	}
}

func TestMatchByParameterCount(t *testing.T) {
	r := testResolver()
	assert.True(t, r.MatchByParameterCount("G", 2, ir.CategoryUnspecified))
	assert.False(t, r.MatchByParameterCount("G", 3, ir.CategoryUnspecified))
	assert.False(t, r.MatchByParameterCount("NOPE", 0, ir.CategoryUnspecified))
}

func TestPermuteArgTypes(t *testing.T) {
	got, ok := PermuteArgTypes(hNamed, argTypes("VARCHAR(2)"), []string{"b"})
	require.True(t, ok)
	assert.Equal(t, []types.Type{types.UnknownType(), types.MustParse("VARCHAR(2)")}, got)

	_, ok = PermuteArgTypes(hNamed, argTypes("INTEGER"), []string{"z"})
	assert.False(t, ok)

	positional := argTypes("INTEGER", "DATE")
	got, ok = PermuteArgTypes(hNamed, positional, nil)
	require.True(t, ok)
	assert.Equal(t, positional, got)
}
