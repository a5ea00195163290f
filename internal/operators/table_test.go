package operators

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/binding"
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

func udf(name string, params ...string) *ir.Operator {
	ts := make([]types.Type, len(params))
	for i, p := range params {
		ts[i] = types.MustParse(p)
	}
	return &ir.Operator{
		Name: name, Kind: ir.KindOtherFunction, Syntax: ir.SyntaxFunction,
		LeftPrec: 100, RightPrec: 100, Category: ir.CategoryUserDefinedFunction,
		ParamTypes: ts, ReturnType: ExplicitType(types.IntegerType(true)),
	}
}

func TestBuilderRejectsBadDescriptors(t *testing.T) {
	testCases := []struct {
		name string
		op   *ir.Operator
		msg  string
	}{
		{name: "nil", op: nil, msg: "nil operator"},
		{name: "unnamed", op: &ir.Operator{}, msg: "operator without a name"},
		{
			name: "special without hook",
			op:   &ir.Operator{Name: "X", Syntax: ir.SyntaxSpecial},
			msg:  "special operator X has no reduce hook",
		},
		{
			name: "negative precedence",
			op:   &ir.Operator{Name: "X", Syntax: ir.SyntaxBinary, LeftPrec: -1},
			msg:  "operator X has negative precedence",
		},
		{
			name: "parameter names mismatch",
			op: &ir.Operator{
				Name: "F", Syntax: ir.SyntaxFunction,
				ParamTypes: []types.Type{types.IntegerType(true)},
				ParamNames: []string{"a", "b"},
			},
			msg: "operator F declares 2 parameter names for 1 parameter types",
		},
		{name: "placeholder", op: Placeholder("F"), msg: "placeholder F cannot be registered"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.PanicsWithValue(t, ir.InvariantViolation{Message: tc.msg}, func() {
				NewBuilder().Register(tc.op)
			})
		})
	}
}

func TestFreezeIsFinal(t *testing.T) {
	b := NewBuilder().Register(udf("F", "INTEGER"))
	table := b.Freeze()
	assert.Equal(t, 1, table.Len())

	assert.Panics(t, func() { b.Register(udf("G")) })
	assert.Panics(t, func() { b.Freeze() })

	// Extending never touches the frozen table.
	ext := table.Extend().Register(udf("G")).Freeze()
	assert.Equal(t, 2, ext.Len())
	assert.Equal(t, 1, table.Len())
	assert.Empty(t, table.Lookup("G", ir.SyntaxFunction, ir.CategoryUnspecified))
}

func TestTableAllReturnsCopy(t *testing.T) {
	table := NewBuilder().Register(udf("F")).Freeze()
	all := table.All()
	all[0] = nil
	assert.NotNil(t, table.All()[0])
}

func TestLookup(t *testing.T) {
	table := Standard()

	t.Run("function syntax matches function-like operators", func(t *testing.T) {
		ops := table.Lookup("count", ir.SyntaxFunction, ir.CategoryUnspecified)
		require.Len(t, ops, 1)
		assert.Same(t, Count, ops[0])

		ops = table.Lookup("CURRENT_DATE", ir.SyntaxFunction, ir.CategoryUnspecified)
		require.Len(t, ops, 1)
		assert.Same(t, CurrentDate, ops[0])
	})

	t.Run("operator syntax is exact", func(t *testing.T) {
		assert.Same(t, UnaryMinus, table.Operator("-", ir.SyntaxPrefix))
		assert.Same(t, Minus, table.Operator("-", ir.SyntaxBinary))
		assert.Nil(t, table.Operator("-", ir.SyntaxPostfix))
		assert.Len(t, table.Lookup("-", ir.SyntaxFunction, ir.CategoryUnspecified), 0)
	})

	t.Run("category filters", func(t *testing.T) {
		assert.Len(t, table.Lookup("ABS", ir.SyntaxFunction, ir.CategoryNumeric), 1)
		assert.Empty(t, table.Lookup("ABS", ir.SyntaxFunction, ir.CategoryString))
	})

	t.Run("by name and arity", func(t *testing.T) {
		assert.Len(t, table.LookupByNameAndArity("ROUND", 1), 1)
		assert.Len(t, table.LookupByNameAndArity("ROUND", 2), 1)
		assert.Empty(t, table.LookupByNameAndArity("ROUND", 3))
		assert.Len(t, table.LookupByNameAndArity("-", 1), 1)
		assert.Len(t, table.LookupByNameAndArity("-", 2), 1)
	})
}

func TestCaseSensitiveNames(t *testing.T) {
	table := NewBuilder(WithCaseSensitiveNames(true)).Register(udf("Foo")).Freeze()
	assert.Len(t, table.Lookup("Foo", ir.SyntaxFunction, ir.CategoryUnspecified), 1)
	assert.Empty(t, table.Lookup("FOO", ir.SyntaxFunction, ir.CategoryUnspecified))

	insensitive := NewBuilder().Register(udf("Foo")).Freeze()
	assert.Len(t, insensitive.Lookup("fOO", ir.SyntaxFunction, ir.CategoryUnspecified), 1)
}

func TestStandardTableIsShared(t *testing.T) {
	var wg sync.WaitGroup
	tables := make([]*Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = Standard()
			_ = tables[i].Lookup("SUM", ir.SyntaxFunction, ir.CategoryUnspecified)
		}(i)
	}
	wg.Wait()
	for _, tb := range tables {
		assert.Same(t, tables[0], tb)
	}
}

func TestStandardPrecedence(t *testing.T) {
	testCases := []struct {
		op          *ir.Operator
		left, right int
	}{
		{op: As, left: 20, right: 21},
		{op: Or, left: 22, right: 23},
		{op: And, left: 24, right: 25},
		{op: Not, left: 27, right: 26},
		{op: IsNull, left: 28, right: 29},
		{op: Equals, left: 30, right: 31},
		{op: Between, left: 33, right: 32},
		{op: Like, left: 33, right: 32},
		{op: Plus, left: 40, right: 41},
		{op: Times, left: 60, right: 61},
		{op: Concat, left: 60, right: 61},
		{op: UnaryMinus, left: 81, right: 80},
		{op: Over, left: 92, right: 93},
		{op: Filter, left: 94, right: 95},
		{op: WithinGroup, left: 96, right: 97},
		{op: Case, left: 200, right: 201},
		{op: When, left: 0, right: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.op.Name, func(t *testing.T) {
			assert.Equal(t, tc.left, tc.op.LeftPrec)
			assert.Equal(t, tc.right, tc.op.RightPrec)
		})
	}
}

func TestStandardNamesAreSorted(t *testing.T) {
	names := Standard().Names()
	assert.Contains(t, names, "BETWEEN")
	assert.Contains(t, names, "$SUM0")
	assert.IsIncreasing(t, names)
}

func TestNewRoutine(t *testing.T) {
	fn := NewRoutine(Routine{
		Name:       "DISCOUNT",
		Params:     []types.Type{types.MustParse("DECIMAL(10, 2)"), types.MustParse("DOUBLE")},
		ParamNames: []string{"price", "rate"},
		Returns:    types.MustParse("DECIMAL(10, 2) NOT NULL"),
	})
	assert.Equal(t, ir.CategoryUserDefinedFunction, fn.Category)
	assert.Equal(t, ir.Exactly(2), fn.OperandCountRange())
	assert.False(t, fn.IsAggregate)
	assert.False(t, fn.AllowsDistinct)

	ret, err := fn.ReturnType(binding.NewExplicit(fn, fn.ParamTypes, ir.Pos{}))
	require.NoError(t, err)
	assert.Equal(t, types.DecimalType(false, 10, 2), ret)

	proc := NewRoutine(Routine{Name: "ARCHIVE", Params: []types.Type{types.MustParse("INTEGER")}, Procedure: true})
	assert.Equal(t, ir.CategoryUserDefinedProcedure, proc.Category)

	agg := NewRoutine(Routine{
		Name: "MEDIAN", Params: []types.Type{types.MustParse("DOUBLE")},
		Returns: types.DoubleType(false), Aggregate: true, Filter: true,
	})
	assert.True(t, agg.IsAggregate)
	assert.True(t, agg.AllowsFilter)
	assert.False(t, agg.AllowsDistinct)

	got, err := agg.ReturnType(binding.Aggregate(binding.NewExplicit(agg, agg.ParamTypes, ir.Pos{}), 0, false))
	require.NoError(t, err)
	assert.Equal(t, types.DoubleType(true), got)

	got, err = agg.ReturnType(binding.Aggregate(binding.NewExplicit(agg, agg.ParamTypes, ir.Pos{}), 2, false))
	require.NoError(t, err)
	assert.Equal(t, types.DoubleType(false), got)

	assert.NotPanics(t, func() { NewBuilder().RegisterAll(fn, proc, agg).Freeze() })
}
