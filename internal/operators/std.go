package operators

import (
	"sync"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/types"
)

// Binding powers. An operator of precedence p is registered as (p, p+1)
// when left-associative and (p+1, p) when right-associative.
const (
	precAs         = 20
	precNulls      = 18
	precOr         = 22
	precAnd        = 24
	precNot        = 26
	precPostfix    = 28
	precComparison = 30
	precBetween    = 32
	precAdditive   = 40
	precMultiply   = 60
	precUnary      = 80
	precOver       = 92
	precFilter     = 94
	precWithin     = 96
	precFunction   = 100
	precCase       = 200
)

func leftAssoc(p int) (int, int)  { return p, p + 1 }
func rightAssoc(p int) (int, int) { return p + 1, p }

func binary(name string, kind ir.Kind, prec int, ret ir.ReturnTypeRule, check *ir.OperandTypeChecker) *ir.Operator {
	l, r := leftAssoc(prec)
	return &ir.Operator{
		Name: name, Kind: kind, Syntax: ir.SyntaxBinary, LeftPrec: l, RightPrec: r,
		Category: ir.CategorySystem, ReturnType: ret, OperandCheck: check,
		OperandInference: FirstKnown,
	}
}

func prefix(name string, kind ir.Kind, prec int, ret ir.ReturnTypeRule, check *ir.OperandTypeChecker, infer ir.OperandTypeInference) *ir.Operator {
	l, r := rightAssoc(prec)
	return &ir.Operator{
		Name: name, Kind: kind, Syntax: ir.SyntaxPrefix, LeftPrec: l, RightPrec: r,
		Category: ir.CategorySystem, ReturnType: ret, OperandCheck: check,
		OperandInference: infer,
	}
}

func postfix(name string, kind ir.Kind, prec int, ret ir.ReturnTypeRule, check *ir.OperandTypeChecker) *ir.Operator {
	l, r := leftAssoc(prec)
	return &ir.Operator{
		Name: name, Kind: kind, Syntax: ir.SyntaxPostfix, LeftPrec: l, RightPrec: r,
		Category: ir.CategorySystem, ReturnType: ret, OperandCheck: check,
		OperandInference: Fixed(types.BooleanType(true)),
	}
}

func function(name string, kind ir.Kind, cat ir.Category, ret ir.ReturnTypeRule, check *ir.OperandTypeChecker) *ir.Operator {
	return &ir.Operator{
		Name: name, Kind: kind, Syntax: ir.SyntaxFunction,
		LeftPrec: precFunction, RightPrec: precFunction,
		Category: cat, ReturnType: ret, OperandCheck: check,
		OperandInference: FirstKnown,
	}
}

func aggregate(name string, kind ir.Kind, ret ir.ReturnTypeRule, check *ir.OperandTypeChecker) *ir.Operator {
	op := function(name, kind, ir.CategorySystem, ret, check)
	op.IsAggregate = true
	op.AllowsFilter = true
	op.AllowsDistinct = true
	return op
}

var (
	numeric   = types.FamilyNumeric
	character = types.FamilyCharacter
	boolean   = types.FamilyBoolean
	datetime  = types.FamilyDatetime
)

// Logical operators.
var (
	Or  = binary("OR", ir.KindOr, precOr, BooleanNullable, Families(boolean, boolean))
	And = binary("AND", ir.KindAnd, precAnd, BooleanNullable, Families(boolean, boolean))
	Not = prefix("NOT", ir.KindNot, precNot, BooleanNullable, Families(boolean), BooleanOperands)
)

// Comparison operators.
var (
	Equals             = binary("=", ir.KindEquals, precComparison, BooleanNullable, ComparableOperands())
	NotEquals          = binary("<>", ir.KindNotEquals, precComparison, BooleanNullable, ComparableOperands())
	LessThan           = binary("<", ir.KindLessThan, precComparison, BooleanNullable, ComparableOperands())
	LessThanOrEqual    = binary("<=", ir.KindLessThanOrEqual, precComparison, BooleanNullable, ComparableOperands())
	GreaterThan        = binary(">", ir.KindGreaterThan, precComparison, BooleanNullable, ComparableOperands())
	GreaterThanOrEqual = binary(">=", ir.KindGreaterThanOrEqual, precComparison, BooleanNullable, ComparableOperands())
)

// Like is right-associative at the BETWEEN level.
var Like = func() *ir.Operator {
	op := binary("LIKE", ir.KindLike, precBetween, BooleanNullable, Families(character, character))
	op.LeftPrec, op.RightPrec = rightAssoc(precBetween)
	return op
}()

var arithmeticForms = OneOf(
	[]types.Family{numeric, numeric},
	[]types.Family{datetime, types.FamilyIntervalDayTime},
	[]types.Family{datetime, types.FamilyIntervalYearMonth},
	[]types.Family{types.FamilyIntervalDayTime, types.FamilyIntervalDayTime},
	[]types.Family{types.FamilyIntervalYearMonth, types.FamilyIntervalYearMonth},
)

// Arithmetic operators.
var (
	Plus   = binary("+", ir.KindPlus, precAdditive, DecimalSum, arithmeticForms)
	Minus  = binary("-", ir.KindMinus, precAdditive, DecimalSum, arithmeticForms)
	Times  = binary("*", ir.KindTimes, precMultiply, DecimalProduct, Families(numeric, numeric))
	Divide = binary("/", ir.KindDivide, precMultiply, DecimalQuotient, Families(numeric, numeric))
	Mod    = binary("%", ir.KindMod, precMultiply, ArgType(1), Families(numeric, numeric))
	Concat = binary("||", ir.KindConcat, precMultiply, ConcatType, OneOf(
		[]types.Family{character, character},
		[]types.Family{types.FamilyBinary, types.FamilyBinary},
	))
	UnaryMinus = prefix("-", ir.KindMinusPrefix, precUnary, ArgType(0), OneOf(
		[]types.Family{numeric},
		[]types.Family{types.FamilyIntervalDayTime},
		[]types.Family{types.FamilyIntervalYearMonth},
	), FirstKnown)
	UnaryPlus = prefix("+", ir.KindPlusPrefix, precUnary, ArgType(0), AnyTypes(ir.Exactly(1)), FirstKnown)
)

// Postfix predicates.
var (
	IsNull     = postfix("IS NULL", ir.KindIsNull, precPostfix, BooleanNotNull, AnyTypes(ir.Exactly(1)))
	IsNotNull  = postfix("IS NOT NULL", ir.KindIsNotNull, precPostfix, BooleanNotNull, AnyTypes(ir.Exactly(1)))
	IsTrue     = postfix("IS TRUE", ir.KindIsTrue, precPostfix, BooleanNotNull, Families(boolean))
	IsFalse    = postfix("IS FALSE", ir.KindIsFalse, precPostfix, BooleanNotNull, Families(boolean))
	IsNotTrue  = postfix("IS NOT TRUE", ir.KindOther, precPostfix, BooleanNotNull, Families(boolean))
	IsNotFalse = postfix("IS NOT FALSE", ir.KindOther, precPostfix, BooleanNotNull, Families(boolean))
)

// Sort modifiers used inside ORDER BY lists of windows and WITHIN GROUP.
var (
	Descending = func() *ir.Operator {
		op := postfix("DESC", ir.KindDescending, precAs, ArgType(0), AnyTypes(ir.Exactly(1)))
		op.OperandInference = nil
		return op
	}()
	NullsFirst = func() *ir.Operator {
		op := postfix("NULLS FIRST", ir.KindNullsFirst, precNulls, ArgType(0), AnyTypes(ir.Exactly(1)))
		op.OperandInference = nil
		return op
	}()
	NullsLast = func() *ir.Operator {
		op := postfix("NULLS LAST", ir.KindNullsLast, precNulls, ArgType(0), AnyTypes(ir.Exactly(1)))
		op.OperandInference = nil
		return op
	}()
)

// Scalar functions.
var (
	Abs   = function("ABS", ir.KindOtherFunction, ir.CategoryNumeric, ArgType(0), Families(numeric))
	Power = function("POWER", ir.KindOtherFunction, ir.CategoryNumeric, NullableIfAny(ExplicitType(types.DoubleType(false))), Families(numeric, numeric))
	Sqrt  = function("SQRT", ir.KindOtherFunction, ir.CategoryNumeric, NullableIfAny(ExplicitType(types.DoubleType(false))), Families(numeric))
	Floor = function("FLOOR", ir.KindOtherFunction, ir.CategoryNumeric, ArgType(0), Families(numeric))
	Ceil  = function("CEIL", ir.KindOtherFunction, ir.CategoryNumeric, ArgType(0), Families(numeric))
	Round = function("ROUND", ir.KindOtherFunction, ir.CategoryNumeric, ArgType(0), OptionalFamilies(1, numeric, numeric))
	ModFn = function("MOD", ir.KindMod, ir.CategoryNumeric, ArgType(1), Families(numeric, numeric))

	Upper      = function("UPPER", ir.KindOtherFunction, ir.CategoryString, ArgType(0), Families(character))
	Lower      = function("LOWER", ir.KindOtherFunction, ir.CategoryString, ArgType(0), Families(character))
	CharLength = function("CHAR_LENGTH", ir.KindOtherFunction, ir.CategoryNumeric, NullableIfAny(ExplicitType(types.IntegerType(false))), Families(character))
	Substring  = function("SUBSTRING", ir.KindOtherFunction, ir.CategoryString, NullableIfAny(substringType), OptionalFamilies(2, character, numeric, numeric))

	Coalesce = function("COALESCE", ir.KindCoalesce, ir.CategorySystem, CoalesceType, SameFamily(ir.AtLeast(1)))

	Row = func() *ir.Operator {
		op := function("ROW", ir.KindRow, ir.CategorySystem, ExplicitType(types.New(types.Row)), AnyTypes(ir.AtLeast(1)))
		op.OperandInference = nil
		return op
	}()
)

func substringType(b ir.Binding) (types.Type, error) {
	t := b.OperandType(0)
	return types.WithPrecision(types.Varchar, t.Precision, types.NotSpecified), nil
}

// CoalesceType is the least restrictive operand type, nullable only when
// every operand is.
func CoalesceType(b ir.Binding) (types.Type, error) {
	t, err := LeastRestrictiveArgs(b)
	if err != nil {
		return t, err
	}
	nullable := true
	for _, ot := range OperandTypes(b) {
		nullable = nullable && ot.Nullable
	}
	return t.WithNullability(nullable), nil
}

func functionID(name string, ret types.Type) *ir.Operator {
	return &ir.Operator{
		Name: name, Kind: ir.KindOtherFunction, Syntax: ir.SyntaxFunctionID,
		LeftPrec: precFunction, RightPrec: precFunction,
		Category: ir.CategoryTimeDate, ReturnType: ExplicitType(ret),
		OperandCheck: Niladic(),
	}
}

// Niladic date/time functions.
var (
	CurrentDate      = functionID("CURRENT_DATE", types.DateType(false))
	CurrentTime      = functionID("CURRENT_TIME", types.TimeType(false, 0, false))
	CurrentTimestamp = functionID("CURRENT_TIMESTAMP", types.TimestampType(false, 0, false))
	LocalTimestamp   = functionID("LOCALTIMESTAMP", types.TimestampType(false, 0, true))
)

// Aggregate functions.
var (
	Count = func() *ir.Operator {
		op := aggregate("COUNT", ir.KindCount, CountType, AnyTypes(ir.AtLeast(0)))
		op.Syntax = ir.SyntaxFunctionStar
		op.OperandInference = nil
		return op
	}()
	Sum  = aggregate("SUM", ir.KindSum, SumReturn, Families(numeric))
	Sum0 = aggregate("$SUM0", ir.KindSum0, Sum0Return, Families(numeric))
	Min  = aggregate("MIN", ir.KindMin, AggregateArgType, AnyTypes(ir.Exactly(1)))
	Max  = aggregate("MAX", ir.KindMax, AggregateArgType, AnyTypes(ir.Exactly(1)))
	Avg  = aggregate("AVG", ir.KindAvg, AggregateArgType, Families(numeric))

	ListAgg = func() *ir.Operator {
		op := aggregate("LISTAGG", ir.KindListAgg, NullableIfAny(ExplicitType(types.VarcharType(true, types.NotSpecified))), OptionalFamilies(1, character, character))
		op.AllowsWithinGroup = true
		return op
	}()
	PercentileCont = func() *ir.Operator {
		op := aggregate("PERCENTILE_CONT", ir.KindOtherFunction, ExplicitType(types.DoubleType(true)), Families(numeric))
		op.AllowsWithinGroup = true
		op.AllowsDistinct = false
		return op
	}()

	RowNumber = windowFunction("ROW_NUMBER", ir.KindRowNumber)
	Rank      = windowFunction("RANK", ir.KindRank)
)

func windowFunction(name string, kind ir.Kind) *ir.Operator {
	op := aggregate(name, kind, ExplicitType(types.BigIntType(false)), Niladic())
	op.RequiresOrder = true
	op.AllowsFilter = false
	op.AllowsDistinct = false
	op.OperandInference = nil
	return op
}

// Placeholder returns the descriptor of a function call that has not been
// resolved yet. Validation replaces it with a registered overload.
func Placeholder(name string) *ir.Operator {
	return &ir.Operator{
		Name:        name,
		Kind:        ir.KindOtherFunction,
		Syntax:      ir.SyntaxFunction,
		LeftPrec:    precFunction,
		RightPrec:   precFunction,
		Category:    ir.CategoryUserDefinedFunction,
		Placeholder: true,
	}
}

// StandardOperators returns the built-in descriptors in registration order.
func StandardOperators() []*ir.Operator {
	return []*ir.Operator{
		Or, And, Not,
		Equals, NotEquals, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual,
		Like,
		Between, NotBetween, BetweenSymmetric, NotBetweenSymmetric,
		Plus, Minus, Times, Divide, Mod, Concat, UnaryMinus, UnaryPlus,
		IsNull, IsNotNull, IsTrue, IsFalse, IsNotTrue, IsNotFalse,
		Descending, NullsFirst, NullsLast,
		Case, When, Then, Else, End,
		As, Filter, WithinGroup, Over, Window, Cast, ArgumentAssignment,
		Abs, Power, Sqrt, Floor, Ceil, Round, ModFn,
		Upper, Lower, CharLength, Substring,
		Coalesce, Row,
		CurrentDate, CurrentTime, CurrentTimestamp, LocalTimestamp,
		Count, Sum, Sum0, Min, Max, Avg, ListAgg, PercentileCont, RowNumber, Rank,
	}
}

var standard = sync.OnceValue(func() *Table {
	return NewBuilder().RegisterAll(StandardOperators()...).Freeze()
})

// Standard returns the shared table of built-in operators.
func Standard() *Table {
	return standard()
}
