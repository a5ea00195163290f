package ir

import (
	"fmt"
	"slices"

	"github.com/roach88/polyexpr/internal/literal"
	"github.com/roach88/polyexpr/internal/types"
)

// Syntax selects the unparse and reduce algorithm of an operator.
type Syntax int

const (
	// SyntaxFunction is "NAME(arg, ...)".
	SyntaxFunction Syntax = iota
	// SyntaxFunctionStar is a function that also accepts "*", e.g. COUNT(*).
	SyntaxFunctionStar
	SyntaxBinary
	SyntaxPrefix
	SyntaxPostfix
	// SyntaxSpecial operators consume a custom span and must have a reduce
	// hook.
	SyntaxSpecial
	// SyntaxFunctionID is a function called without parentheses when it has
	// no arguments, e.g. CURRENT_DATE.
	SyntaxFunctionID
	// SyntaxInternal operators never appear in source text.
	SyntaxInternal
)

var syntaxNames = [...]string{
	"FUNCTION", "FUNCTION_STAR", "BINARY", "PREFIX", "POSTFIX", "SPECIAL", "FUNCTION_ID", "INTERNAL",
}

func (s Syntax) String() string {
	if int(s) < len(syntaxNames) {
		return syntaxNames[s]
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

// ParseSyntax maps a syntax name to its value.
func ParseSyntax(s string) (Syntax, bool) {
	for i, n := range syntaxNames {
		if n == s {
			return Syntax(i), true
		}
	}
	return 0, false
}

// IsFunctionLike reports whether calls are rendered as NAME(args).
func (s Syntax) IsFunctionLike() bool {
	switch s {
	case SyntaxFunction, SyntaxFunctionStar, SyntaxFunctionID, SyntaxInternal:
		return true
	}
	return false
}

// Kind tags operators whose semantics other components test for.
type Kind int

const (
	KindOther Kind = iota
	KindOtherFunction
	KindPlus
	KindMinus
	KindTimes
	KindDivide
	KindMod
	KindMinusPrefix
	KindPlusPrefix
	KindEquals
	KindNotEquals
	KindLessThan
	KindLessThanOrEqual
	KindGreaterThan
	KindGreaterThanOrEqual
	KindAnd
	KindOr
	KindNot
	KindIsNull
	KindIsNotNull
	KindIsTrue
	KindIsFalse
	KindBetween
	KindLike
	KindConcat
	KindCase
	KindWhen
	KindThen
	KindElse
	KindEnd
	KindAs
	KindFilter
	KindWithinGroup
	KindOver
	KindWindow
	KindCast
	KindDescending
	KindNullsFirst
	KindNullsLast
	KindCount
	KindSum
	KindSum0
	KindMin
	KindMax
	KindAvg
	KindListAgg
	KindRowNumber
	KindRank
	KindCoalesce
	KindRow
	KindArgumentAssignment
)

var kindNames = map[Kind]string{
	KindOther:              "OTHER",
	KindOtherFunction:      "OTHER_FUNCTION",
	KindPlus:               "PLUS",
	KindMinus:              "MINUS",
	KindTimes:              "TIMES",
	KindDivide:             "DIVIDE",
	KindMod:                "MOD",
	KindMinusPrefix:        "MINUS_PREFIX",
	KindPlusPrefix:         "PLUS_PREFIX",
	KindEquals:             "EQUALS",
	KindNotEquals:          "NOT_EQUALS",
	KindLessThan:           "LESS_THAN",
	KindLessThanOrEqual:    "LESS_THAN_OR_EQUAL",
	KindGreaterThan:        "GREATER_THAN",
	KindGreaterThanOrEqual: "GREATER_THAN_OR_EQUAL",
	KindAnd:                "AND",
	KindOr:                 "OR",
	KindNot:                "NOT",
	KindIsNull:             "IS_NULL",
	KindIsNotNull:          "IS_NOT_NULL",
	KindIsTrue:             "IS_TRUE",
	KindIsFalse:            "IS_FALSE",
	KindBetween:            "BETWEEN",
	KindLike:               "LIKE",
	KindConcat:             "CONCAT",
	KindCase:               "CASE",
	KindWhen:               "WHEN",
	KindThen:               "THEN",
	KindElse:               "ELSE",
	KindEnd:                "END",
	KindAs:                 "AS",
	KindFilter:             "FILTER",
	KindWithinGroup:        "WITHIN_GROUP",
	KindOver:               "OVER",
	KindWindow:             "WINDOW",
	KindCast:               "CAST",
	KindDescending:         "DESCENDING",
	KindNullsFirst:         "NULLS_FIRST",
	KindNullsLast:          "NULLS_LAST",
	KindCount:              "COUNT",
	KindSum:                "SUM",
	KindSum0:               "SUM0",
	KindMin:                "MIN",
	KindMax:                "MAX",
	KindAvg:                "AVG",
	KindListAgg:            "LISTAGG",
	KindRowNumber:          "ROW_NUMBER",
	KindRank:               "RANK",
	KindCoalesce:           "COALESCE",
	KindRow:                "ROW",
	KindArgumentAssignment: "ARGUMENT_ASSIGNMENT",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category groups functions for lookup. CategoryUnspecified matches every
// category.
type Category int

const (
	CategoryUnspecified Category = iota
	CategorySystem
	CategoryNumeric
	CategoryString
	CategoryTimeDate
	CategoryUserDefinedFunction
	CategoryUserDefinedProcedure
)

var categoryNames = [...]string{
	"UNSPECIFIED", "SYSTEM", "NUMERIC", "STRING", "TIMEDATE",
	"USER_DEFINED_FUNCTION", "USER_DEFINED_PROCEDURE",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory maps a category name to its value.
func ParseCategory(s string) (Category, bool) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), true
		}
	}
	return 0, false
}

// Matches reports whether an operator registered under c satisfies a lookup
// for want.
func (c Category) Matches(want Category) bool {
	return want == CategoryUnspecified || c == want
}

// CountRange is an inclusive range of operand counts. Max < 0 means
// unbounded.
type CountRange struct {
	Min int
	Max int
}

// Exactly returns the range {n}.
func Exactly(n int) CountRange { return CountRange{Min: n, Max: n} }

// Between returns [min, max].
func Between(min, max int) CountRange { return CountRange{Min: min, Max: max} }

// AtLeast returns [n, ∞).
func AtLeast(n int) CountRange { return CountRange{Min: n, Max: -1} }

// IsValid reports whether n is in range.
func (r CountRange) IsValid(n int) bool {
	return n >= r.Min && (r.Max < 0 || n <= r.Max)
}

// IsExact reports whether the range holds a single count.
func (r CountRange) IsExact() bool {
	return r.Min == r.Max
}

func (r CountRange) String() string {
	switch {
	case r.IsExact():
		return fmt.Sprintf("%d", r.Min)
	case r.Max < 0:
		return fmt.Sprintf("%d or more", r.Min)
	}
	return fmt.Sprintf("%d to %d", r.Min, r.Max)
}

// Binding exposes the operands of a call, with their derived types, to the
// type rules of its operator. Bindings are ephemeral and must not be
// retained past the rule invocation.
type Binding interface {
	// Operator returns the operator being bound.
	Operator() *Operator

	// OperandCount returns the number of operands.
	OperandCount() int

	// OperandType returns the derived type of operand i.
	OperandType(i int) types.Type

	// OperandLiteralValue returns the value of operand i if it is a
	// literal, looking through CAST and unary minus.
	OperandLiteralValue(i int) (literal.Literal, bool)

	// OperandNode returns operand i, or false for bindings not backed by
	// a call.
	OperandNode(i int) (Node, bool)

	// GroupCount is -1 outside an aggregate context, 0 if the aggregate
	// may see no rows, otherwise the number of GROUP BY keys.
	GroupCount() int

	// HasFilter reports whether the aggregate is under FILTER.
	HasFilter() bool

	// Pos returns the position used for diagnostics.
	Pos() Pos
}

// ReturnTypeRule computes the result type of a call. It must be pure.
type ReturnTypeRule func(b Binding) (types.Type, error)

// OperandTypeInference proposes types for operands whose type is still
// unknown (dynamic parameters). It must be pure.
type OperandTypeInference func(b Binding, arity int) []types.Type

// OperandTypeChecker validates the count and types of operands.
type OperandTypeChecker struct {
	// Range is the accepted operand count.
	Range CountRange

	// Check validates operand types. A nil Check accepts any types. On
	// failure it returns a *CompileError with code TYPE_CHECK_FAILED and
	// the failing operand index.
	Check func(b Binding) error

	// Forms lists the accepted operand families per form, e.g.
	// {{"NUMERIC", "NUMERIC"}}, for diagnostics.
	Forms [][]string
}

// Sequence is the reducer's view of a flat entry sequence, handed to
// special operators' reduce hooks.
type Sequence interface {
	// Len returns the number of entries.
	Len() int

	// IsOperator reports whether entry i is an operator occurrence.
	IsOperator(i int) bool

	// Operator returns the operator at entry i, or nil.
	Operator(i int) *Operator

	// Node returns the node at entry i, or nil.
	Node(i int) Node

	// Pos returns the position of entry i.
	Pos(i int) Pos

	// ReduceRange reduces the entries starting at start to a single node
	// and splices it into the sequence at start. The range ends before the
	// first operator at nesting depth zero whose kind is in stop, or whose
	// left precedence is below minPrec when minPrec > 0.
	ReduceRange(start, minPrec int, stop ...Kind) (Node, error)
}

// Reduction is the result of a reduce hook: entries Start..End inclusive
// are replaced by Node.
type Reduction struct {
	Start int
	End   int
	Node  Node
}

// ReduceFunc builds a node from the operator at ordinal and its
// neighbours.
type ReduceFunc func(seq Sequence, ordinal int) (Reduction, error)

// UnparseFunc renders a call. leftPrec and rightPrec are the binding
// powers of the surrounding context; parentheses have already been added
// when needed.
type UnparseFunc func(w *Writer, call *Call, leftPrec, rightPrec int)

// AggregateContext describes the construct an aggregate call is derived
// under: FILTER, WITHIN GROUP or OVER.
type AggregateContext struct {
	// GroupCount replaces the session's group count for the call.
	GroupCount int

	// HasFilter reports whether the call is under FILTER.
	HasFilter bool

	// Windowed reports whether the call is the subject of OVER.
	Windowed bool

	// Ordered reports whether the window or WITHIN GROUP supplies an
	// ORDER BY.
	Ordered bool

	// WithinGroup reports whether the call is the subject of WITHIN GROUP.
	WithinGroup bool
}

// Validator is the session view handed to Derive hooks.
type Validator interface {
	// DeriveType validates a node and returns its type.
	DeriveType(n Node) (types.Type, error)

	// DeriveAggregate validates an aggregate call under ctx.
	DeriveAggregate(call *Call, ctx AggregateContext) (types.Type, error)

	// InferOperandType records t as the type of n when n is a dynamic
	// parameter whose type is still unknown. Other nodes are ignored.
	InferOperandType(n Node, t types.Type)
}

// DeriveFunc replaces the default validation of a call.
type DeriveFunc func(v Validator, call *Call) (types.Type, error)

// Operator is an immutable operator or function descriptor.
type Operator struct {
	Name      string
	Kind      Kind
	Syntax    Syntax
	LeftPrec  int
	RightPrec int
	Category  Category

	ReturnType       ReturnTypeRule
	OperandInference OperandTypeInference
	OperandCheck     *OperandTypeChecker

	Reduce  ReduceFunc
	Unparse UnparseFunc
	Derive  DeriveFunc

	// ParamTypes and ParamNames describe the formal parameters of
	// functions that declare them. Builtins typically leave them nil.
	ParamTypes []types.Type
	ParamNames []string

	IsAggregate       bool
	RequiresOrder     bool
	AllowsFilter      bool
	AllowsDistinct    bool
	AllowsWithinGroup bool

	// NonExprOperands lists operand indexes that are not validated as
	// expressions, e.g. the alias of AS.
	NonExprOperands []int

	// Placeholder marks an unresolved function; validation replaces it
	// with the resolved operator.
	Placeholder bool
}

func (o *Operator) String() string {
	return o.Name
}

// OperandCountRange returns the accepted operand counts.
func (o *Operator) OperandCountRange() CountRange {
	if o.OperandCheck != nil {
		return o.OperandCheck.Range
	}
	if o.ParamTypes != nil {
		return Exactly(len(o.ParamTypes))
	}
	switch o.Syntax {
	case SyntaxBinary:
		return Exactly(2)
	case SyntaxPrefix, SyntaxPostfix:
		return Exactly(1)
	}
	return AtLeast(0)
}

// IsNonExprOperand reports whether operand i is exempt from validation.
func (o *Operator) IsNonExprOperand(i int) bool {
	return slices.Contains(o.NonExprOperands, i)
}

// Rebinder replaces the operator of calls owned by one session.
type Rebinder struct {
	owner string
}

// NewRebinder returns a rebinder for the given owner. The owner string is
// stamped on every call the rebinder claims.
func NewRebinder(owner string) *Rebinder {
	if owner == "" {
		panic(InvariantViolation{Message: "rebinder requires an owner"})
	}
	return &Rebinder{owner: owner}
}

// Claim marks the call as owned by this rebinder. Claiming a call owned by
// another session is an invariant violation.
func (r *Rebinder) Claim(c *Call) {
	if c.owner != "" && c.owner != r.owner {
		panic(InvariantViolation{Message: fmt.Sprintf("call %s is owned by session %s, not %s", c.op.Name, c.owner, r.owner)})
	}
	c.owner = r.owner
}

// Rebind replaces the operator of a claimed call.
func (r *Rebinder) Rebind(c *Call, op *Operator) {
	if op == nil {
		panic(InvariantViolation{Message: "rebind to nil operator"})
	}
	r.Claim(c)
	c.op = op
}
