package operators

import (
	"fmt"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
	"github.com/roach88/polyexpr/internal/types"
)

// caseStops ends every sub-expression inside CASE ... END.
var caseStops = []ir.Kind{ir.KindWhen, ir.KindThen, ir.KindElse, ir.KindEnd}

func special(name string, kind ir.Kind, l, r int, reduce ir.ReduceFunc) *ir.Operator {
	return &ir.Operator{
		Name: name, Kind: kind, Syntax: ir.SyntaxSpecial, LeftPrec: l, RightPrec: r,
		Category: ir.CategorySystem, Reduce: reduce,
	}
}

func isKind(seq ir.Sequence, i int, kind ir.Kind) bool {
	return i < seq.Len() && seq.IsOperator(i) && seq.Operator(i).Kind == kind
}

func hasNode(seq ir.Sequence, i int) bool {
	return i >= 0 && i < seq.Len() && !seq.IsOperator(i)
}

// BETWEEN and its variants. "x BETWEEN ASYMMETRIC a AND b" is plain
// BETWEEN.
var (
	Between             = betweenOperator("BETWEEN")
	NotBetween          = betweenOperator("NOT BETWEEN")
	BetweenSymmetric    = betweenOperator("BETWEEN SYMMETRIC")
	NotBetweenSymmetric = betweenOperator("NOT BETWEEN SYMMETRIC")
)

func betweenOperator(name string) *ir.Operator {
	l, r := rightAssoc(precBetween)
	op := special(name, ir.KindBetween, l, r, reduceBetween)
	op.ReturnType = BooleanNullable
	op.OperandInference = FirstKnown
	op.OperandCheck = &ir.OperandTypeChecker{
		Range: ir.Exactly(3),
		Forms: [][]string{{"COMPARABLE_TYPE", "COMPARABLE_TYPE", "COMPARABLE_TYPE"}},
		Check: func(b ir.Binding) error {
			t0 := b.OperandType(0)
			for i := 1; i < 3; i++ {
				if !types.Comparable(t0, b.OperandType(i)) {
					return NewCallTypeError(b, i, t0.Family().String())
				}
			}
			return nil
		},
	}
	op.Unparse = unparseBetween
	return op
}

// reduceBetween consumes "x BETWEEN low AND high". The lower bound runs to
// the first AND at nesting depth zero; the upper bound stops at the first
// operator that binds looser than BETWEEN.
func reduceBetween(seq ir.Sequence, i int) (ir.Reduction, error) {
	op := seq.Operator(i)
	if !hasNode(seq, i-1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "%s requires a left operand", op.Name)
	}
	if i+1 >= seq.Len() {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "%s requires a lower bound", op.Name)
	}
	low, err := seq.ReduceRange(i+1, 0, ir.KindAnd)
	if err != nil {
		return ir.Reduction{}, err
	}
	if !isKind(seq, i+2, ir.KindAnd) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "%s requires AND", op.Name)
	}
	if i+3 >= seq.Len() {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i+2), "%s requires an upper bound", op.Name)
	}
	high, err := seq.ReduceRange(i+3, precBetween)
	if err != nil {
		return ir.Reduction{}, err
	}
	call := ir.NewCall(op, []ir.Node{seq.Node(i - 1), low, high}, seq.Pos(i))
	return ir.Reduction{Start: i - 1, End: i + 3, Node: call}, nil
}

func unparseBetween(w *ir.Writer, c *ir.Call, l, r int) {
	op := c.Operator()
	ir.Unparse(w, c.Operand(0), l, op.LeftPrec)
	w.Keyword(op.Name)
	ir.Unparse(w, c.Operand(1), 0, op.RightPrec)
	w.Keyword("AND")
	ir.Unparse(w, c.Operand(2), op.RightPrec, r)
}

// Case is "CASE [value] WHEN c THEN r ... [ELSE e] END". Its operands are
// the WHEN list, the THEN list and the ELSE expression; a value form is
// rewritten to "value = c" per branch.
var Case = func() *ir.Operator {
	l, r := leftAssoc(precCase)
	op := special("CASE", ir.KindCase, l, r, reduceCase)
	op.Unparse = unparseCase
	op.Derive = deriveCase
	return op
}()

// Keywords that only appear inside CASE. Reducing one on its own is an
// error.
var (
	When = caseKeyword("WHEN", ir.KindWhen)
	Then = caseKeyword("THEN", ir.KindThen)
	Else = caseKeyword("ELSE", ir.KindElse)
	End  = caseKeyword("END", ir.KindEnd)
)

func caseKeyword(name string, kind ir.Kind) *ir.Operator {
	return special(name, kind, 0, 0, func(seq ir.Sequence, i int) (ir.Reduction, error) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "%s without CASE", name)
	})
}

func reduceCase(seq ir.Sequence, i int) (ir.Reduction, error) {
	if hasNode(seq, i-1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "CASE cannot follow an operand")
	}
	pos := seq.Pos(i)
	j := i + 1
	var value ir.Node
	if j < seq.Len() && !isKind(seq, j, ir.KindWhen) {
		v, err := seq.ReduceRange(j, 0, caseStops...)
		if err != nil {
			return ir.Reduction{}, err
		}
		value = v
		j++
	}

	var whens, thens []ir.Node
	for isKind(seq, j, ir.KindWhen) {
		if j+1 >= seq.Len() {
			return ir.Reduction{}, ir.NewReductionError(seq.Pos(j), "WHEN requires a condition")
		}
		cond, err := seq.ReduceRange(j+1, 0, caseStops...)
		if err != nil {
			return ir.Reduction{}, err
		}
		if value != nil {
			cond = ir.NewCall(Equals, []ir.Node{value.Clone(), cond}, cond.Pos())
		}
		if !isKind(seq, j+2, ir.KindThen) {
			return ir.Reduction{}, ir.NewReductionError(seq.Pos(j), "WHEN requires THEN")
		}
		if j+3 >= seq.Len() {
			return ir.Reduction{}, ir.NewReductionError(seq.Pos(j+2), "THEN requires a result")
		}
		result, err := seq.ReduceRange(j+3, 0, caseStops...)
		if err != nil {
			return ir.Reduction{}, err
		}
		whens = append(whens, cond)
		thens = append(thens, result)
		j += 4
	}
	if len(whens) == 0 {
		return ir.Reduction{}, ir.NewReductionError(pos, "CASE requires at least one WHEN")
	}

	var elseNode ir.Node
	if isKind(seq, j, ir.KindElse) {
		if j+1 >= seq.Len() {
			return ir.Reduction{}, ir.NewReductionError(seq.Pos(j), "ELSE requires a result")
		}
		e, err := seq.ReduceRange(j+1, 0, caseStops...)
		if err != nil {
			return ir.Reduction{}, err
		}
		elseNode = e
		j += 2
	} else {
		elseNode = ir.NewLiteral(literal.Null{}, pos)
	}
	if !isKind(seq, j, ir.KindEnd) {
		return ir.Reduction{}, ir.NewReductionError(pos, "CASE requires END")
	}

	operands := []ir.Node{
		ir.NewNodeList(whens, pos),
		ir.NewNodeList(thens, pos),
		elseNode,
	}
	return ir.Reduction{Start: i, End: j, Node: ir.NewCall(seq.Operator(i), operands, pos)}, nil
}

func caseBranches(c *ir.Call) (whens, thens []ir.Node) {
	if l, ok := c.Operand(0).(*ir.NodeList); ok {
		whens = l.Items
	}
	if l, ok := c.Operand(1).(*ir.NodeList); ok {
		thens = l.Items
	}
	return whens, thens
}

func unparseCase(w *ir.Writer, c *ir.Call, _, _ int) {
	whens, thens := caseBranches(c)
	w.Keyword("CASE")
	for i := range whens {
		w.Keyword("WHEN")
		ir.Unparse(w, whens[i], 0, 0)
		w.Keyword("THEN")
		ir.Unparse(w, thens[i], 0, 0)
	}
	if e := c.Operand(2); e != nil {
		if lit, ok := e.(*ir.LiteralNode); !ok || lit.Value.Kind() != literal.KindNull {
			w.Keyword("ELSE")
			ir.Unparse(w, e, 0, 0)
		}
	}
	w.Keyword("END")
}

func deriveCase(v ir.Validator, c *ir.Call) (types.Type, error) {
	whens, thens := caseBranches(c)
	for _, cond := range whens {
		t, err := v.DeriveType(cond)
		if err != nil {
			return types.Type{}, err
		}
		if !t.IsKnown() {
			v.InferOperandType(cond, types.BooleanType(true))
			continue
		}
		if !types.FamilyBoolean.Contains(t) {
			return types.Type{}, ir.NewTypeCheckError(cond.Pos(), 0, "Expected a boolean type")
		}
	}
	results := append(append([]ir.Node(nil), thens...), c.Operand(2))
	ts := make([]types.Type, 0, len(results))
	allNull := true
	for _, n := range results {
		t, err := v.DeriveType(n)
		if err != nil {
			return types.Type{}, err
		}
		if t.Name != types.Null && t.IsKnown() {
			allNull = false
		}
		ts = append(ts, t)
	}
	if allNull {
		return types.Type{}, ir.NewTypeCheckError(c.Pos(), 1, "ELSE clause or at least one THEN clause must be non-NULL")
	}
	t, ok := types.LeastRestrictive(ts)
	if !ok {
		return types.Type{}, ir.NewTypeCheckError(c.Pos(), 1, "Illegal mixing of types in CASE or COALESCE statement")
	}
	for _, n := range results {
		v.InferOperandType(n, t)
	}
	return t, nil
}

// As is "expr AS alias [(col, ...)]". The alias and column list are not
// expressions.
var As = func() *ir.Operator {
	l, r := leftAssoc(precAs)
	op := special("AS", ir.KindAs, l, r, reduceAs)
	op.NonExprOperands = []int{1, 2}
	op.Unparse = unparseAs
	op.Derive = func(v ir.Validator, c *ir.Call) (types.Type, error) {
		return v.DeriveType(c.Operand(0))
	}
	return op
}()

func reduceAs(seq ir.Sequence, i int) (ir.Reduction, error) {
	if !hasNode(seq, i-1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "AS requires an expression")
	}
	alias, ok := seq.Node(i + 1).(*ir.Identifier)
	if !hasNode(seq, i+1) || !ok || !alias.IsSimple() {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "AS requires a simple identifier alias")
	}
	operands := []ir.Node{seq.Node(i - 1), alias}
	end := i + 1
	if cols, ok := seq.Node(i + 2).(*ir.NodeList); hasNode(seq, i+2) && ok {
		for _, c := range cols.Items {
			if id, ok := c.(*ir.Identifier); !ok || !id.IsSimple() {
				return ir.Reduction{}, ir.NewReductionError(c.Pos(), "AS column list requires simple identifiers")
			}
		}
		operands = append(operands, cols)
		end = i + 2
	}
	return ir.Reduction{Start: i - 1, End: end, Node: ir.NewCall(seq.Operator(i), operands, seq.Pos(i))}, nil
}

func unparseAs(w *ir.Writer, c *ir.Call, l, _ int) {
	ir.Unparse(w, c.Operand(0), l, c.Operator().LeftPrec)
	w.Keyword("AS")
	ir.Unparse(w, c.Operand(1), 0, 0)
	if cols := c.Operand(2); cols != nil {
		w.Open()
		ir.Unparse(w, cols, 0, 0)
		w.Close()
	}
}

// isAggregateCall reports whether n can be the subject of FILTER, WITHIN
// GROUP or OVER. A placeholder call qualifies: the overload it resolves to
// is only known during validation, which rejects non-aggregates.
func isAggregateCall(n ir.Node) bool {
	c, ok := n.(*ir.Call)
	return ok && (c.Operator().IsAggregate || c.Operator().Placeholder)
}

func isWrapper(n ir.Node, kinds ...ir.Kind) bool {
	c, ok := n.(*ir.Call)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if c.Operator().Kind == k {
			return true
		}
	}
	return false
}

func describe(n ir.Node) string {
	if n == nil {
		return "nothing"
	}
	return ir.String(n)
}

// Filter is "agg FILTER (WHERE predicate)".
var Filter = func() *ir.Operator {
	l, r := leftAssoc(precFilter)
	op := special("FILTER", ir.KindFilter, l, r, reduceFilter)
	op.Unparse = unparseFilter
	op.Derive = func(v ir.Validator, c *ir.Call) (types.Type, error) {
		return deriveAggregateSubject(v, c, ir.AggregateContext{})
	}
	return op
}()

func reduceFilter(seq ir.Sequence, i int) (ir.Reduction, error) {
	left := seq.Node(i - 1)
	if !hasNode(seq, i-1) || !(isAggregateCall(left) || isWrapper(left, ir.KindWithinGroup)) {
		return ir.Reduction{}, ir.NewNotAggregateError(seq.Pos(i), "FILTER", describe(left))
	}
	if !hasNode(seq, i+1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "FILTER requires a WHERE condition")
	}
	call := ir.NewCall(seq.Operator(i), []ir.Node{left, seq.Node(i + 1)}, seq.Pos(i))
	return ir.Reduction{Start: i - 1, End: i + 1, Node: call}, nil
}

func unparseFilter(w *ir.Writer, c *ir.Call, l, _ int) {
	ir.Unparse(w, c.Operand(0), l, c.Operator().LeftPrec)
	w.Keyword("FILTER")
	w.Open()
	w.Keyword("WHERE")
	ir.Unparse(w, c.Operand(1), 0, 0)
	w.Close()
}

// WithinGroup is "agg WITHIN GROUP (ORDER BY key, ...)".
var WithinGroup = func() *ir.Operator {
	l, r := leftAssoc(precWithin)
	op := special("WITHIN GROUP", ir.KindWithinGroup, l, r, reduceWithinGroup)
	op.Unparse = unparseWithinGroup
	op.Derive = func(v ir.Validator, c *ir.Call) (types.Type, error) {
		return deriveAggregateSubject(v, c, ir.AggregateContext{})
	}
	return op
}()

func reduceWithinGroup(seq ir.Sequence, i int) (ir.Reduction, error) {
	left := seq.Node(i - 1)
	if !hasNode(seq, i-1) || !isAggregateCall(left) {
		return ir.Reduction{}, ir.NewNotAggregateError(seq.Pos(i), "WITHIN GROUP", describe(left))
	}
	if !hasNode(seq, i+1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "WITHIN GROUP requires an ORDER BY list")
	}
	order, ok := seq.Node(i + 1).(*ir.NodeList)
	if !ok {
		n := seq.Node(i + 1)
		order = ir.NewNodeList([]ir.Node{n}, n.Pos())
	}
	call := ir.NewCall(seq.Operator(i), []ir.Node{left, order}, seq.Pos(i))
	return ir.Reduction{Start: i - 1, End: i + 1, Node: call}, nil
}

func unparseWithinGroup(w *ir.Writer, c *ir.Call, l, _ int) {
	ir.Unparse(w, c.Operand(0), l, c.Operator().LeftPrec)
	w.Keyword("WITHIN GROUP")
	w.Open()
	w.Keyword("ORDER BY")
	ir.Unparse(w, c.Operand(1), 0, 0)
	w.Close()
}

// Window is the anonymous window specification
// "(PARTITION BY key, ... ORDER BY key, ...)". Its operands are the
// partition list and the order list.
var Window = &ir.Operator{
	Name: "WINDOW", Kind: ir.KindWindow, Syntax: ir.SyntaxInternal,
	LeftPrec: precFunction, RightPrec: precFunction,
	Category: ir.CategorySystem,
	Unparse:  unparseWindow,
	Derive: func(v ir.Validator, c *ir.Call) (types.Type, error) {
		if _, err := deriveWindow(v, c); err != nil {
			return types.Type{}, err
		}
		return types.SymbolType(), nil
	},
}

// NewWindow builds a window specification call.
func NewWindow(partition, order []ir.Node, pos ir.Pos) *ir.Call {
	return ir.NewCall(Window, []ir.Node{ir.NewNodeList(partition, pos), ir.NewNodeList(order, pos)}, pos)
}

func windowLists(c *ir.Call) (partition, order []ir.Node) {
	if l, ok := c.Operand(0).(*ir.NodeList); ok {
		partition = l.Items
	}
	if l, ok := c.Operand(1).(*ir.NodeList); ok {
		order = l.Items
	}
	return partition, order
}

func unparseWindow(w *ir.Writer, c *ir.Call, _, _ int) {
	partition, order := windowLists(c)
	w.Open()
	if len(partition) > 0 {
		w.Keyword("PARTITION BY")
		w.List(partition)
	}
	if len(order) > 0 {
		w.Keyword("ORDER BY")
		w.List(order)
	}
	w.Close()
}

// deriveWindow validates the keys of a window and reports whether it
// orders its rows.
func deriveWindow(v ir.Validator, c *ir.Call) (bool, error) {
	partition, order := windowLists(c)
	for _, n := range append(append([]ir.Node(nil), partition...), order...) {
		if _, err := v.DeriveType(n); err != nil {
			return false, err
		}
	}
	return len(order) > 0, nil
}

// Over is "agg OVER window" where window is a named window or a window
// specification.
var Over = func() *ir.Operator {
	l, r := leftAssoc(precOver)
	op := special("OVER", ir.KindOver, l, r, reduceOver)
	op.NonExprOperands = []int{1}
	op.Unparse = unparseOver
	op.Derive = deriveOver
	return op
}()

func reduceOver(seq ir.Sequence, i int) (ir.Reduction, error) {
	left := seq.Node(i - 1)
	if !hasNode(seq, i-1) || !(isAggregateCall(left) || isWrapper(left, ir.KindFilter, ir.KindWithinGroup)) {
		return ir.Reduction{}, ir.NewNotAggregateError(seq.Pos(i), "OVER", describe(left))
	}
	if !hasNode(seq, i+1) {
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i), "OVER requires a window")
	}
	switch w := seq.Node(i + 1).(type) {
	case *ir.Identifier:
		if !w.IsSimple() {
			return ir.Reduction{}, ir.NewReductionError(w.Pos(), "window name must be a simple identifier")
		}
	case *ir.Call:
		if w.Operator().Kind != ir.KindWindow {
			return ir.Reduction{}, ir.NewReductionError(w.Pos(), "OVER requires a window, got %s", describe(w))
		}
	default:
		return ir.Reduction{}, ir.NewReductionError(seq.Pos(i+1), "OVER requires a window, got %s", describe(w))
	}
	call := ir.NewCall(seq.Operator(i), []ir.Node{left, seq.Node(i + 1)}, seq.Pos(i))
	return ir.Reduction{Start: i - 1, End: i + 1, Node: call}, nil
}

func unparseOver(w *ir.Writer, c *ir.Call, l, _ int) {
	ir.Unparse(w, c.Operand(0), l, c.Operator().LeftPrec)
	w.Keyword("OVER")
	ir.Unparse(w, c.Operand(1), 0, 0)
}

func deriveOver(v ir.Validator, c *ir.Call) (types.Type, error) {
	ordered := true
	if w, ok := c.Operand(1).(*ir.Call); ok {
		var err error
		if ordered, err = deriveWindow(v, w); err != nil {
			return types.Type{}, err
		}
	}
	return deriveAggregateSubject(v, c.Operand(0), ir.AggregateContext{Windowed: true, Ordered: ordered})
}

// deriveAggregateSubject validates n as the subject of FILTER, WITHIN
// GROUP or OVER, descending through nested wrappers to the aggregate.
func deriveAggregateSubject(v ir.Validator, n ir.Node, ctx ir.AggregateContext) (types.Type, error) {
	c, ok := n.(*ir.Call)
	if !ok {
		return types.Type{}, ir.NewNotAggregateError(n.Pos(), "aggregate context", describe(n))
	}
	switch c.Operator().Kind {
	case ir.KindFilter:
		p := c.Operand(1)
		t, err := v.DeriveType(p)
		if err != nil {
			return types.Type{}, err
		}
		if !t.IsKnown() {
			v.InferOperandType(p, types.BooleanType(true))
		} else if !types.FamilyBoolean.Contains(t) {
			return types.Type{}, ir.NewTypeCheckError(p.Pos(), 1, fmt.Sprintf("FILTER expression must be of type BOOLEAN, got %s", t))
		}
		ctx.HasFilter = true
		return deriveAggregateSubject(v, c.Operand(0), ctx)
	case ir.KindWithinGroup:
		order, _ := c.Operand(1).(*ir.NodeList)
		if order != nil {
			for _, k := range order.Items {
				if _, err := v.DeriveType(k); err != nil {
					return types.Type{}, err
				}
			}
		}
		ctx.Ordered = true
		ctx.WithinGroup = true
		return deriveAggregateSubject(v, c.Operand(0), ctx)
	}
	return v.DeriveAggregate(c, ctx)
}

// Cast is "CAST(expr AS type)". The target type is carried as a symbol
// literal in operand 1.
var Cast = &ir.Operator{
	Name: "CAST", Kind: ir.KindCast, Syntax: ir.SyntaxFunction,
	LeftPrec: precFunction, RightPrec: precFunction,
	Category:        ir.CategorySystem,
	OperandCheck:    AnyTypes(ir.Exactly(2)),
	NonExprOperands: []int{1},
	Unparse:         unparseCast,
	Derive:          deriveCast,
}

// NewCast builds CAST(expr AS spec).
func NewCast(expr ir.Node, spec string, pos ir.Pos) *ir.Call {
	return ir.NewCall(Cast, []ir.Node{expr, ir.NewLiteral(literal.Symbol{Tag: spec}, pos)}, pos)
}

func castTarget(c *ir.Call) (types.Type, error) {
	lit, ok := c.Operand(1).(*ir.LiteralNode)
	if !ok {
		return types.Type{}, fmt.Errorf("CAST target is not a type")
	}
	sym, ok := lit.Value.(literal.Symbol)
	if !ok {
		return types.Type{}, fmt.Errorf("CAST target is not a type")
	}
	return types.Parse(sym.Tag)
}

func unparseCast(w *ir.Writer, c *ir.Call, _, _ int) {
	w.FunctionName("CAST")
	w.Open()
	ir.Unparse(w, c.Operand(0), 0, 0)
	w.Keyword("AS")
	ir.Unparse(w, c.Operand(1), 0, 0)
	w.Close()
}

func deriveCast(v ir.Validator, c *ir.Call) (types.Type, error) {
	if len(c.Operands) != 2 {
		return types.Type{}, ir.NewTypeCheckError(c.Pos(), -1, "Invalid number of arguments to function 'CAST'. Was expecting 2 arguments")
	}
	target, err := castTarget(c)
	if err != nil {
		return types.Type{}, ir.NewTypeCheckError(c.Pos(), 1, err.Error())
	}
	src, err := v.DeriveType(c.Operand(0))
	if err != nil {
		return types.Type{}, err
	}
	if !src.IsKnown() {
		v.InferOperandType(c.Operand(0), target)
		return target, nil
	}
	if !types.CanCastFrom(target, src) {
		return types.Type{}, ir.NewTypeCheckError(c.Pos(), 0,
			fmt.Sprintf("Cast function cannot convert value of type %s to type %s", src, target))
	}
	return target.WithNullability(src.Nullable), nil
}

// ArgumentAssignment is "name => value" inside a function call. Operand 0
// is the parameter name, operand 1 the value.
var ArgumentAssignment = func() *ir.Operator {
	op := binary("=>", ir.KindArgumentAssignment, precAs, nil, nil)
	op.OperandInference = nil
	op.NonExprOperands = []int{0}
	op.Derive = func(v ir.Validator, c *ir.Call) (types.Type, error) {
		if _, ok := ArgumentName(c); !ok {
			return types.Type{}, ir.NewTypeCheckError(c.Pos(), 0, "argument name must be a simple identifier")
		}
		return v.DeriveType(c.Operand(1))
	}
	return op
}()

// ArgumentName returns the parameter name of a "name => value" call.
func ArgumentName(n ir.Node) (string, bool) {
	c, ok := n.(*ir.Call)
	if !ok || c.Operator().Kind != ir.KindArgumentAssignment {
		return "", false
	}
	id, ok := c.Operand(0).(*ir.Identifier)
	if !ok || !id.IsSimple() {
		return "", false
	}
	return id.Simple(), true
}
