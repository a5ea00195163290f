// Package reduce turns a flat sequence of operands and operator
// occurrences into a call tree by precedence climbing.
//
// Each step picks the reducible operator with the highest left binding
// power (leftmost on ties) and replaces the span it covers with a single
// node. Binary, prefix and postfix operators cover their neighbours;
// special operators (BETWEEN, CASE, AS, FILTER, WITHIN GROUP, OVER) run
// their reduce hook, which may reduce sub-ranges through the Sequence it
// is handed.
//
// INVARIANTS:
//   - every step strictly shrinks the sequence; a hook that does not is an
//     ir.InvariantViolation panic
//   - more than one entry with nothing reducible is a reduction error
//   - nesting beyond the maximum depth fails with DEPTH_EXCEEDED as soon
//     as a node that tall is built
package reduce

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
)

// DefaultMaxDepth bounds both sub-range recursion and the height of the
// produced tree.
const DefaultMaxDepth = 256

// Entry is one element of the input sequence: an operand node or an
// operator occurrence.
type Entry struct {
	Op   *ir.Operator
	Node ir.Node
	Pos  ir.Pos
}

// Operand returns an operand entry.
func Operand(n ir.Node) Entry {
	return Entry{Node: n, Pos: n.Pos()}
}

// Operator returns an operator occurrence at pos.
func Operator(op *ir.Operator, pos ir.Pos) Entry {
	return Entry{Op: op, Pos: pos}
}

// IsOperator reports whether the entry is an operator occurrence.
func (e Entry) IsOperator() bool {
	return e.Op != nil
}

func (e Entry) String() string {
	if e.Op != nil {
		return e.Op.Name
	}
	if e.Node == nil {
		return "<nil>"
	}
	return ir.String(e.Node)
}

// Reducer reduces entry sequences. A Reducer holds no per-call state and
// may be shared.
type Reducer struct {
	maxDepth int
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithMaxDepth sets the nesting limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(r *Reducer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// New returns a reducer.
func New(opts ...Option) *Reducer {
	r := &Reducer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the nesting limit.
func (r *Reducer) MaxDepth() int {
	return r.maxDepth
}

// Reduce reduces entries with the default reducer.
func Reduce(entries []Entry) (ir.Node, error) {
	return New().Reduce(entries)
}

// Reduce reduces entries to a single node. The input slice is not
// modified.
func (r *Reducer) Reduce(entries []Entry) (ir.Node, error) {
	rn := &run{maxDepth: r.maxDepth, heights: make(map[ir.Node]int)}
	n, err := rn.reduce(slices.Clone(entries), 0)
	if err != nil {
		return nil, err
	}
	if rn.height(n) > r.maxDepth {
		return nil, ir.NewDepthError(n.Pos(), r.maxDepth)
	}
	return n, nil
}

// run is the state of one Reduce call: the nesting limit and the heights
// of the nodes built so far.
type run struct {
	maxDepth int
	heights  map[ir.Node]int
}

func (rn *run) reduce(entries []Entry, depth int) (ir.Node, error) {
	if len(entries) == 0 {
		return nil, ir.NewReductionError(ir.Pos{}, "empty expression")
	}
	if depth > rn.maxDepth {
		return nil, ir.NewDepthError(entries[0].Pos, rn.maxDepth)
	}
	s := &sequence{entries: entries, run: rn, depth: depth}
	for len(s.entries) > 1 || s.entries[0].IsOperator() {
		i := s.pick()
		if i < 0 {
			return nil, s.stuck()
		}
		if err := s.step(i); err != nil {
			return nil, err
		}
	}
	return s.entries[0].Node, nil
}

// height returns the height of the tree rooted at n. Heights are
// remembered, so a node built from already measured operands costs one
// look at each operand.
func (rn *run) height(n ir.Node) int {
	if n == nil {
		return 0
	}
	if h, ok := rn.heights[n]; ok {
		return h
	}
	h := 1
	switch n := n.(type) {
	case *ir.Call:
		for _, o := range n.Operands {
			h = max(h, rn.height(o)+1)
		}
	case *ir.NodeList:
		for _, it := range n.Items {
			h = max(h, rn.height(it)+1)
		}
	}
	rn.heights[n] = h
	return h
}

// sequence is the mutable entry list of one reduce call. It implements
// ir.Sequence for reduce hooks.
type sequence struct {
	entries []Entry
	run     *run
	depth   int
}

func (s *sequence) Len() int { return len(s.entries) }

func (s *sequence) IsOperator(i int) bool {
	return i >= 0 && i < len(s.entries) && s.entries[i].IsOperator()
}

func (s *sequence) Operator(i int) *ir.Operator {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i].Op
}

func (s *sequence) Node(i int) ir.Node {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i].Node
}

func (s *sequence) Pos(i int) ir.Pos {
	if i < 0 || i >= len(s.entries) {
		if len(s.entries) == 0 {
			return ir.Pos{}
		}
		return s.entries[len(s.entries)-1].Pos
	}
	return s.entries[i].Pos
}

func (s *sequence) isNode(i int) bool {
	return i >= 0 && i < len(s.entries) && !s.entries[i].IsOperator()
}

// winsLeft reports whether the operator at i binds its left operand
// tighter than the operator before that operand.
func (s *sequence) winsLeft(i int) bool {
	if !s.IsOperator(i - 2) {
		return true
	}
	return s.entries[i].Op.LeftPrec > s.entries[i-2].Op.RightPrec
}

// winsRight reports whether the operator at i binds its right operand at
// least as tightly as the operator after that operand.
func (s *sequence) winsRight(i int) bool {
	if !s.IsOperator(i + 2) {
		return true
	}
	return s.entries[i].Op.RightPrec >= s.entries[i+2].Op.LeftPrec
}

func (s *sequence) reducible(i int) bool {
	op := s.entries[i].Op
	leftNode := s.isNode(i - 1)
	rightNode := s.isNode(i + 1)
	prefixPos := i == 0 || s.IsOperator(i-1)
	switch op.Syntax {
	case ir.SyntaxBinary:
		return leftNode && rightNode && s.winsLeft(i) && s.winsRight(i)
	case ir.SyntaxPrefix:
		return prefixPos && rightNode && s.winsRight(i)
	case ir.SyntaxPostfix:
		return leftNode && s.winsLeft(i)
	case ir.SyntaxSpecial:
		return (leftNode && s.winsLeft(i)) || prefixPos
	}
	return false
}

// pick returns the reducible operator with the highest left precedence,
// leftmost on ties, or -1.
func (s *sequence) pick() int {
	best := -1
	for i, e := range s.entries {
		if !e.IsOperator() || !s.reducible(i) {
			continue
		}
		if best < 0 || e.Op.LeftPrec > s.entries[best].Op.LeftPrec {
			best = i
		}
	}
	return best
}

func (s *sequence) stuck() error {
	parts := make([]string, len(s.entries))
	for i, e := range s.entries {
		parts[i] = e.String()
	}
	pos := s.entries[0].Pos
	for _, e := range s.entries {
		if e.IsOperator() {
			pos = e.Pos
			break
		}
	}
	return ir.NewReductionError(pos, "cannot reduce [%s]", strings.Join(parts, " "))
}

// step reduces the operator at i and splices the result in.
func (s *sequence) step(i int) error {
	before := len(s.entries)
	op := s.entries[i].Op
	red, err := s.apply(i)
	if err != nil {
		return err
	}
	if red.Node == nil || red.Start < 0 || red.End >= len(s.entries) || red.Start > red.End {
		panic(ir.InvariantViolation{Message: fmt.Sprintf("%s reduced invalid span [%d, %d] of %d entries", op.Name, red.Start, red.End, len(s.entries))})
	}
	if err := s.splice(red.Start, red.End+1, red.Node); err != nil {
		return err
	}
	if len(s.entries) >= before {
		panic(ir.InvariantViolation{Message: fmt.Sprintf("reducing %s did not shrink the sequence", op.Name)})
	}
	slog.Debug("reduced operator",
		"op", op.Name,
		"start", red.Start,
		"end", red.End,
		"remaining", len(s.entries))
	return nil
}

func (s *sequence) apply(i int) (ir.Reduction, error) {
	e := s.entries[i]
	op := e.Op
	switch op.Syntax {
	case ir.SyntaxBinary:
		n := ir.NewCall(op, []ir.Node{s.entries[i-1].Node, s.entries[i+1].Node}, e.Pos)
		return ir.Reduction{Start: i - 1, End: i + 1, Node: n}, nil
	case ir.SyntaxPrefix:
		n := ir.NewCall(op, []ir.Node{s.entries[i+1].Node}, e.Pos)
		return ir.Reduction{Start: i, End: i + 1, Node: n}, nil
	case ir.SyntaxPostfix:
		n := ir.NewCall(op, []ir.Node{s.entries[i-1].Node}, e.Pos)
		return ir.Reduction{Start: i - 1, End: i, Node: n}, nil
	case ir.SyntaxSpecial:
		return op.Reduce(s, i)
	}
	return ir.Reduction{}, ir.NewReductionError(e.Pos, "%s cannot appear as an operator", op.Name)
}

// splice replaces entries[start:end] with n. A node taller than the
// nesting limit fails here, before anything is built on top of it.
func (s *sequence) splice(start, end int, n ir.Node) error {
	if s.run.height(n) > s.run.maxDepth {
		return ir.NewDepthError(n.Pos(), s.run.maxDepth)
	}
	s.entries = slices.Replace(s.entries, start, end, Operand(n))
	return nil
}

// ReduceRange reduces the entries from start up to the first stop and
// splices the result in at start. CASE ... END pairs nest: stops inside
// them are ignored. An operator binding looser than minPrec ends the range
// only in infix or postfix position.
func (s *sequence) ReduceRange(start, minPrec int, stop ...ir.Kind) (ir.Node, error) {
	if start < 0 || start >= len(s.entries) {
		return nil, ir.NewReductionError(s.Pos(start), "missing operand")
	}
	end := len(s.entries)
	nesting := 0
	for k := start; k < len(s.entries); k++ {
		op := s.entries[k].Op
		if op == nil {
			continue
		}
		if op.Kind == ir.KindCase {
			nesting++
			continue
		}
		if op.Kind == ir.KindEnd && nesting > 0 {
			nesting--
			continue
		}
		if nesting > 0 {
			continue
		}
		if slices.Contains(stop, op.Kind) {
			end = k
			break
		}
		if minPrec > 0 && s.isNode(k-1) && k > start && op.LeftPrec < minPrec {
			end = k
			break
		}
	}
	if end == start {
		return nil, ir.NewReductionError(s.entries[start].Pos, "missing operand before %s", s.entries[start].Op.Name)
	}
	n, err := s.run.reduce(slices.Clone(s.entries[start:end]), s.depth+1)
	if err != nil {
		return nil, err
	}
	if err := s.splice(start, end, n); err != nil {
		return nil, err
	}
	return n, nil
}
