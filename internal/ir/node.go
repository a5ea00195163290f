package ir

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/roach88/polyexpr/internal/literal"
)

// Pos is a 1-based source position. The zero Pos means unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "unknown position"
	}
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// NodeID identifies a node for the lifetime of the process.
type NodeID uint64

var lastNodeID atomic.Uint64

func nextNodeID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

// Node is a call tree node.
// Sealed: only *LiteralNode, *Identifier, *Call, *NodeList and
// *DynamicParam implement it.
type Node interface {
	node()

	// ID returns the node's identity, used as the derived-type cache key.
	ID() NodeID

	// Pos returns the source position of the node.
	Pos() Pos

	// Clone deep-copies the subtree with fresh IDs.
	Clone() Node
}

type header struct {
	id  NodeID
	pos Pos
}

func newHeader(pos Pos) header {
	return header{id: nextNodeID(), pos: pos}
}

func (h *header) ID() NodeID { return h.id }
func (h *header) Pos() Pos   { return h.pos }

// LiteralNode wraps a literal constant.
type LiteralNode struct {
	header
	Value literal.Literal
}

// NewLiteral creates a literal node.
func NewLiteral(v literal.Literal, pos Pos) *LiteralNode {
	return &LiteralNode{header: newHeader(pos), Value: v}
}

func (*LiteralNode) node() {}

func (n *LiteralNode) Clone() Node {
	return NewLiteral(n.Value, n.pos)
}

// Identifier is a possibly qualified name. Star marks "t.*" or "*"; the
// star is not part of Names.
type Identifier struct {
	header
	Names []string
	Star  bool
}

// NewIdentifier creates an identifier from its name parts.
func NewIdentifier(names []string, pos Pos) *Identifier {
	return &Identifier{header: newHeader(pos), Names: append([]string(nil), names...)}
}

// NewStar creates "*" or "prefix.*".
func NewStar(prefix []string, pos Pos) *Identifier {
	id := NewIdentifier(prefix, pos)
	id.Star = true
	return id
}

func (*Identifier) node() {}

func (n *Identifier) Clone() Node {
	c := NewIdentifier(n.Names, n.pos)
	c.Star = n.Star
	return c
}

// IsSimple reports whether the identifier is a single unqualified name.
func (n *Identifier) IsSimple() bool {
	return len(n.Names) == 1 && !n.Star
}

// Simple returns the last name part.
func (n *Identifier) Simple() string {
	if len(n.Names) == 0 {
		return ""
	}
	return n.Names[len(n.Names)-1]
}

func (n *Identifier) String() string {
	parts := append([]string(nil), n.Names...)
	if n.Star {
		parts = append(parts, "*")
	}
	return strings.Join(parts, ".")
}

// Quantifier is the DISTINCT/ALL marker of a function call.
type Quantifier int

const (
	QuantifierNone Quantifier = iota
	QuantifierDistinct
	QuantifierAll
)

func (q Quantifier) String() string {
	switch q {
	case QuantifierDistinct:
		return "DISTINCT"
	case QuantifierAll:
		return "ALL"
	}
	return ""
}

// Call applies an operator to operands.
type Call struct {
	header
	op         *Operator
	owner      string
	Operands   []Node
	Quantifier Quantifier
}

// NewCall creates a call. A nil operator is an invariant violation.
func NewCall(op *Operator, operands []Node, pos Pos) *Call {
	if op == nil {
		panic(InvariantViolation{Message: "call created without an operator"})
	}
	return &Call{header: newHeader(pos), op: op, Operands: operands}
}

// NewQuantifiedCall creates a call with a DISTINCT/ALL quantifier.
func NewQuantifiedCall(op *Operator, q Quantifier, operands []Node, pos Pos) *Call {
	c := NewCall(op, operands, pos)
	c.Quantifier = q
	return c
}

func (*Call) node() {}

// Operator returns the operator the call applies.
func (c *Call) Operator() *Operator {
	return c.op
}

// Operand returns operand i, or nil if out of range.
func (c *Call) Operand(i int) Node {
	if i < 0 || i >= len(c.Operands) {
		return nil
	}
	return c.Operands[i]
}

func (c *Call) Clone() Node {
	ops := make([]Node, len(c.Operands))
	for i, o := range c.Operands {
		if o != nil {
			ops[i] = o.Clone()
		}
	}
	return NewQuantifiedCall(c.op, c.Quantifier, ops, c.pos)
}

// NodeList is an ordered list of nodes used where a construct takes a list
// in one operand position (CASE branches, window keys, column lists).
type NodeList struct {
	header
	Items []Node
}

// NewNodeList creates a list node.
func NewNodeList(items []Node, pos Pos) *NodeList {
	return &NodeList{header: newHeader(pos), Items: items}
}

func (*NodeList) node() {}

func (n *NodeList) Clone() Node {
	items := make([]Node, len(n.Items))
	for i, it := range n.Items {
		items[i] = it.Clone()
	}
	return NewNodeList(items, n.pos)
}

// DynamicParam is a "?" placeholder. Index is 0-based in order of
// appearance.
type DynamicParam struct {
	header
	Index int
}

// NewDynamicParam creates a dynamic parameter node.
func NewDynamicParam(index int, pos Pos) *DynamicParam {
	return &DynamicParam{header: newHeader(pos), Index: index}
}

func (*DynamicParam) node() {}

func (n *DynamicParam) Clone() Node {
	return NewDynamicParam(n.Index, n.pos)
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Call:
		for _, o := range n.Operands {
			Walk(o, fn)
		}
	case *NodeList:
		for _, it := range n.Items {
			Walk(it, fn)
		}
	case *LiteralNode, *Identifier, *DynamicParam:
	}
}

// Depth returns the height of the tree rooted at n.
func Depth(n Node) int {
	switch n := n.(type) {
	case *Call:
		d := 0
		for _, o := range n.Operands {
			d = max(d, Depth(o))
		}
		return d + 1
	case *NodeList:
		d := 0
		for _, it := range n.Items {
			d = max(d, Depth(it))
		}
		return d + 1
	case *LiteralNode, *Identifier, *DynamicParam:
		return 1
	}
	return 0
}

// IsLiteral reports whether n is a literal, or a CAST of a literal when
// lookThroughCast is set. The returned literal is the innermost value.
func IsLiteral(n Node, lookThroughCast bool) (literal.Literal, bool) {
	switch n := n.(type) {
	case *LiteralNode:
		return n.Value, true
	case *Call:
		if lookThroughCast && n.op.Kind == KindCast && len(n.Operands) > 0 {
			return IsLiteral(n.Operands[0], true)
		}
	}
	return nil, false
}

// String renders a node with minimal parentheses.
func String(n Node) string {
	w := NewWriter()
	Unparse(w, n, 0, 0)
	return w.String()
}
