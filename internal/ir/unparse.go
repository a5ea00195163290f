package ir

// Unparse renders n in a context with the given binding powers. A call is
// wrapped in parentheses iff
//
//	leftPrec > op.LeftPrec || (rightPrec != 0 && op.RightPrec <= rightPrec)
func Unparse(w *Writer, n Node, leftPrec, rightPrec int) {
	switch n := n.(type) {
	case *LiteralNode:
		w.Literal(n.Value.String())
	case *Identifier:
		w.Identifier(n.String())
	case *DynamicParam:
		w.Literal("?")
	case *NodeList:
		w.List(n.Items)
	case *Call:
		unparseCall(w, n, leftPrec, rightPrec)
	}
}

// NeedsParens reports whether a call to op needs parentheses in a context.
func NeedsParens(op *Operator, leftPrec, rightPrec int) bool {
	return leftPrec > op.LeftPrec || (rightPrec != 0 && op.RightPrec <= rightPrec)
}

func unparseCall(w *Writer, c *Call, leftPrec, rightPrec int) {
	op := c.Operator()
	if NeedsParens(op, leftPrec, rightPrec) {
		w.Open()
		unparseCallBody(w, c, 0, 0)
		w.Close()
		return
	}
	unparseCallBody(w, c, leftPrec, rightPrec)
}

func unparseCallBody(w *Writer, c *Call, leftPrec, rightPrec int) {
	op := c.Operator()
	if op.Unparse != nil {
		op.Unparse(w, c, leftPrec, rightPrec)
		return
	}
	switch op.Syntax {
	case SyntaxBinary:
		UnparseBinary(w, c, leftPrec, rightPrec)
	case SyntaxPrefix:
		UnparsePrefix(w, c, rightPrec)
	case SyntaxPostfix:
		UnparsePostfix(w, c, leftPrec)
	case SyntaxFunctionID:
		if len(c.Operands) == 0 {
			w.Keyword(op.Name)
			return
		}
		UnparseFunction(w, c)
	case SyntaxFunction, SyntaxFunctionStar, SyntaxInternal, SyntaxSpecial:
		UnparseFunction(w, c)
	}
}

// UnparseBinary renders "left OP right". With equal left and right
// precedence the right operand is parenthesized when it is another call of
// the same precedence, since the chain is non-associative.
func UnparseBinary(w *Writer, c *Call, leftPrec, rightPrec int) {
	op := c.Operator()
	right := op.RightPrec
	if op.LeftPrec == op.RightPrec {
		right++
	}
	Unparse(w, c.Operand(0), leftPrec, op.LeftPrec)
	w.Symbol(op.Name)
	Unparse(w, c.Operand(1), right, rightPrec)
}

// UnparsePrefix renders "OP operand". Symbolic operators are glued to the
// operand; keyword operators are followed by a space.
func UnparsePrefix(w *Writer, c *Call, rightPrec int) {
	op := c.Operator()
	if isSymbolic(op.Name) {
		w.PrefixSymbol(op.Name)
	} else {
		w.Keyword(op.Name)
	}
	Unparse(w, c.Operand(0), op.RightPrec, rightPrec)
}

// UnparsePostfix renders "operand OP".
func UnparsePostfix(w *Writer, c *Call, leftPrec int) {
	op := c.Operator()
	Unparse(w, c.Operand(0), leftPrec, op.LeftPrec)
	w.Keyword(op.Name)
}

// UnparseFunction renders "NAME([DISTINCT|ALL] arg, ...)".
func UnparseFunction(w *Writer, c *Call) {
	w.FunctionName(c.Operator().Name)
	w.Open()
	if c.Quantifier != QuantifierNone {
		w.Keyword(c.Quantifier.String())
	}
	w.List(c.Operands)
	w.Close()
}

func isSymbolic(name string) bool {
	for _, r := range name {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' {
			return false
		}
	}
	return name != ""
}
