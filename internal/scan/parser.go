package scan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/reduce"
	"github.com/roach88/polyexpr/internal/types"
)

// Parser parses expression text against one operator table. A Parser
// holds no per-call state and may be shared.
type Parser struct {
	table     *operators.Table
	reducer   *reduce.Reducer
	charset   string
	collation string
}

// Option configures a Parser.
type Option func(*Parser)

// WithReducer sets the reducer. Default: reduce.New().
func WithReducer(r *reduce.Reducer) Option {
	return func(p *Parser) { p.reducer = r }
}

// WithDefaultCharset sets the charset of string literals written without
// one.
func WithDefaultCharset(cs string) Option {
	return func(p *Parser) { p.charset = cs }
}

// WithDefaultCollation sets the collation of character literals written
// without a COLLATE clause.
func WithDefaultCollation(tag string) Option {
	return func(p *Parser) { p.collation = tag }
}

// New returns a parser over table.
func New(table *operators.Table, opts ...Option) *Parser {
	p := &Parser{table: table, reducer: reduce.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses text into a call tree.
func (p *Parser) Parse(text string) (ir.Node, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	n, err := st.expr()
	if err != nil {
		return nil, err
	}
	if err := st.expectEOF(); err != nil {
		return nil, err
	}
	return n, nil
}

// Entries returns the top-level entry sequence of text without reducing
// it. Nested groups are already reduced to operands.
func (p *Parser) Entries(text string) ([]reduce.Entry, error) {
	st, err := p.start(text)
	if err != nil {
		return nil, err
	}
	es, err := st.entries()
	if err != nil {
		return nil, err
	}
	if err := st.expectEOF(); err != nil {
		return nil, err
	}
	return es, nil
}

func (p *Parser) start(text string) (*state, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	return &state{p: p, toks: toks}, nil
}

// state is one parse of one text.
type state struct {
	p      *Parser
	toks   []token
	i      int
	params int
	depth  int

	// stops are the keywords ending the current sub-expression besides
	// ")", "," and the end of input.
	stops []string
	// ordering is set inside ORDER BY lists, where DESC, ASC and NULLS
	// are sort modifiers.
	ordering bool
}

func (s *state) peek() token {
	return s.peekAt(0)
}

func (s *state) peekAt(k int) token {
	if s.i+k >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+k]
}

func (s *state) advance() token {
	t := s.peek()
	if t.kind != tokEOF {
		s.i++
	}
	return t
}

func isWord(t token, words ...string) bool {
	if t.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func isSymbol(t token, sym string) bool {
	return t.kind == tokSymbol && t.text == sym
}

func (s *state) expectSymbol(sym string) error {
	t := s.advance()
	if !isSymbol(t, sym) {
		return ir.NewReductionError(t.pos, "expected %q, got %s", sym, t)
	}
	return nil
}

func (s *state) expectWord(word string) error {
	t := s.advance()
	if !isWord(t, word) {
		return ir.NewReductionError(t.pos, "expected %s, got %s", word, t)
	}
	return nil
}

func (s *state) expectEOF() error {
	if t := s.peek(); t.kind != tokEOF {
		return ir.NewReductionError(t.pos, "unexpected %s", t)
	}
	return nil
}

func (s *state) atStop() bool {
	t := s.peek()
	switch {
	case t.kind == tokEOF, isSymbol(t, ")"), isSymbol(t, ","):
		return true
	case t.kind == tokIdent:
		return isWord(t, s.stops...)
	}
	return false
}

// nested runs fn with its own stop words and ordering mode. Nesting
// deeper than the reducer's limit fails with DEPTH_EXCEEDED.
func (s *state) nested(stops []string, ordering bool, fn func() error) error {
	if s.depth >= s.p.reducer.MaxDepth() {
		return ir.NewDepthError(s.peek().pos, s.p.reducer.MaxDepth())
	}
	savedStops, savedOrdering := s.stops, s.ordering
	s.stops, s.ordering = stops, ordering
	s.depth++
	defer func() {
		s.stops, s.ordering = savedStops, savedOrdering
		s.depth--
	}()
	return fn()
}

// expr reduces the entries up to the next stop.
func (s *state) expr() (ir.Node, error) {
	es, err := s.entries()
	if err != nil {
		return nil, err
	}
	return s.p.reducer.Reduce(es)
}

// exprUntil parses one sub-expression that ends at ")", "," or one of
// stops.
func (s *state) exprUntil(ordering bool, stops ...string) (ir.Node, error) {
	var n ir.Node
	err := s.nested(stops, ordering, func() error {
		var err error
		n, err = s.expr()
		return err
	})
	return n, err
}

// list parses comma-separated sub-expressions. It stops before ")" or
// one of stops.
func (s *state) list(ordering bool, stops ...string) ([]ir.Node, error) {
	var items []ir.Node
	for {
		n, err := s.exprUntil(ordering, stops...)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		if !isSymbol(s.peek(), ",") {
			return items, nil
		}
		s.advance()
	}
}

// operandExpected reports whether the next entry starts an operand.
func operandExpected(es []reduce.Entry) bool {
	if len(es) == 0 {
		return true
	}
	last := es[len(es)-1]
	if !last.IsOperator() {
		return false
	}
	return last.Op.Syntax != ir.SyntaxPostfix && last.Op.Kind != ir.KindEnd
}

func (s *state) entries() ([]reduce.Entry, error) {
	var es []reduce.Entry
	for !s.atStop() {
		var err error
		if operandExpected(es) {
			es, err = s.operand(es)
		} else {
			es, err = s.operator(es)
		}
		if err != nil {
			return nil, err
		}
	}
	return es, nil
}

func (s *state) op(name string, syntax ir.Syntax, pos ir.Pos) (reduce.Entry, error) {
	op := s.p.table.Operator(name, syntax)
	if op == nil {
		return reduce.Entry{}, ir.NewReductionError(pos, "unknown %s operator %s", strings.ToLower(syntax.String()), name)
	}
	return reduce.Operator(op, pos), nil
}

// operand appends the entries of one operand position: a prefix operator,
// a CASE keyword or a primary.
func (s *state) operand(es []reduce.Entry) ([]reduce.Entry, error) {
	t := s.peek()
	switch {
	case isSymbol(t, "-"), isSymbol(t, "+"):
		s.advance()
		e, err := s.op(t.text, ir.SyntaxPrefix, t.pos)
		return append(es, e), err
	case isWord(t, "NOT"):
		s.advance()
		e, err := s.op("NOT", ir.SyntaxPrefix, t.pos)
		return append(es, e), err
	case isWord(t, "CASE", "WHEN", "THEN", "ELSE", "END"):
		s.advance()
		e, err := s.op(strings.ToUpper(t.text), ir.SyntaxSpecial, t.pos)
		return append(es, e), err
	}
	n, err := s.primary()
	if err != nil {
		return nil, err
	}
	return append(es, reduce.Operand(n)), nil
}

// operator appends the entries that follow an operand.
func (s *state) operator(es []reduce.Entry) ([]reduce.Entry, error) {
	t := s.advance()
	if t.kind == tokSymbol {
		name := t.text
		if name == "!=" {
			name = "<>"
		}
		e, err := s.op(name, ir.SyntaxBinary, t.pos)
		return append(es, e), err
	}
	if t.kind != tokIdent {
		return nil, ir.NewReductionError(t.pos, "unexpected %s", t)
	}

	word := strings.ToUpper(t.text)
	switch word {
	case "AND", "OR", "LIKE":
		e, err := s.op(word, ir.SyntaxBinary, t.pos)
		return append(es, e), err
	case "WHEN", "THEN", "ELSE", "END":
		e, err := s.op(word, ir.SyntaxSpecial, t.pos)
		return append(es, e), err
	case "NOT":
		if !isWord(s.peek(), "BETWEEN") {
			return nil, ir.NewReductionError(t.pos, "unexpected NOT")
		}
		s.advance()
		return s.between(es, "NOT BETWEEN", t.pos)
	case "BETWEEN":
		return s.between(es, "BETWEEN", t.pos)
	case "IS":
		return s.isPredicate(es, t.pos)
	case "AS":
		return s.alias(es, t.pos)
	case "FILTER":
		return s.filter(es, t.pos)
	case "WITHIN":
		return s.withinGroup(es, t.pos)
	case "OVER":
		return s.over(es, t.pos)
	}

	if s.ordering {
		switch word {
		case "ASC":
			return es, nil
		case "DESC":
			e, err := s.op("DESC", ir.SyntaxPostfix, t.pos)
			return append(es, e), err
		case "NULLS":
			next := s.advance()
			if !isWord(next, "FIRST", "LAST") {
				return nil, ir.NewReductionError(next.pos, "expected FIRST or LAST after NULLS, got %s", next)
			}
			e, err := s.op("NULLS "+strings.ToUpper(next.text), ir.SyntaxPostfix, t.pos)
			return append(es, e), err
		}
	}
	return nil, ir.NewReductionError(t.pos, "unexpected %s", t)
}

func (s *state) between(es []reduce.Entry, name string, pos ir.Pos) ([]reduce.Entry, error) {
	switch {
	case isWord(s.peek(), "SYMMETRIC"):
		s.advance()
		name += " SYMMETRIC"
	case isWord(s.peek(), "ASYMMETRIC"):
		s.advance()
	}
	e, err := s.op(name, ir.SyntaxSpecial, pos)
	return append(es, e), err
}

// isPredicate reads "IS [NOT] NULL|TRUE|FALSE".
func (s *state) isPredicate(es []reduce.Entry, pos ir.Pos) ([]reduce.Entry, error) {
	name := "IS"
	if isWord(s.peek(), "NOT") {
		s.advance()
		name += " NOT"
	}
	t := s.advance()
	if !isWord(t, "NULL", "TRUE", "FALSE") {
		return nil, ir.NewReductionError(t.pos, "expected NULL, TRUE or FALSE after %s, got %s", name, t)
	}
	e, err := s.op(name+" "+strings.ToUpper(t.text), ir.SyntaxPostfix, pos)
	return append(es, e), err
}

// alias reads "AS name [(col, ...)]".
func (s *state) alias(es []reduce.Entry, pos ir.Pos) ([]reduce.Entry, error) {
	e, err := s.op("AS", ir.SyntaxSpecial, pos)
	if err != nil {
		return nil, err
	}
	es = append(es, e)
	t := s.peek()
	if t.kind != tokIdent && t.kind != tokQuoted {
		return nil, ir.NewReductionError(t.pos, "expected alias after AS, got %s", t)
	}
	name, err := s.identifier()
	if err != nil {
		return nil, err
	}
	es = append(es, reduce.Operand(name))
	if !isSymbol(s.peek(), "(") {
		return es, nil
	}
	open := s.advance()
	cols, err := s.list(false)
	if err != nil {
		return nil, err
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return append(es, reduce.Operand(ir.NewNodeList(cols, open.pos))), nil
}

// filter reads "FILTER (WHERE condition)".
func (s *state) filter(es []reduce.Entry, pos ir.Pos) ([]reduce.Entry, error) {
	e, err := s.op("FILTER", ir.SyntaxSpecial, pos)
	if err != nil {
		return nil, err
	}
	if err := s.expectSymbol("("); err != nil {
		return nil, err
	}
	if err := s.expectWord("WHERE"); err != nil {
		return nil, err
	}
	cond, err := s.exprUntil(false)
	if err != nil {
		return nil, err
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return append(es, e, reduce.Operand(cond)), nil
}

// withinGroup reads "WITHIN GROUP (ORDER BY key, ...)".
func (s *state) withinGroup(es []reduce.Entry, pos ir.Pos) ([]reduce.Entry, error) {
	if err := s.expectWord("GROUP"); err != nil {
		return nil, err
	}
	e, err := s.op("WITHIN GROUP", ir.SyntaxSpecial, pos)
	if err != nil {
		return nil, err
	}
	open := s.peek()
	if err := s.expectSymbol("("); err != nil {
		return nil, err
	}
	if err := s.expectWord("ORDER"); err != nil {
		return nil, err
	}
	if err := s.expectWord("BY"); err != nil {
		return nil, err
	}
	keys, err := s.list(true)
	if err != nil {
		return nil, err
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return append(es, e, reduce.Operand(ir.NewNodeList(keys, open.pos))), nil
}

// over reads "OVER name" or "OVER ([PARTITION BY ...] [ORDER BY ...])".
func (s *state) over(es []reduce.Entry, pos ir.Pos) ([]reduce.Entry, error) {
	e, err := s.op("OVER", ir.SyntaxSpecial, pos)
	if err != nil {
		return nil, err
	}
	es = append(es, e)
	if !isSymbol(s.peek(), "(") {
		t := s.peek()
		if t.kind != tokIdent && t.kind != tokQuoted {
			return nil, ir.NewReductionError(t.pos, "expected window after OVER, got %s", t)
		}
		name, err := s.identifier()
		if err != nil {
			return nil, err
		}
		return append(es, reduce.Operand(name)), nil
	}

	open := s.advance()
	var partition, order []ir.Node
	if isWord(s.peek(), "PARTITION") {
		s.advance()
		if err := s.expectWord("BY"); err != nil {
			return nil, err
		}
		if partition, err = s.list(false, "ORDER"); err != nil {
			return nil, err
		}
	}
	if isWord(s.peek(), "ORDER") {
		s.advance()
		if err := s.expectWord("BY"); err != nil {
			return nil, err
		}
		if order, err = s.list(true); err != nil {
			return nil, err
		}
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return append(es, reduce.Operand(operators.NewWindow(partition, order, open.pos))), nil
}

// reservedWords never start an operand.
var reservedWords = []string{"AND", "OR", "IS", "AS", "LIKE", "BETWEEN", "FILTER", "OVER", "WITHIN"}

// primary reads one operand: a literal, parameter, identifier, function
// call or parenthesised group.
func (s *state) primary() (ir.Node, error) {
	t := s.peek()
	switch t.kind {
	case tokNumber:
		s.advance()
		lit, err := literal.ParseNumeric(t.text)
		if err != nil {
			return nil, ir.NewInvalidLiteralError(t.pos, err)
		}
		return ir.NewLiteral(lit, t.pos), nil
	case tokString:
		return s.stringLiteral()
	case tokParam:
		s.advance()
		p := ir.NewDynamicParam(s.params, t.pos)
		s.params++
		return p, nil
	case tokQuoted:
		return s.identifier()
	case tokSymbol:
		switch t.text {
		case "(":
			return s.group()
		case "*":
			s.advance()
			return ir.NewStar(nil, t.pos), nil
		}
		return nil, ir.NewReductionError(t.pos, "unexpected %s", t)
	case tokEOF:
		return nil, ir.NewReductionError(t.pos, "unexpected end of input")
	}

	word := strings.ToUpper(t.text)
	if slices.Contains(reservedWords, word) {
		return nil, ir.NewReductionError(t.pos, "unexpected %s", word)
	}
	next := s.peekAt(1)
	switch word {
	case "NULL", "TRUE", "FALSE", "UNKNOWN":
		s.advance()
		return ir.NewLiteral(literal.MustParse(word), t.pos), nil
	case "DATE", "TIME", "TIMESTAMP":
		if s.datetimeFollows(word) {
			return s.datetimeLiteral(word)
		}
	case "INTERVAL":
		return s.intervalLiteral()
	case "CAST":
		if isSymbol(next, "(") {
			return s.cast()
		}
	}
	if isSymbol(next, "(") {
		return s.call()
	}
	if op := s.p.table.Operator(word, ir.SyntaxFunctionID); op != nil {
		s.advance()
		return ir.NewCall(op, nil, t.pos), nil
	}
	return s.identifier()
}

// group reads "(expr)" or "(expr, expr, ...)"; the latter is a node list.
func (s *state) group() (ir.Node, error) {
	open := s.advance()
	items, err := s.list(false)
	if err != nil {
		return nil, err
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return ir.NewNodeList(items, open.pos), nil
}

// identifier reads a dotted name, optionally ending in ".*".
func (s *state) identifier() (ir.Node, error) {
	pos := s.peek().pos
	var names []string
	for {
		t := s.advance()
		switch t.kind {
		case tokIdent:
			names = append(names, strings.ToUpper(t.text))
		case tokQuoted:
			names = append(names, t.text)
		default:
			return nil, ir.NewReductionError(t.pos, "expected identifier, got %s", t)
		}
		if !isSymbol(s.peek(), ".") {
			return ir.NewIdentifier(names, pos), nil
		}
		s.advance()
		if isSymbol(s.peek(), "*") {
			s.advance()
			return ir.NewStar(names, pos), nil
		}
	}
}

// call reads "NAME([DISTINCT|ALL] arg, ...)" or "NAME(*)".
func (s *state) call() (ir.Node, error) {
	nameTok := s.advance()
	name := strings.ToUpper(nameTok.text)
	s.advance()

	q := ir.QuantifierNone
	switch {
	case isWord(s.peek(), "DISTINCT"):
		s.advance()
		q = ir.QuantifierDistinct
	case isWord(s.peek(), "ALL"):
		s.advance()
		q = ir.QuantifierAll
	}

	var args []ir.Node
	switch {
	case isSymbol(s.peek(), ")"):
	case isSymbol(s.peek(), "*") && isSymbol(s.peekAt(1), ")"):
		star := s.advance()
		args = []ir.Node{ir.NewStar(nil, star.pos)}
	default:
		var err error
		if args, err = s.list(false); err != nil {
			return nil, err
		}
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return ir.NewQuantifiedCall(s.functionOperator(name), q, args, nameTok.pos), nil
}

// functionOperator returns the built-in a name denotes, or a placeholder
// that validation resolves among the registered overloads.
func (s *state) functionOperator(name string) *ir.Operator {
	ops := s.p.table.Lookup(name, ir.SyntaxFunction, ir.CategoryUnspecified)
	if len(ops) == 1 && !isUserDefined(ops[0]) && ops[0].Syntax != ir.SyntaxInternal {
		return ops[0]
	}
	return operators.Placeholder(name)
}

func isUserDefined(op *ir.Operator) bool {
	return op.Category == ir.CategoryUserDefinedFunction || op.Category == ir.CategoryUserDefinedProcedure
}

// cast reads "CAST(expr AS type)".
func (s *state) cast() (ir.Node, error) {
	castTok := s.advance()
	s.advance()
	e, err := s.exprUntil(false, "AS")
	if err != nil {
		return nil, err
	}
	if err := s.expectWord("AS"); err != nil {
		return nil, err
	}
	specPos := s.peek().pos
	spec, err := s.typeWords(func(t token) bool { return isSymbol(t, ")") })
	if err != nil {
		return nil, err
	}
	if _, err := types.Parse(spec); err != nil {
		return nil, ir.NewReductionError(specPos, "invalid CAST target: %v", err)
	}
	if err := s.expectSymbol(")"); err != nil {
		return nil, err
	}
	return operators.NewCast(e, spec, castTok.pos), nil
}

// typeWords joins the tokens of a type specification or interval
// qualifier, such as "DECIMAL(10, 2)" or "DAY(2) TO SECOND(3)", up to the
// first token for which end reports true outside parentheses.
func (s *state) typeWords(end func(token) bool) (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		t := s.peek()
		if t.kind == tokEOF || (depth == 0 && end(t)) {
			break
		}
		s.advance()
		switch {
		case t.kind == tokIdent:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "(") {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.ToUpper(t.text))
		case t.kind == tokNumber:
			sb.WriteString(t.text)
		case isSymbol(t, "("):
			depth++
			sb.WriteByte('(')
		case isSymbol(t, ")"):
			depth--
			sb.WriteByte(')')
		case isSymbol(t, ","):
			sb.WriteString(", ")
		default:
			return "", ir.NewReductionError(t.pos, "unexpected %s in type", t)
		}
	}
	if sb.Len() == 0 {
		return "", ir.NewReductionError(s.peek().pos, "expected type, got %s", s.peek())
	}
	return sb.String(), nil
}

var timeZoneWords = []string{"WITH", "LOCAL", "TIME", "ZONE"}

func (s *state) timeZoneFollows(k int) bool {
	for j, w := range timeZoneWords {
		if !isWord(s.peekAt(k+j), w) {
			return false
		}
	}
	return true
}

// datetimeFollows reports whether the keyword at the cursor starts a
// DATE, TIME or TIMESTAMP literal rather than naming a column.
func (s *state) datetimeFollows(kw string) bool {
	if s.peekAt(1).kind == tokString && s.peekAt(1).prefix == "" {
		return true
	}
	return kw != "DATE" && s.timeZoneFollows(1) && s.peekAt(5).kind == tokString
}

func (s *state) datetimeLiteral(kw string) (ir.Node, error) {
	start := s.advance()
	text := kw
	if s.timeZoneFollows(0) {
		s.i += len(timeZoneWords)
		text += " WITH LOCAL TIME ZONE"
	}
	body := s.advance()
	lit, err := literal.Parse(text + " " + literal.QuoteString(body.text))
	if err != nil {
		return nil, ir.NewInvalidLiteralError(start.pos, err)
	}
	return ir.NewLiteral(lit, start.pos), nil
}

var intervalWords = []string{"YEAR", "MONTH", "DAY", "HOUR", "MINUTE", "SECOND", "TO"}

// intervalLiteral reads "INTERVAL [+|-] 'raw' qualifier".
func (s *state) intervalLiteral() (ir.Node, error) {
	start := s.advance()
	sign := ""
	if t := s.peek(); isSymbol(t, "-") || isSymbol(t, "+") {
		s.advance()
		sign = t.text
	}
	body := s.advance()
	if body.kind != tokString || body.prefix != "" {
		return nil, ir.NewReductionError(body.pos, "expected interval string, got %s", body)
	}
	qualifier, err := s.typeWords(func(t token) bool {
		return !isWord(t, intervalWords...) && !isSymbol(t, "(")
	})
	if err != nil {
		return nil, err
	}
	lit, err := literal.Parse("INTERVAL " + sign + literal.QuoteString(body.text) + " " + qualifier)
	if err != nil {
		return nil, ir.NewInvalidLiteralError(start.pos, err)
	}
	return ir.NewLiteral(lit, start.pos), nil
}

// stringLiteral reads a string literal, the adjacent strings it
// concatenates with and its UESCAPE and COLLATE clauses.
func (s *state) stringLiteral() (ir.Node, error) {
	first := s.peek()
	var parts []literal.Literal
	for {
		t := s.peek()
		if t.kind != tokString || (len(parts) > 0 && t.prefix != "" && !strings.EqualFold(t.prefix, first.prefix)) {
			break
		}
		s.advance()
		lit, err := s.stringPart(t, first.prefix)
		if err != nil {
			return nil, err
		}
		parts = append(parts, lit)
	}
	lit, err := literal.ConcatStrings(parts)
	if err != nil {
		return nil, ir.NewInvalidLiteralError(first.pos, err)
	}

	if first.prefix == "U&" {
		if lit, err = s.unicodeEscape(lit.(literal.CharString)); err != nil {
			return nil, ir.NewInvalidLiteralError(first.pos, err)
		}
	}

	cs, isChar := lit.(literal.CharString)
	collation := s.p.collation
	if isWord(s.peek(), "COLLATE") {
		kw := s.advance()
		if !isChar {
			return nil, ir.NewReductionError(kw.pos, "COLLATE applies to character strings only")
		}
		t := s.advance()
		if t.kind != tokIdent && t.kind != tokQuoted && t.kind != tokString {
			return nil, ir.NewReductionError(t.pos, "expected collation after COLLATE, got %s", t)
		}
		collation = t.text
	}
	if isChar && collation != "" {
		if lit, err = literal.NewCharString(cs.Text, cs.Charset, collation); err != nil {
			return nil, ir.NewInvalidLiteralError(first.pos, err)
		}
	}
	return ir.NewLiteral(lit, first.pos), nil
}

func (s *state) stringPart(t token, prefix string) (literal.Literal, error) {
	var (
		lit literal.Literal
		err error
	)
	switch {
	case strings.EqualFold(prefix, "X"):
		lit, err = literal.NewBinaryString(t.text)
	case strings.HasPrefix(prefix, "_"):
		lit, err = literal.NewCharString(t.text, prefix[1:], "")
	case prefix == "U&":
		lit, err = literal.NewCharString(t.text, "", "")
	default:
		lit, err = literal.NewCharString(t.text, s.p.charset, "")
	}
	if err != nil {
		return nil, ir.NewInvalidLiteralError(t.pos, err)
	}
	return lit, nil
}

// unicodeEscape applies "UESCAPE 'c'" or the default backslash escape.
func (s *state) unicodeEscape(c literal.CharString) (literal.Literal, error) {
	escape := '\\'
	if isWord(s.peek(), "UESCAPE") {
		s.advance()
		t := s.advance()
		runes := []rune(t.text)
		if t.kind != tokString || len(runes) != 1 {
			return nil, fmt.Errorf("UESCAPE requires a single character, got %s", t)
		}
		if slices.Contains([]rune("0123456789abcdefABCDEF+'\" \t\n"), runes[0]) {
			return nil, fmt.Errorf("invalid UESCAPE character %q", runes[0])
		}
		escape = runes[0]
	}
	cs, err := literal.UnescapeUnicode(c, escape)
	if err != nil {
		return nil, err
	}
	return cs, nil
}
