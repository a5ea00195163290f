package validate

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/resolve"
	"github.com/roach88/polyexpr/internal/types"
)

// DefaultMaxDepth bounds the recursion of one validation walk.
const DefaultMaxDepth = 256

// IdentifierResolver types a column reference. It is the session's only
// view of the catalog.
type IdentifierResolver func(names []string) (types.Type, error)

// IDGenerator produces session IDs. Implemented by UUIDv7Generator
// (production) and testutil.FixedIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Session validates one statement. It derives and caches a type for every
// node it visits and rewrites placeholder calls to the routine overload
// resolution picks.
//
// Thread-safety model:
//   - a Session and the trees it validates belong to one goroutine
//   - the operator table it reads is immutable and may be shared
//
// INVARIANTS:
//   - only the session's Rebinder changes the operator of a call
//   - a call is validated at most once; its type is cached by NodeID
//   - PushFunctionCall and PopFunctionCall always pair up
type Session struct {
	id          string
	table       *operators.Table
	resolver    *resolve.Resolver
	rebinder    *ir.Rebinder
	identifiers IdentifierResolver
	logger      *slog.Logger
	groupCount  int
	maxDepth    int

	callDepth  int
	depth      int
	aggregates int
	derived    map[ir.NodeID]types.Type
	params     []*ir.DynamicParam
	seenParams map[ir.NodeID]bool
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	ids         IDGenerator
	identifiers IdentifierResolver
	logger      *slog.Logger
	groupCount  int
	maxDepth    int
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) { c.logger = l }
}

// WithIdentifierResolver sets the catalog adapter used to type column
// references. Without one, every non-star identifier is unknown.
func WithIdentifierResolver(r IdentifierResolver) Option {
	return func(c *sessionConfig) { c.identifiers = r }
}

// WithGroupCount sets the number of GROUP BY keys seen by aggregates that
// are not under FILTER, WITHIN GROUP or OVER.
//
// Default: -1 (not an aggregate query). Use 0 for an aggregate query
// without GROUP BY, where an aggregate may see no rows.
func WithGroupCount(n int) Option {
	return func(c *sessionConfig) { c.groupCount = n }
}

// WithMaxDepth bounds the validation recursion. Values below 1 keep the
// default.
func WithMaxDepth(n int) Option {
	return func(c *sessionConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithIDGenerator sets the source of session IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *sessionConfig) { c.ids = g }
}

// NewSession creates a session over table.
func NewSession(table *operators.Table, opts ...Option) *Session {
	cfg := sessionConfig{
		ids:        UUIDv7Generator{},
		logger:     slog.Default(),
		groupCount: -1,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	id := cfg.ids.Generate()
	return &Session{
		id:          id,
		table:       table,
		resolver:    resolve.New(table),
		rebinder:    ir.NewRebinder(id),
		identifiers: cfg.identifiers,
		logger:      cfg.logger.With("session", id),
		groupCount:  cfg.groupCount,
		maxDepth:    cfg.maxDepth,
		derived:     make(map[ir.NodeID]types.Type),
		seenParams:  make(map[ir.NodeID]bool),
	}
}

// ID returns the session ID stamped on every call the session rebinds.
func (s *Session) ID() string {
	return s.id
}

// Table returns the operator table.
func (s *Session) Table() *operators.Table {
	return s.table
}

// PushFunctionCall enters a function call.
func (s *Session) PushFunctionCall() {
	s.callDepth++
}

// PopFunctionCall leaves a function call. Popping more calls than were
// pushed is an invariant violation.
func (s *Session) PopFunctionCall() {
	if s.callDepth == 0 {
		panic(ir.InvariantViolation{Message: "PopFunctionCall without matching PushFunctionCall"})
	}
	s.callDepth--
}

// FunctionCallDepth returns the number of calls currently being
// validated. Zero means the session is idle.
func (s *Session) FunctionCallDepth() int {
	return s.callDepth
}

// DerivedType returns the cached type of a node.
func (s *Session) DerivedType(id ir.NodeID) (types.Type, bool) {
	t, ok := s.derived[id]
	return t, ok
}

// Validate derives the type of root and every node beneath it. Any
// dynamic parameter whose type could not be inferred is an error.
func (s *Session) Validate(root ir.Node) (types.Type, error) {
	t, err := s.DeriveType(root)
	if err != nil {
		s.logger.Debug("validation failed", "code", ir.ErrorCodeOf(err), "error", err)
		return types.Type{}, err
	}
	for _, p := range s.params {
		if pt := s.typeOf(p); !pt.IsKnown() {
			return types.Type{}, ir.NewTypeCheckError(p.Pos(), -1, "Illegal use of dynamic parameter")
		}
	}
	s.logger.Debug("expression validated",
		"type", t.String(),
		"nodes", len(s.derived),
		"params", len(s.params))
	return t, nil
}

// typeOf returns the cached type of n, or UNKNOWN.
func (s *Session) typeOf(n ir.Node) types.Type {
	if n == nil {
		return types.UnknownType()
	}
	if t, ok := s.derived[n.ID()]; ok {
		return t
	}
	return types.UnknownType()
}

// DeriveType validates n and returns its type. Results are cached, so
// deriving a node twice does not repeat the work.
func (s *Session) DeriveType(n ir.Node) (types.Type, error) {
	if n == nil {
		return types.Type{}, ir.NewReductionError(ir.Pos{}, "missing operand")
	}
	if t, ok := s.derived[n.ID()]; ok {
		return t, nil
	}
	s.depth++
	defer func() { s.depth-- }()
	if s.depth > s.maxDepth {
		return types.Type{}, ir.NewDepthError(n.Pos(), s.maxDepth)
	}

	t, err := s.derive(n)
	if err != nil {
		return types.Type{}, err
	}
	if _, param := n.(*ir.DynamicParam); param && !t.IsKnown() {
		return t, nil
	}
	s.derived[n.ID()] = t
	return t, nil
}

func (s *Session) derive(n ir.Node) (types.Type, error) {
	switch n := n.(type) {
	case *ir.LiteralNode:
		return n.Value.Type(), nil
	case *ir.Identifier:
		return s.deriveIdentifier(n)
	case *ir.DynamicParam:
		if !s.seenParams[n.ID()] {
			s.seenParams[n.ID()] = true
			s.params = append(s.params, n)
		}
		return types.UnknownType(), nil
	case *ir.NodeList:
		for _, it := range n.Items {
			if _, err := s.DeriveType(it); err != nil {
				return types.Type{}, err
			}
		}
		return types.ColumnListType(), nil
	case *ir.Call:
		return s.deriveCall(n)
	}
	panic(ir.InvariantViolation{Message: fmt.Sprintf("unknown node type %T", n)})
}

func (s *Session) deriveIdentifier(n *ir.Identifier) (types.Type, error) {
	if n.Star {
		return types.AnyType(false), nil
	}
	if s.identifiers == nil {
		return types.Type{}, ir.NewUnknownIdentifierError(n.Pos(), n.String(), nil)
	}
	t, err := s.identifiers(n.Names)
	if err != nil {
		return types.Type{}, ir.NewUnknownIdentifierError(n.Pos(), n.String(), err)
	}
	return t, nil
}

func (s *Session) deriveCall(c *ir.Call) (types.Type, error) {
	s.PushFunctionCall()
	defer s.PopFunctionCall()

	op := c.Operator()
	if op.Derive != nil && !op.Placeholder {
		if c.Quantifier != ir.QuantifierNone {
			return types.Type{}, ir.NewQuantifierError(c.Pos(), c.Quantifier, op.Name)
		}
		return op.Derive(s, c)
	}
	return s.deriveRoutine(c, nil)
}

// DeriveAggregate validates an aggregate call that is the subject of
// FILTER, WITHIN GROUP or OVER.
func (s *Session) DeriveAggregate(c *ir.Call, ctx ir.AggregateContext) (types.Type, error) {
	if t, ok := s.derived[c.ID()]; ok {
		return t, nil
	}
	s.PushFunctionCall()
	defer s.PopFunctionCall()

	t, err := s.deriveRoutine(c, &ctx)
	if err != nil {
		return types.Type{}, err
	}
	s.derived[c.ID()] = t
	return t, nil
}

// InferOperandType records t as the type of an uninferred dynamic
// parameter. Other nodes, and parameters whose type is already known, are
// left alone.
func (s *Session) InferOperandType(n ir.Node, t types.Type) {
	p, ok := n.(*ir.DynamicParam)
	if !ok || !t.IsKnown() || s.typeOf(p).IsKnown() {
		return
	}
	s.derived[p.ID()] = t
	s.logger.Debug("inferred parameter type",
		"index", p.Index,
		"type", t.String())
}

var _ ir.Validator = (*Session)(nil)
