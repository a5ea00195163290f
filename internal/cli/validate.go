package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/catalog"
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	GroupCount int
	Record     bool
}

// ValidateResult is the JSON output of a successful validation.
type ValidateResult struct {
	Expression  string     `json:"expression"`
	Type        string     `json:"type"`
	Fingerprint string     `json:"fingerprint"`
	Calls       []CallType `json:"calls"`
	Seq         int64      `json:"seq,omitempty"` // history row, with --record

	tree treeText
}

// CallType is the resolved operator and derived type of one call.
type CallType struct {
	Expr     string `json:"expr"`
	Operator string `json:"operator"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// Text implements Texter.
func (r ValidateResult) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "type: %s\n", r.Type)
	fmt.Fprintf(&sb, "fingerprint: %s\n", r.Fingerprint)
	sb.WriteString(r.tree.Text())
	return sb.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <expression>",
		Short: "Resolve and type-check an expression",
		Long: `Reduce an expression, resolve every function call to one overload and
derive the type of every node.

Column references are typed by the catalog (--catalog). Aggregates outside
FILTER, WITHIN GROUP and OVER see --group-count GROUP BY keys; -1 means the
expression is not part of an aggregate query.

Exit codes:
  0 - expression is valid
  1 - reduction, resolution or type check failed
  2 - command error (bad config, missing catalog)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GroupCount, "group-count", -1, "GROUP BY key count seen by aggregates")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "append the run to the catalog history")

	return cmd
}

func runValidate(rootOpts *RootOptions, opts *ValidateOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	e, err := openEnv(rootOpts, formatter, envOptions{needCatalog: opts.Record})
	if err != nil {
		return err
	}
	defer closeEnv(e, formatter.GetErrWriter())

	ctx := cmd.Context()
	s := e.session(ctx, validate.WithGroupCount(opts.GroupCount))
	formatter.VerboseLog("session %s", s.ID())

	run := catalog.Validation{SessionID: s.ID(), Expression: text}
	record := func() (int64, error) {
		if !opts.Record {
			return 0, nil
		}
		seq, err := e.catalog.RecordValidation(ctx, run)
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return 0, WrapExitError(ExitCommandError, "record validation", err)
		}
		formatter.VerboseLog("recorded run %d", seq)
		return seq, nil
	}
	fail := func(cause error) error {
		run.ErrorCode = string(ir.ErrorCodeOf(cause))
		run.Message = cause.Error()
		if _, err := record(); err != nil {
			return err
		}
		return formatter.CompileFailure(cause)
	}

	tree, err := e.parser.Parse(text)
	if err != nil {
		return fail(err)
	}
	t, err := s.Validate(tree)
	if err != nil {
		if data, merr := ir.MarshalNode(tree); merr == nil {
			run.Tree = string(data)
		}
		return fail(err)
	}

	data, err := ir.MarshalNode(tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "encode tree", err)
	}
	fingerprint, err := ir.Fingerprint(tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "fingerprint tree", err)
	}
	run.Tree = string(data)
	run.Fingerprint = fingerprint
	run.ResultType = t.String()

	result := ValidateResult{
		Expression:  text,
		Type:        t.String(),
		Fingerprint: fingerprint,
		Calls:       callTypes(s, tree),
		tree: treeText{root: tree, typeOf: func(n ir.Node) string {
			if nt, ok := s.DerivedType(n.ID()); ok {
				return nt.String()
			}
			return ""
		}},
	}
	if result.Seq, err = record(); err != nil {
		return err
	}
	return formatter.SuccessInSession(s.ID(), result)
}

// callTypes lists every call in the validated tree in pre-order.
func callTypes(s *validate.Session, root ir.Node) []CallType {
	var out []CallType
	ir.Walk(root, func(n ir.Node) bool {
		c, ok := n.(*ir.Call)
		if !ok {
			return true
		}
		ct := CallType{
			Expr:     ir.String(c),
			Operator: c.Operator().Name,
			Category: c.Operator().Category.String(),
		}
		if t, ok := s.DerivedType(c.ID()); ok {
			ct.Type = t.String()
		}
		out = append(out, ct)
		return true
	})
	return out
}
