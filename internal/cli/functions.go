package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/binding"
	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/types"
)

// FunctionsOptions holds flags for the functions command.
type FunctionsOptions struct {
	UserDefined bool
}

// FunctionInfo describes one registered operator.
type FunctionInfo struct {
	Name        string   `json:"name"`
	Syntax      string   `json:"syntax"`
	Kind        string   `json:"kind"`
	Category    string   `json:"category"`
	Signature   string   `json:"signature"`
	Returns     string   `json:"returns,omitempty"`
	ParamNames  []string `json:"param_names,omitempty"`
	Aggregate   bool     `json:"aggregate,omitempty"`
	Fingerprint string   `json:"fingerprint"`
}

// FunctionList is the output of the functions command.
type FunctionList []FunctionInfo

// Text implements Texter.
func (l FunctionList) Text() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSYNTAX\tCATEGORY\tSIGNATURE")
	for _, f := range l {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name, f.Syntax, f.Category, f.Signature)
	}
	_ = w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FunctionsOptions{}

	cmd := &cobra.Command{
		Use:   "functions [name]",
		Short: "List registered operators and functions",
		Long: `List the operator table: the standard operators plus any user-defined
functions loaded with --functions. With a name, list only its overloads.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			e, err := openEnv(rootOpts, formatter, envOptions{})
			if err != nil {
				return err
			}
			defer closeEnv(e, formatter.GetErrWriter())

			ops := e.table.All()
			if len(args) == 1 {
				ops = operatorsNamed(e.table, args[0])
				if len(ops) == 0 {
					_ = formatter.Error(string(ir.ErrCodeNoMatch), fmt.Sprintf("no function named %s", args[0]), nil)
					return NewExitError(ExitFailure, "no such function")
				}
			}

			list := FunctionList{}
			for _, op := range ops {
				if opts.UserDefined && !isUserDefined(op) {
					continue
				}
				list = append(list, describeOperator(op))
			}
			return formatter.Success(list)
		},
	}

	cmd.Flags().BoolVar(&opts.UserDefined, "user", false, "list only user-defined functions and procedures")

	return cmd
}

func describeOperator(op *ir.Operator) FunctionInfo {
	return FunctionInfo{
		Name:        op.Name,
		Syntax:      op.Syntax.String(),
		Kind:        op.Kind.String(),
		Category:    op.Category.String(),
		Signature:   operatorSignature(op),
		Returns:     declaredReturn(op),
		ParamNames:  op.ParamNames,
		Aggregate:   op.IsAggregate,
		Fingerprint: ir.OperatorFingerprint(op),
	}
}

// operatorSignature renders declared parameter types, or the accepted
// operand count for operators checked by rule.
func operatorSignature(op *ir.Operator) string {
	if op.ParamTypes != nil {
		return types.Signature(op.Name, op.ParamTypes)
	}
	return fmt.Sprintf("%s/%s", op.Name, op.OperandCountRange())
}

// declaredReturn applies op's return rule to its declared parameter
// types. Operators typed by rule have no declared parameters and report
// nothing.
func declaredReturn(op *ir.Operator) string {
	if op.ParamTypes == nil || op.ReturnType == nil {
		return ""
	}
	t, err := op.ReturnType(binding.NewExplicit(op, op.ParamTypes, ir.Pos{}))
	if err != nil {
		return ""
	}
	return t.String()
}

// operatorsNamed returns every overload of name whatever its syntax.
func operatorsNamed(t *operators.Table, name string) []*ir.Operator {
	var out []*ir.Operator
	for _, op := range t.All() {
		if op.Name == name || (!t.CaseSensitiveNames() && strings.EqualFold(op.Name, name)) {
			out = append(out, op)
		}
	}
	return out
}

func isUserDefined(op *ir.Operator) bool {
	return op.Category == ir.CategoryUserDefinedFunction || op.Category == ir.CategoryUserDefinedProcedure
}
