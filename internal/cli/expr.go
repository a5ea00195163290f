package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
)

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reduce <expression>",
		Short: "Reduce an expression to its call tree",
		Long: `Scan an expression and reduce it with the precedence-climbing reducer.

Text output is an indented tree. JSON output is the canonical encoding of
the tree, the same bytes the validation fingerprint is computed over.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			e, err := openEnv(rootOpts, formatter, envOptions{})
			if err != nil {
				return err
			}
			defer closeEnv(e, formatter.GetErrWriter())

			tree, err := e.parser.Parse(args[0])
			if err != nil {
				return formatter.CompileFailure(err)
			}
			formatter.VerboseLog("reduced %d nodes", countNodes(tree))
			if formatter.Format.IsJSON() {
				data, err := ir.MarshalNode(tree)
				if err != nil {
					return WrapExitError(ExitCommandError, "encode tree", err)
				}
				return formatter.Success(json.RawMessage(data))
			}
			return formatter.Success(treeText{root: tree})
		},
	}
}

// UnparseResult is the output of the unparse command.
type UnparseResult struct {
	Expression string `json:"expression"`
	SQL        string `json:"sql"`
}

// Text implements Texter.
func (r UnparseResult) Text() string { return r.SQL }

// NewUnparseCommand creates the unparse command.
func NewUnparseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unparse <expression>",
		Short: "Reduce an expression and print it back as SQL",
		Long: `Reduce an expression and write the tree back as SQL text with the
minimum parentheses operator precedence requires.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			e, err := openEnv(rootOpts, formatter, envOptions{})
			if err != nil {
				return err
			}
			defer closeEnv(e, formatter.GetErrWriter())

			tree, err := e.parser.Parse(args[0])
			if err != nil {
				return formatter.CompileFailure(err)
			}
			return formatter.Success(UnparseResult{Expression: args[0], SQL: ir.String(tree)})
		},
	}
}

// treeText renders a tree one node per line, children indented under
// their parent. typeOf, when set, annotates each node with its type.
type treeText struct {
	root   ir.Node
	typeOf func(ir.Node) string
}

func (t treeText) Text() string {
	var sb strings.Builder
	t.write(&sb, t.root, 0)
	return strings.TrimSuffix(sb.String(), "\n")
}

func (t treeText) String() string { return t.Text() }

func (t treeText) write(sb *strings.Builder, n ir.Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(nodeLabel(n))
	if n != nil && t.typeOf != nil {
		if s := t.typeOf(n); s != "" {
			sb.WriteString(" : ")
			sb.WriteString(s)
		}
	}
	sb.WriteByte('\n')

	switch n := n.(type) {
	case *ir.Call:
		for _, o := range n.Operands {
			t.write(sb, o, depth+1)
		}
	case *ir.NodeList:
		for _, it := range n.Items {
			t.write(sb, it, depth+1)
		}
	}
}

func nodeLabel(n ir.Node) string {
	switch n := n.(type) {
	case nil:
		return "<none>"
	case *ir.Call:
		op := n.Operator()
		label := fmt.Sprintf("%s [%s]", op.Name, op.Syntax)
		if n.Quantifier != ir.QuantifierNone {
			label += " " + n.Quantifier.String()
		}
		return label
	case *ir.LiteralNode:
		return literal.Format(n.Value)
	case *ir.Identifier:
		return n.String()
	case *ir.DynamicParam:
		return fmt.Sprintf("?%d", n.Index)
	case *ir.NodeList:
		return fmt.Sprintf("LIST(%d)", len(n.Items))
	}
	return fmt.Sprintf("%T", n)
}

func countNodes(n ir.Node) int {
	count := 0
	ir.Walk(n, func(ir.Node) bool {
		count++
		return true
	})
	return count
}
