package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/ir"
	"github.com/roach88/polyexpr/internal/literal"
)

// LiteralResult describes one parsed literal.
type LiteralResult struct {
	Input     string `json:"input"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Canonical string `json:"canonical"`
}

// Text implements Texter.
func (r LiteralResult) Text() string {
	return fmt.Sprintf("%s %s : %s", r.Kind, r.Canonical, r.Type)
}

// NewLiteralCommand creates the literal command.
func NewLiteralCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "literal <text>",
		Short: "Parse a literal and show its kind, type and canonical form",
		Example: `  polyexpr literal "DATE '2024-02-29'"
  polyexpr literal "_LATIN1'abc' COLLATE \"en-US\""
  polyexpr literal 1.50e2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			lit, err := literal.Parse(args[0])
			if err != nil {
				return formatter.CompileFailure(ir.NewInvalidLiteralError(ir.Pos{}, err))
			}
			return formatter.Success(LiteralResult{
				Input:     args[0],
				Kind:      lit.Kind().String(),
				Type:      lit.Type().String(),
				Canonical: literal.Format(lit),
			})
		},
	}
}
