package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/algebra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Config    string // YAML settings file
	Catalog   string // overrides the catalog setting
	Functions string // overrides the functions setting
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the polyexpr CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "polyexpr",
		Short: "polyexpr - SQL expression front end",
		Long: "Reduce SQL expressions to call trees, resolve function overloads " +
			"and derive result types against a column catalog.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := outputFormat(opts.Format); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "settings file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "column catalog database")
	cmd.PersistentFlags().StringVar(&opts.Functions, "functions", "", "directory of CUE function declarations")

	cmd.AddCommand(NewReduceCommand(opts))
	cmd.AddCommand(NewUnparseCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLiteralCommand(opts))
	cmd.AddCommand(NewFunctionsCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// outputFormat parses a --format value. XML is a known explain format
// but has no CLI rendering.
func outputFormat(name string) (algebra.ExplainFormat, error) {
	f, err := algebra.ParseExplainFormat(name)
	if err != nil || f.IsXML() {
		return 0, fmt.Errorf("invalid format %q: must be one of %v", name, ValidFormats)
	}
	return f, nil
}

// newFormatter builds the formatter for a command. Diagnostics go to
// stderr so JSON output stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	f, _ := outputFormat(opts.Format)
	return &OutputFormatter{
		Format:    f,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openEnv builds the environment, reporting setup failures through the
// formatter.
func openEnv(opts *RootOptions, formatter *OutputFormatter, eo envOptions) (*env, error) {
	e, err := newEnv(opts, formatter.GetErrWriter(), eo)
	if err != nil {
		code, msg := ErrCodeGeneric, err.Error()
		var ee *ExitError
		if errors.As(err, &ee) && ee.Err != nil {
			code, msg = ee.Message, ee.Err.Error()
		}
		_ = formatter.Error(code, msg, nil)
		return nil, err
	}
	return e, nil
}

func closeEnv(e *env, w io.Writer) {
	if err := e.Close(); err != nil {
		fmt.Fprintf(w, "warning: closing catalog: %v\n", err)
	}
}
