package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/polyexpr/internal/catalog"
	"github.com/roach88/polyexpr/internal/types"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the column catalog and validation history",
		Long: `The catalog is a SQLite database of table columns and their types. The
validate command types column references against it and, with --record,
appends each run to its history.`,
	}

	cmd.AddCommand(newCatalogDefineCommand(rootOpts))
	cmd.AddCommand(newCatalogDropCommand(rootOpts))
	cmd.AddCommand(newCatalogShowCommand(rootOpts))
	cmd.AddCommand(newCatalogHistoryCommand(rootOpts))

	return cmd
}

// catalogCommand wraps a catalog subcommand body with env setup and
// teardown. The catalog is required.
func catalogCommand(rootOpts *RootOptions, body func(cmd *cobra.Command, e *env, f *OutputFormatter, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		formatter := newFormatter(rootOpts, cmd)
		e, err := openEnv(rootOpts, formatter, envOptions{needCatalog: true})
		if err != nil {
			return err
		}
		defer closeEnv(e, formatter.GetErrWriter())
		return body(cmd, e, formatter, args)
	}
}

func catalogFailure(f *OutputFormatter, err error) error {
	_ = f.Error(ErrCodeCatalog, err.Error(), nil)
	return WrapExitError(ExitCommandError, "catalog", err)
}

// ColumnInfo is one catalog column in command output.
type ColumnInfo struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// ColumnList is the output of catalog show.
type ColumnList []ColumnInfo

// Text implements Texter.
func (l ColumnList) Text() string {
	if len(l) == 0 {
		return "(no columns)"
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tCOLUMN\tTYPE")
	for _, c := range l {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Table, c.Column, c.Type)
	}
	_ = w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

func newCatalogDefineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "define <table> <column> <type>",
		Short:         "Define or redefine a column",
		Example:       `  polyexpr --catalog cat.db catalog define emp sal "DECIMAL(10, 2) NOT NULL"`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: catalogCommand(rootOpts, func(cmd *cobra.Command, e *env, f *OutputFormatter, args []string) error {
			t, err := types.Parse(args[2])
			if err != nil {
				_ = f.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitCommandError, "parse type", err)
			}
			if err := e.catalog.DefineColumn(cmd.Context(), args[0], args[1], t); err != nil {
				return catalogFailure(f, err)
			}
			e.logger.Debug("column defined", "table", args[0], "column", args[1], "type", t.String())
			return f.Success(ColumnInfo{Table: args[0], Column: args[1], Type: t.String()})
		}),
	}
}

func newCatalogDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop <table>",
		Short:         "Remove every column of a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: catalogCommand(rootOpts, func(cmd *cobra.Command, e *env, f *OutputFormatter, args []string) error {
			n, err := e.catalog.DropTable(cmd.Context(), args[0])
			if err != nil {
				return catalogFailure(f, err)
			}
			if f.Format.IsJSON() {
				return f.Success(map[string]any{"table": args[0], "dropped": n})
			}
			return f.Success(fmt.Sprintf("dropped %d columns of %s", n, args[0]))
		}),
	}
}

func newCatalogShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show [table]",
		Short:         "List catalog columns",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: catalogCommand(rootOpts, func(cmd *cobra.Command, e *env, f *OutputFormatter, args []string) error {
			ctx := cmd.Context()
			tables := args
			if len(tables) == 0 {
				var err error
				if tables, err = e.catalog.Tables(ctx); err != nil {
					return catalogFailure(f, err)
				}
			}
			list := ColumnList{}
			for _, table := range tables {
				cols, err := e.catalog.Columns(ctx, table)
				if err != nil {
					return catalogFailure(f, err)
				}
				for _, c := range cols {
					list = append(list, ColumnInfo{Table: c.Table, Column: c.Name, Type: c.Type.String(), Position: c.Position})
				}
			}
			return f.Success(list)
		}),
	}
}

// HistoryEntry is one recorded validation run in command output.
type HistoryEntry struct {
	Seq         int64  `json:"seq"`
	SessionID   string `json:"session_id"`
	Expression  string `json:"expression"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ResultType  string `json:"result_type,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// HistoryList is the output of catalog history.
type HistoryList []HistoryEntry

// Text implements Texter.
func (l HistoryList) Text() string {
	if len(l) == 0 {
		return "(no runs)"
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tRESULT\tEXPRESSION")
	for _, h := range l {
		result := h.ResultType
		if h.ErrorCode != "" {
			result = h.ErrorCode
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", h.Seq, result, h.Expression)
	}
	_ = w.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}

func newCatalogHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	var fingerprint string

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recorded validation runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: catalogCommand(rootOpts, func(cmd *cobra.Command, e *env, f *OutputFormatter, args []string) error {
			var runs []catalog.Validation
			var err error
			if fingerprint != "" {
				runs, err = e.catalog.HistoryByFingerprint(cmd.Context(), fingerprint)
			} else {
				runs, err = e.catalog.History(cmd.Context(), limit)
			}
			if err != nil {
				return catalogFailure(f, err)
			}
			list := make(HistoryList, len(runs))
			for i, r := range runs {
				list[i] = HistoryEntry{
					Seq:         r.Seq,
					SessionID:   r.SessionID,
					Expression:  r.Expression,
					Fingerprint: r.Fingerprint,
					ResultType:  r.ResultType,
					ErrorCode:   r.ErrorCode,
					Message:     r.Message,
				}
			}
			return f.Success(list)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum runs to show (0 for all)")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "show only runs of trees with this fingerprint")

	return cmd
}
