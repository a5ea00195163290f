package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/polyexpr/internal/catalog"
	"github.com/roach88/polyexpr/internal/config"
	"github.com/roach88/polyexpr/internal/operators"
	"github.com/roach88/polyexpr/internal/reduce"
	"github.com/roach88/polyexpr/internal/scan"
	"github.com/roach88/polyexpr/internal/validate"
)

// env is everything a command needs to compile an expression: settings,
// the operator table with user-defined functions layered on, a parser
// and, when configured, the column catalog.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	table   *operators.Table
	parser  *scan.Parser
	catalog *catalog.Catalog // nil without a catalog path
}

var errNoCatalog = errors.New("no catalog configured (use --catalog or the catalog setting)")

// envOptions selects which optional parts newEnv sets up.
type envOptions struct {
	needCatalog bool
}

// newEnv loads settings, applying flag overrides, and builds the
// environment. Diagnostics are logged to errW.
func newEnv(opts *RootOptions, errW io.Writer, eo envOptions) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	if opts.Catalog != "" {
		cfg.Catalog = opts.Catalog
	}
	if opts.Functions != "" {
		cfg.Functions = opts.Functions
	}

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	table := operators.NewBuilder(operators.WithCaseSensitiveNames(cfg.CaseSensitive)).
		RegisterAll(operators.StandardOperators()...).
		Freeze()
	if cfg.Functions != "" {
		result, errs := LoadFunctions(cfg.Functions, table, LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, WrapExitError(ExitCommandError, ErrCodeLoadFailed, joinLoadErrors(errs))
		}
		table = table.Extend().RegisterAll(result.Operators...).Freeze()
		logger.Debug("functions loaded",
			"dir", cfg.Functions,
			"files", result.FileCount,
			"functions", len(result.Operators))
	}

	e := &env{
		cfg:    cfg,
		logger: logger,
		table:  table,
		parser: scan.New(table,
			scan.WithReducer(reduce.New(reduce.WithMaxDepth(cfg.MaxDepth))),
			scan.WithDefaultCharset(cfg.DefaultCharset),
			scan.WithDefaultCollation(cfg.DefaultCollation)),
	}

	if cfg.Catalog != "" {
		c, err := catalog.Open(cfg.Catalog, catalog.WithCaseSensitiveNames(cfg.CaseSensitive))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, ErrCodeCatalog, err)
		}
		e.catalog = c
	} else if eo.needCatalog {
		return nil, WrapExitError(ExitCommandError, ErrCodeCatalog, errNoCatalog)
	}
	return e, nil
}

// Close releases the catalog.
func (e *env) Close() error {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Close()
}

// session starts a validation session. Column references are typed by
// the catalog when one is open.
func (e *env) session(ctx context.Context, opts ...validate.Option) *validate.Session {
	base := []validate.Option{
		validate.WithLogger(e.logger),
		validate.WithMaxDepth(e.cfg.MaxDepth),
	}
	if e.catalog != nil {
		base = append(base, validate.WithIdentifierResolver(e.catalog.Resolver(ctx)))
	}
	return validate.NewSession(e.table, append(base, opts...)...)
}
