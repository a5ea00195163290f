package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/polyexpr/internal/types"
)

// ErrColumnNotFound is returned when no table has the requested column.
var ErrColumnNotFound = errors.New("column not found")

// ErrAmbiguousColumn is returned when a one-part name matches columns of
// more than one table.
var ErrAmbiguousColumn = errors.New("column reference is ambiguous")

// Column is one catalog column.
type Column struct {
	Table    string
	Name     string
	Type     types.Type
	Position int
}

// DefineColumn creates or replaces a column. New columns are appended
// after the table's existing columns; redefining a column keeps its
// position.
func (c *Catalog) DefineColumn(ctx context.Context, table, column string, t types.Type) error {
	if table == "" || column == "" {
		return fmt.Errorf("define column: table and column names are required")
	}
	if !t.IsKnown() {
		return fmt.Errorf("define column %s.%s: type is not known", table, column)
	}
	table, column = c.normalize(table), c.normalize(column)

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO columns (table_name, column_name, type_spec, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM columns WHERE table_name = ?))
		ON CONFLICT(table_name, column_name) DO UPDATE SET type_spec = excluded.type_spec
	`, table, column, t.String(), table)
	if err != nil {
		return fmt.Errorf("define column %s.%s: %w", table, column, err)
	}
	return nil
}

// DropTable removes every column of a table and returns how many were
// removed.
func (c *Catalog) DropTable(ctx context.Context, table string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM columns WHERE table_name = ?`, c.normalize(table))
	if err != nil {
		return 0, fmt.Errorf("drop table %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("drop table %s: %w", table, err)
	}
	return n, nil
}

// Tables returns the table names in binary order.
func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT table_name FROM columns
		ORDER BY table_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Columns returns the columns of a table in position order, or of every
// table when table is empty.
func (c *Catalog) Columns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT table_name, column_name, type_spec, position FROM columns
		WHERE table_name = ?
		ORDER BY table_name COLLATE BINARY ASC, position ASC`
	args := []any{c.normalize(table)}
	if table == "" {
		query = `
		SELECT table_name, column_name, type_spec, position FROM columns
		ORDER BY table_name COLLATE BINARY ASC, position ASC`
		args = nil
	}
	return c.queryColumns(ctx, query, args...)
}

func (c *Catalog) queryColumns(ctx context.Context, query string, args ...any) ([]Column, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cols := []Column{}
	for rows.Next() {
		var col Column
		var spec string
		if err := rows.Scan(&col.Table, &col.Name, &spec, &col.Position); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.Type, err = types.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s has invalid type %q: %w", col.Table, col.Name, spec, err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// LookupColumn types a one-part (column) or two-part (table.column)
// identifier.
func (c *Catalog) LookupColumn(ctx context.Context, names []string) (types.Type, error) {
	var cols []Column
	var err error
	switch len(names) {
	case 1:
		cols, err = c.queryColumns(ctx, `
			SELECT table_name, column_name, type_spec, position FROM columns
			WHERE column_name = ?
			ORDER BY table_name COLLATE BINARY ASC`, c.normalize(names[0]))
	case 2:
		cols, err = c.queryColumns(ctx, `
			SELECT table_name, column_name, type_spec, position FROM columns
			WHERE table_name = ? AND column_name = ?`, c.normalize(names[0]), c.normalize(names[1]))
	default:
		return types.Type{}, fmt.Errorf("%w: %s", ErrColumnNotFound, strings.Join(names, "."))
	}
	if err != nil {
		return types.Type{}, err
	}

	switch len(cols) {
	case 0:
		return types.Type{}, fmt.Errorf("%w: %s", ErrColumnNotFound, strings.Join(names, "."))
	case 1:
		return cols[0].Type, nil
	}
	tables := make([]string, len(cols))
	for i, col := range cols {
		tables[i] = col.Table
	}
	return types.Type{}, fmt.Errorf("%w: %s appears in %s", ErrAmbiguousColumn, names[0], strings.Join(tables, ", "))
}

// Resolver adapts the catalog to the identifier callback of a validation
// session. Lookups run under ctx.
func (c *Catalog) Resolver(ctx context.Context) func(names []string) (types.Type, error) {
	return func(names []string) (types.Type, error) {
		return c.LookupColumn(ctx, names)
	}
}
