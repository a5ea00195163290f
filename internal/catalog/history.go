package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Validation is one recorded validation run.
type Validation struct {
	Seq         int64  // assigned on insert
	SessionID   string // session that validated the expression
	Expression  string // input text
	Tree        string // canonical JSON of the reduced tree
	Fingerprint string // ir.Fingerprint of the tree
	ResultType  string // derived root type; empty on failure
	ErrorCode   string // ir.ErrorCode of the failure; empty on success
	Message     string
}

// Succeeded reports whether the run derived a type.
func (v Validation) Succeeded() bool {
	return v.ErrorCode == ""
}

// RecordValidation appends a run to the history and returns its seq.
func (c *Catalog) RecordValidation(ctx context.Context, v Validation) (int64, error) {
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO validations
		(session_id, expression, tree, fingerprint, result_type, error_code, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		v.SessionID,
		v.Expression,
		v.Tree,
		v.Fingerprint,
		v.ResultType,
		v.ErrorCode,
		v.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("record validation: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record validation: %w", err)
	}
	return seq, nil
}

// History returns recorded runs ordered by seq. A limit of zero or less
// returns every run.
func (c *Catalog) History(ctx context.Context, limit int) ([]Validation, error) {
	query := `
		SELECT seq, session_id, expression, tree, fingerprint, result_type, error_code, message
		FROM validations
		ORDER BY seq ASC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = c.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = c.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query validations: %w", err)
	}
	return scanValidations(rows)
}

// HistoryByFingerprint returns the runs of structurally identical trees,
// ordered by seq.
func (c *Catalog) HistoryByFingerprint(ctx context.Context, fingerprint string) ([]Validation, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, session_id, expression, tree, fingerprint, result_type, error_code, message
		FROM validations
		WHERE fingerprint = ?
		ORDER BY seq ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query validations: %w", err)
	}
	return scanValidations(rows)
}

func scanValidations(rows *sql.Rows) ([]Validation, error) {
	defer rows.Close()

	out := []Validation{}
	for rows.Next() {
		var v Validation
		if err := rows.Scan(&v.Seq, &v.SessionID, &v.Expression, &v.Tree, &v.Fingerprint,
			&v.ResultType, &v.ErrorCode, &v.Message); err != nil {
			return nil, fmt.Errorf("scan validation: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validations: %w", err)
	}
	return out, nil
}
