// Package catalog provides a SQLite-backed reference catalog for
// expression validation.
//
// The catalog stores:
//   - Columns: the declared SQL type of each table column, used to type
//     identifiers during validation
//   - Validations: an append-only history of validated expressions with
//     their canonical tree, fingerprint and outcome
//
// # Name Resolution
//
// A one-part identifier names a column of any table and must be unique
// across tables. A two-part identifier is table.column. Names compare
// case-insensitively unless the catalog is opened with case-sensitive
// names; insensitive names are stored upper-cased.
//
// # Ordering
//
// History queries order by seq (the autoincrement row id), never by wall
// time, so the same run sequence reads back identically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package catalog
