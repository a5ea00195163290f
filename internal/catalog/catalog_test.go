package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/types"
)

// createTestCatalog opens a catalog in a temp directory.
func createTestCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func define(t *testing.T, c *Catalog, table, column, spec string) {
	t.Helper()
	require.NoError(t, c.DefineColumn(context.Background(), table, column, types.MustParse(spec)))
}

func TestOpen_CreatesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c1, err := Open(path)
	require.NoError(t, err)
	define(t, c1, "emp", "id", "INTEGER NOT NULL")
	require.NoError(t, c1.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	got, err := c2.LookupColumn(context.Background(), []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, types.IntegerType(false), got)
}

func TestOpen_SetsSchemaVersionAndPragmas(t *testing.T) {
	c := createTestCatalog(t)

	v, err := c.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)

	var mode string
	require.NoError(t, c.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var idx string
	err = c.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_validations_fingerprint'`).Scan(&idx)
	require.NoError(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	var c Catalog
	assert.NoError(t, c.Close())
}

func TestLookupColumn(t *testing.T) {
	c := createTestCatalog(t)
	define(t, c, "emp", "id", "INTEGER NOT NULL")
	define(t, c, "emp", "name", "VARCHAR(20)")
	define(t, c, "dept", "id", "BIGINT NOT NULL")
	define(t, c, "dept", "budget", "DECIMAL(10, 2)")

	testCases := []struct {
		name    string
		names   []string
		want    types.Type
		wantErr error
	}{
		{name: "unique column", names: []string{"name"}, want: types.VarcharType(true, 20)},
		{name: "names are case-insensitive", names: []string{"BUDGET"}, want: types.DecimalType(true, 10, 2)},
		{name: "qualified column", names: []string{"Dept", "id"}, want: types.BigIntType(false)},
		{name: "ambiguous column", names: []string{"id"}, wantErr: ErrAmbiguousColumn},
		{name: "missing column", names: []string{"salary"}, wantErr: ErrColumnNotFound},
		{name: "missing table", names: []string{"proj", "id"}, wantErr: ErrColumnNotFound},
		{name: "too many parts", names: []string{"db", "emp", "id"}, wantErr: ErrColumnNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.LookupColumn(context.Background(), tc.names)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAmbiguousColumnNamesTables(t *testing.T) {
	c := createTestCatalog(t)
	define(t, c, "emp", "id", "INTEGER")
	define(t, c, "dept", "id", "INTEGER")

	_, err := c.LookupColumn(context.Background(), []string{"id"})
	assert.EqualError(t, err, "column reference is ambiguous: id appears in DEPT, EMP")
}

func TestCaseSensitiveNames(t *testing.T) {
	c := createTestCatalog(t, WithCaseSensitiveNames(true))
	define(t, c, "emp", "Name", "VARCHAR(20)")

	_, err := c.LookupColumn(context.Background(), []string{"name"})
	assert.ErrorIs(t, err, ErrColumnNotFound)

	got, err := c.LookupColumn(context.Background(), []string{"Name"})
	require.NoError(t, err)
	assert.Equal(t, types.VarcharType(true, 20), got)
}

func TestDefineColumn(t *testing.T) {
	ctx := context.Background()
	c := createTestCatalog(t)
	define(t, c, "emp", "id", "INTEGER NOT NULL")
	define(t, c, "emp", "name", "VARCHAR(20)")
	define(t, c, "emp", "id", "BIGINT NOT NULL")
	define(t, c, "dept", "id", "INTEGER")

	cols, err := c.Columns(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Table: "EMP", Name: "ID", Type: types.BigIntType(false), Position: 1},
		{Table: "EMP", Name: "NAME", Type: types.VarcharType(true, 20), Position: 2},
	}, cols)

	all, err := c.Columns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "DEPT", all[0].Table)

	tables, err := c.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEPT", "EMP"}, tables)
}

func TestDefineColumnRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	c := createTestCatalog(t)

	assert.Error(t, c.DefineColumn(ctx, "", "id", types.IntegerType(true)))
	assert.Error(t, c.DefineColumn(ctx, "emp", "x", types.UnknownType()))
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	c := createTestCatalog(t)
	define(t, c, "emp", "id", "INTEGER")
	define(t, c, "emp", "name", "VARCHAR(20)")

	n, err := c.DropTable(ctx, "EMP")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cols, err := c.Columns(ctx, "emp")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestResolver(t *testing.T) {
	c := createTestCatalog(t)
	define(t, c, "emp", "hired", "DATE NOT NULL")

	resolve := c.Resolver(context.Background())
	got, err := resolve([]string{"emp", "hired"})
	require.NoError(t, err)
	assert.Equal(t, types.DateType(false), got)

	_, err = resolve([]string{"fired"})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestValidationHistory(t *testing.T) {
	ctx := context.Background()
	c := createTestCatalog(t)

	runs := []Validation{
		{SessionID: "s-1", Expression: "a + 1", Tree: `{"node":"call"}`, Fingerprint: "f1", ResultType: "INTEGER NOT NULL"},
		{SessionID: "s-2", Expression: "a + p", Tree: `{"node":"call"}`, Fingerprint: "f2", ErrorCode: "TYPE_CHECK_FAILED", Message: "Cannot apply '+'"},
		{SessionID: "s-3", Expression: "a+1", Tree: `{"node":"call"}`, Fingerprint: "f1", ResultType: "INTEGER NOT NULL"},
	}
	for i, r := range runs {
		seq, err := c.RecordValidation(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}

	all, err := c.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s-1", all[0].SessionID)
	assert.True(t, all[0].Succeeded())
	assert.False(t, all[1].Succeeded())

	limited, err := c.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	same, err := c.HistoryByFingerprint(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, same, 2)
	assert.Equal(t, []int64{1, 3}, []int64{same[0].Seq, same[1].Seq})

	none, err := c.HistoryByFingerprint(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
