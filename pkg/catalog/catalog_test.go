package catalog

import (
	"os"
	"path/filepath"
	"testing"

	goyaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var missing *errs.ConfigMissing
	require.ErrorAs(t, err, &missing)
}

func TestLookup_UnknownDataset(t *testing.T) {
	path := writeCatalog(t, "raw:\n  type: CSVDataset\n  path: /tmp/raw.csv\n")
	cat, err := Load(path)
	require.NoError(t, err)

	_, err = cat.Lookup("absent_name")
	var unknown *errs.UnknownDataset
	require.ErrorAs(t, err, &unknown)
	require.Contains(t, err.Error(), "absent_name")
	require.Contains(t, err.Error(), path)
}

func TestLookup_UnsupportedType(t *testing.T) {
	path := writeCatalog(t, "weird:\n  type: ParquetDataset\n  path: /tmp/x.parquet\n")
	cat, err := Load(path)
	require.NoError(t, err)

	_, err = cat.Lookup("weird")
	var unsupported *errs.UnsupportedType
	require.ErrorAs(t, err, &unsupported)
}

func TestLookup_CSVDefaults(t *testing.T) {
	path := writeCatalog(t, "raw:\n  type: CSVDataset\n  path: /tmp/raw.csv\n  separator: \";\"\n")
	cat, err := Load(path)
	require.NoError(t, err)

	entry, err := cat.Lookup("raw")
	require.NoError(t, err)
	require.Equal(t, KindCSV, entry.Kind)
	require.Equal(t, "/tmp/raw.csv", entry.CSV.Path)
	require.Equal(t, ";", entry.CSV.Separator)
	require.Equal(t, `"`, entry.CSV.Quote) // default
	require.Equal(t, 0, entry.CSV.SkipRows)
	require.Equal(t, []string{"", "NA"}, entry.CSV.NATokens)
}

func TestLookup_Excel(t *testing.T) {
	path := writeCatalog(t, "book:\n  type: EXCELDataset\n  path: /tmp/book.xlsx\n  sheet: Sheet1\n")
	cat, err := Load(path)
	require.NoError(t, err)

	entry, err := cat.Lookup("book")
	require.NoError(t, err)
	require.Equal(t, "Sheet1", entry.Excel.Sheet)
}

func TestLookup_SQL(t *testing.T) {
	path := writeCatalog(t, "orders:\n  type: SQLDataSet\n  databaseKind: Snowflake\n  sqlPath: queries/orders.sql\n  credentialsKey: wh1\n")
	cat, err := Load(path)
	require.NoError(t, err)

	entry, err := cat.Lookup("orders")
	require.NoError(t, err)
	require.Equal(t, "Snowflake", entry.SQL.DatabaseKind)
	require.Equal(t, "wh1", entry.SQL.CredentialsKey)
}

// Loading a CSV entry and re-serializing it produces a value equal on
// every explicitly-set field.
func TestRoundTrip_CSVEntry(t *testing.T) {
	path := writeCatalog(t, "raw:\n  type: CSVDataset\n  path: /tmp/raw.csv\n  separator: \";\"\n  skipRows: 2\n")
	cat, err := Load(path)
	require.NoError(t, err)

	entry, err := cat.Lookup("raw")
	require.NoError(t, err)

	out, err := goyaml.Marshal(entry.CSV)
	require.NoError(t, err)

	var roundTripped CSVEntry
	require.NoError(t, goyaml.Unmarshal(out, &roundTripped))

	require.Equal(t, entry.CSV.Path, roundTripped.Path)
	require.Equal(t, entry.CSV.Separator, roundTripped.Separator)
	require.Equal(t, entry.CSV.SkipRows, roundTripped.SkipRows)
	require.Equal(t, entry.CSV.Quote, roundTripped.Quote)
	require.Equal(t, entry.CSV.NATokens, roundTripped.NATokens)
}

func TestCredentials_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wh1:\n  Server: foo\n  User: bar\n"), 0o644))

	store, err := LoadCredentials(path)
	require.NoError(t, err)

	_, err = store.Lookup("nope")
	var unknown *errs.UnknownCredentials
	require.ErrorAs(t, err, &unknown)

	c, err := store.Lookup("wh1")
	require.NoError(t, err)
	require.Equal(t, "foo", c.Server)
	require.Equal(t, "bar", c.User)
}
