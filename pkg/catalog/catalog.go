// Package catalog maps a symbolic dataset name to a typed entry
// descriptor, loaded from a YAML document keyed by dataset name.
package catalog

import (
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// Kind discriminates the CatalogEntry variant. These literal strings are
// exactly the "type" discriminator values the source document uses.
type Kind string

const (
	KindCSV   Kind = "CSVDataset"
	KindExcel Kind = "EXCELDataset"
	KindSQL   Kind = "SQLDataSet"
)

// CSVEntry is the delimited-text variant's option set. Every field has a
// documented default; see defaultCSVEntry.
type CSVEntry struct {
	Path           string            `yaml:"path"`
	Separator      string            `yaml:"separator"`
	Quote          string            `yaml:"quote"`
	ColumnNames    any               `yaml:"columnNames,omitempty"` // false for headerless files, or an explicit column subset
	ColumnTypes    map[string]string `yaml:"columnTypes,omitempty"` // column name -> "int"|"float"|"bool", else left as string
	SkipRows       int               `yaml:"skipRows"`
	MaxRows        int               `yaml:"maxRows"` // 0 means unlimited
	NATokens       []string          `yaml:"naTokens"`
	TrimWhitespace bool              `yaml:"trimWhitespace"`
}

func defaultCSVEntry() CSVEntry {
	return CSVEntry{
		Separator: ",",
		Quote:     `"`,
		SkipRows:  0,
		MaxRows:   0,
		NATokens:  []string{"", "NA"},
	}
}

// ExcelEntry holds the spreadsheet variant's fields.
type ExcelEntry struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
}

// SQLEntry holds the SQL variant's fields.
type SQLEntry struct {
	DatabaseKind   string `yaml:"databaseKind"`
	SQLPath        string `yaml:"sqlPath"`
	CredentialsKey string `yaml:"credentialsKey"`
}

// Entry is the tagged union over {CSV, Excel, SQL}. Exactly one of CSV,
// Excel, SQL is populated, selected by Kind.
type Entry struct {
	Name  string `yaml:"-"`
	Kind  Kind   `yaml:"type"`
	CSV   *CSVEntry
	Excel *ExcelEntry
	SQL   *SQLEntry
}

// Catalog is the loaded mapping dataset-name → raw descriptor, typed
// lazily on Lookup (the source document may hold datasets the current run
// never references).
type Catalog struct {
	path    string
	entries map[string]map[string]any
}

// Load reads a catalog document from catalogPath.
func Load(catalogPath string) (*Catalog, error) {
	if _, err := os.Stat(catalogPath); err != nil {
		return nil, &errs.ConfigMissing{Kind: "catalog", Path: catalogPath}
	}

	// Dataset names may contain dots ("ingest.orders"), so the key-path
	// delimiter must be something that never appears in one.
	k := koanf.New("::")
	if err := k.Load(file.Provider(catalogPath), yaml.Parser()); err != nil {
		return nil, &errs.ConfigParseError{Path: catalogPath, Err: err}
	}

	entries := map[string]map[string]any{}
	for name, raw := range k.Raw() {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		entries[name] = m
	}

	return &Catalog{path: catalogPath, entries: entries}, nil
}

// NewFromMap builds a Catalog directly from an in-memory representation,
// bypassing file loading (tests, Starlark manifest integration).
func NewFromMap(path string, entries map[string]map[string]any) *Catalog {
	return &Catalog{path: path, entries: entries}
}

// Lookup resolves name to a typed Entry.
func (c *Catalog) Lookup(name string) (Entry, error) {
	raw, ok := c.entries[name]
	if !ok {
		return Entry{}, &errs.UnknownDataset{Name: name, CatalogPath: c.path}
	}

	typeStr, _ := raw["type"].(string)
	entry := Entry{Name: name, Kind: Kind(typeStr)}

	switch entry.Kind {
	case KindCSV:
		csv := defaultCSVEntry()
		if err := decodeEntry(raw, &csv); err != nil {
			return Entry{}, &errs.ConfigParseError{Path: c.path, Err: err}
		}
		entry.CSV = &csv
	case KindExcel:
		excel := ExcelEntry{}
		if err := decodeEntry(raw, &excel); err != nil {
			return Entry{}, &errs.ConfigParseError{Path: c.path, Err: err}
		}
		entry.Excel = &excel
	case KindSQL:
		sql := SQLEntry{}
		if err := decodeEntry(raw, &sql); err != nil {
			return Entry{}, &errs.ConfigParseError{Path: c.path, Err: err}
		}
		entry.SQL = &sql
	default:
		return Entry{}, &errs.UnsupportedType{Name: name, Type: typeStr}
	}

	return entry, nil
}

// Names returns every dataset name declared in the catalog, for CLI
// inspection (flowcraft catalog list).
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	return names
}

// decodeEntry decodes a raw YAML-sourced map onto an already-defaulted
// variant struct. Fields absent from raw are left untouched, so callers
// populate defaults on dst before calling this. WeaklyTypedInput absorbs
// the float64-for-int and single-string-for-slice shapes koanf's YAML
// parser hands back.
func decodeEntry(raw map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
