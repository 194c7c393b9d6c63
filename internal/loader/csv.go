package loader

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	catalogpkg "github.com/flowcraft-dev/flowcraft/pkg/catalog"
)

// loadCSV reads entry's file as delimited text, applying each descriptor
// field with its documented default except Quote: encoding/csv always
// treats '"' as the quote character (read leniently, via LazyQuotes), so
// a different Quote value has no effect on parsing.
func loadCSV(entry *catalogpkg.CSVEntry) (Table, error) {
	f, err := os.Open(entry.Path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = separatorRune(entry.Separator)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if entry.SkipRows > 0 && entry.SkipRows < len(records) {
		records = records[entry.SkipRows:]
	} else if entry.SkipRows >= len(records) {
		records = nil
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	header, dataRows := deriveHeader(entry, records)
	naSet := toSet(entry.NATokens)

	rows := make([][]any, 0, len(dataRows))
	for _, rec := range dataRows {
		if entry.MaxRows > 0 && len(rows) >= entry.MaxRows {
			break
		}
		row := make([]any, len(header))
		for i := range header {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			if entry.TrimWhitespace {
				cell = strings.TrimSpace(cell)
			}
			if naSet[cell] {
				row[i] = nil
			} else {
				row[i] = coerceCell(cell, entry.ColumnTypes[header[i]])
			}
		}
		rows = append(rows, row)
	}

	table := Table{Columns: header, Rows: rows}
	if subset := columnSubset(entry.ColumnNames); subset != nil {
		table = table.Project(subset)
	}
	return table, nil
}

// deriveHeader determines the header row and remaining data rows. When
// ColumnNames is explicitly false, the first record is data, not a header,
// and columns are named positionally.
func deriveHeader(entry *catalogpkg.CSVEntry, records [][]string) ([]string, [][]string) {
	if useHeader, ok := entry.ColumnNames.(bool); ok && !useHeader {
		return positionalHeader(len(records[0])), records
	}
	return records[0], records[1:]
}

// columnSubset interprets an explicit ColumnNames list as the column
// subset to keep after reading. YAML decoding hands back []any; entries
// built in Go may carry []string directly.
func columnSubset(columnNames any) []string {
	switch cols := columnNames.(type) {
	case []string:
		return cols
	case []any:
		subset := make([]string, 0, len(cols))
		for _, c := range cols {
			if s, ok := c.(string); ok {
				subset = append(subset, s)
			}
		}
		return subset
	default:
		return nil
	}
}

// coerceCell applies a column's declared type to a non-NA cell. Declared
// types are "int", "float", "bool"; anything else (including the zero
// value, meaning undeclared) leaves the cell as the raw string. A value
// that fails to parse as its declared type is left as the raw string
// rather than failing the load: columnTypes is a best-effort coercion,
// not a schema the file is validated against.
func coerceCell(cell, dtype string) any {
	switch dtype {
	case "int":
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return v
		}
	case "float":
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	case "bool":
		if v, err := strconv.ParseBool(cell); err == nil {
			return v
		}
	}
	return cell
}

func positionalHeader(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	return names
}

func separatorRune(sep string) rune {
	if sep == "" {
		return ','
	}
	return []rune(sep)[0]
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
