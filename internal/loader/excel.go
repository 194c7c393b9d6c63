package loader

import (
	"github.com/xuri/excelize/v2"

	catalogpkg "github.com/flowcraft-dev/flowcraft/pkg/catalog"
)

// loadExcel reads the named sheet from entry.Path; the first row is the
// header. An empty Sheet falls back to the workbook's first sheet.
func loadExcel(entry *catalogpkg.ExcelEntry) (Table, error) {
	f, err := excelize.OpenFile(entry.Path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheet := entry.Sheet
	if sheet == "" {
		sheet = f.GetSheetList()[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	header := records[0]
	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: header, Rows: rows}, nil
}
