package loader

import (
	"context"

	catalogpkg "github.com/flowcraft-dev/flowcraft/pkg/catalog"
	"github.com/flowcraft-dev/flowcraft/internal/errs"
)

// Load dispatches entry to the CSV, Excel, or SQL reader. The loader is
// stateless: each call opens and closes its own resources.
func Load(ctx context.Context, entry catalogpkg.Entry, credentialsPath string) (Table, error) {
	switch entry.Kind {
	case catalogpkg.KindCSV:
		return loadCSV(entry.CSV)
	case catalogpkg.KindExcel:
		return loadExcel(entry.Excel)
	case catalogpkg.KindSQL:
		return loadSQL(ctx, entry.SQL, credentialsPath)
	default:
		return Table{}, &errs.UnsupportedType{Name: entry.Name, Type: string(entry.Kind)}
	}
}
