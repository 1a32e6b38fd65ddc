package commands

import (
	"context"

	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/report"
	"github.com/ruslano69/sqlkit/pkg/schema"
)

// WriteReport exports the tables and writes an XLSX report to path.
func WriteReport(ctx context.Context, d *database.Driver, tables []string, path string) error {
	doc, err := schema.NewExporter(d).From(tables...).Document(ctx)
	if err != nil {
		return err
	}
	return report.ToXLSX(doc, path)
}
