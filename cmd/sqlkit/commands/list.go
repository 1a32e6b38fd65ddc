package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// ListTables prints the tables of the connected database, one per line.
func ListTables(ctx context.Context, d *database.Driver, w io.Writer) error {
	tables, err := d.GetTableList(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table list: %w", err)
	}
	for _, t := range tables {
		fmt.Fprintln(w, t)
	}
	return nil
}
