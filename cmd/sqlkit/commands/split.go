package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// SplitFile prints the statements of an SQL script separated by blank
// lines, or executes them in order when d is not nil.
func SplitFile(ctx context.Context, d *database.Driver, r io.Reader, w io.Writer) error {
	script, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	stmts := database.SplitSQL(string(script))
	if d == nil {
		for _, s := range stmts {
			fmt.Fprintf(w, "%s\n\n", s)
		}
		return nil
	}
	for i, s := range stmts {
		if _, err := d.SetQuery(s, 0, 0).Execute(ctx); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	fmt.Fprintf(w, "%d statements executed\n", len(stmts))
	return nil
}
