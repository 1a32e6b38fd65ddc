package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/sqlkit/pkg/bundle"
	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/schema"
	"github.com/ruslano69/sqlkit/pkg/transport"
)

// ImportOptions controls MergeStructure.
type ImportOptions struct {
	// Plan prints the statements to W instead of executing them.
	Plan bool
	W    io.Writer
}

// ImportFile merges the dump or bundle stored at path.
func ImportFile(ctx context.Context, d *database.Driver, path string, opts ImportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return MergeStructure(ctx, d, data, opts)
}

// ReceiveStructure takes the next dump from tr and merges it. Queue
// messages are acknowledged only after a successful merge.
func ReceiveStructure(ctx context.Context, d *database.Driver, tr transport.Transport, opts ImportOptions) error {
	msg, err := tr.Receive(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("transport", tr.Type()).Str("name", msg.Name).Int("bytes", len(msg.Body)).Msg("structure received")
	if err := MergeStructure(ctx, d, msg.Body, opts); err != nil {
		return err
	}
	if opts.Plan {
		return nil
	}
	return tr.Ack(ctx)
}

// MergeStructure accepts a plain dump or a bundle.
func MergeStructure(ctx context.Context, d *database.Driver, data []byte, opts ImportOptions) error {
	doc, err := decode(data)
	if err != nil {
		return err
	}
	imp := schema.NewImporter(d).FromDocument(doc)

	if opts.Plan {
		stmts, err := imp.Plan(ctx)
		if err != nil {
			return err
		}
		w := opts.W
		if w == nil {
			w = os.Stdout
		}
		for _, s := range stmts {
			fmt.Fprintf(w, "%s;\n", d.ReplacePrefix(s, ""))
		}
		return nil
	}
	return imp.MergeStructure(ctx)
}

func decode(data []byte) (*schema.Document, error) {
	if isBundle(data) {
		env, err := bundle.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		return env.Open()
	}
	return schema.Parse(data)
}

// isBundle reports whether the first element of data is <bundle>.
func isBundle(data []byte) bool {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if end := bytes.Index(data, []byte("?>")); end >= 0 {
			data = bytes.TrimSpace(data[end+2:])
		}
	}
	return bytes.HasPrefix(data, []byte("<bundle"))
}
