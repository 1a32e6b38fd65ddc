package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/sqlkit/pkg/bundle"
	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/schema"
	"github.com/ruslano69/sqlkit/pkg/transport"
)

// ExportOptions controls ExportStructure.
type ExportOptions struct {
	Tables []string
	Bundle bool
	Pack   bundle.Options
	// Name is the object or message name used when sending.
	Name string
}

// ExportStructure writes the structure dump of the tables to w.
func ExportStructure(ctx context.Context, d *database.Driver, opts ExportOptions, w io.Writer) error {
	data, err := buildExport(ctx, d, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SendStructure exports and ships the dump through tr.
func SendStructure(ctx context.Context, d *database.Driver, opts ExportOptions, tr transport.Transport) error {
	data, err := buildExport(ctx, d, opts)
	if err != nil {
		return err
	}
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s.xml", d.Dialect().Family(), time.Now().UTC().Format("20060102T150405"))
	}
	if err := tr.Send(ctx, transport.Message{Name: name, Body: data}); err != nil {
		return err
	}
	log.Info().Str("transport", tr.Type()).Str("name", name).Int("bytes", len(data)).Msg("structure sent")
	return nil
}

func buildExport(ctx context.Context, d *database.Driver, opts ExportOptions) ([]byte, error) {
	doc, err := schema.NewExporter(d).From(opts.Tables...).Document(ctx)
	if err != nil {
		return nil, err
	}
	if !opts.Bundle {
		return doc.Marshal()
	}

	env, stats, err := bundle.Pack(doc, opts.Pack)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("original", stats.OriginalSize).
		Int("packed", stats.CompressedSize).
		Float64("ratio", stats.Ratio).
		Str("compression", env.Compression).
		Msg("structure bundled")
	return env.Marshal()
}
