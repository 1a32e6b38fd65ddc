package schema

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// Exporter dumps the structure of selected tables. It borrows the
// driver and is meant to be used for a single export.
type Exporter struct {
	db            *database.Driver
	from          []string
	withStructure bool
}

func NewExporter(d *database.Driver) *Exporter {
	return &Exporter{db: d, withStructure: true}
}

// From adds tables to export. Names may use the #__ placeholder.
func (e *Exporter) From(tables ...string) *Exporter {
	e.from = append(e.from, tables...)
	return e
}

// WithStructure toggles the table_structure sections (on by default).
func (e *Exporter) WithStructure(on bool) *Exporter {
	e.withStructure = on
	return e
}

// Check fails unless a driver of a supported family and at least one
// table are set.
func (e *Exporter) Check() error {
	if e.db == nil {
		return database.Errorf(database.KindConfiguration, "Exporter", "no database driver set")
	}
	if len(e.from) == 0 {
		return database.Errorf(database.KindConfiguration, "Exporter", "no tables specified")
	}
	_, err := SyntaxFor(e.db.Dialect().Family(), nil)
	return err
}

// Document reads the live structure into a document.
func (e *Exporter) Document(ctx context.Context) (*Document, error) {
	if err := e.Check(); err != nil {
		return nil, err
	}
	family := e.db.Dialect().Family()
	doc := &Document{XMLName: xml.Name{Local: RootName(family)}}
	if !e.withStructure {
		return doc, nil
	}

	prefix := e.db.Prefix()
	for _, name := range e.from {
		table := e.db.ReplacePrefix(name, "")
		t, err := e.table(ctx, table, prefix, family == "postgresql")
		if err != nil {
			return nil, err
		}
		doc.Database.Tables = append(doc.Database.Tables, t)
		e.db.Log(zerolog.DebugLevel, "exported table structure", map[string]any{
			"table": table, "fields": len(t.Fields), "keys": len(t.Keys),
		})
	}
	return doc, nil
}

func (e *Exporter) table(ctx context.Context, table, prefix string, sequences bool) (Table, error) {
	t := Table{Name: GenericTableName(table, prefix)}

	cols, err := e.db.GetTableColumns(ctx, table)
	if err != nil {
		return t, fmt.Errorf("columns of %s: %w", table, err)
	}
	for _, c := range cols {
		t.Fields = append(t.Fields, fieldFromColumn(c))
	}

	keys, err := e.db.GetTableKeys(ctx, table)
	if err != nil {
		return t, fmt.Errorf("keys of %s: %w", table, err)
	}
	for _, k := range keys {
		t.Keys = append(t.Keys, keyFromIndex(k, prefix))
	}

	if sequences {
		seqs, err := e.db.GetTableSequences(ctx, table)
		if err != nil {
			return t, fmt.Errorf("sequences of %s: %w", table, err)
		}
		for _, s := range seqs {
			t.Sequences = append(t.Sequences, sequenceFromCatalog(s, prefix))
		}
	}
	return t, nil
}

// BuildXML renders the complete dump.
func (e *Exporter) BuildXML(ctx context.Context) ([]byte, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Marshal()
}

// BuildXMLStructure renders one table_structure element per table.
func (e *Exporter) BuildXMLStructure(ctx context.Context) ([]string, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(doc.Database.Tables))
	for _, t := range doc.Database.Tables {
		b, err := xml.MarshalIndent(struct {
			XMLName xml.Name `xml:"table_structure"`
			Table
		}{Table: t}, "  ", " ")
		if err != nil {
			return nil, database.NewError(database.KindSchema, "BuildXMLStructure", err)
		}
		out = append(out, string(b))
	}
	return out, nil
}
