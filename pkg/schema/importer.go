package schema

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// Importer converges live tables to a structure document. The whole
// plan is computed before the first statement runs, so a document that
// cannot be merged leaves the database untouched.
type Importer struct {
	db  *database.Driver
	doc *Document
	err error
}

func NewImporter(d *database.Driver) *Importer {
	return &Importer{db: d}
}

// From sets the document to merge from its XML form.
func (i *Importer) From(data []byte) *Importer {
	i.doc, i.err = Parse(data)
	return i
}

func (i *Importer) FromDocument(doc *Document) *Importer {
	i.doc, i.err = doc, nil
	return i
}

// Check fails unless a driver of a supported family and a document for
// that family are set.
func (i *Importer) Check() error {
	if i.db == nil {
		return database.Errorf(database.KindConfiguration, "Importer", "no database driver set")
	}
	if i.err != nil {
		return i.err
	}
	if i.doc == nil {
		return database.Errorf(database.KindConfiguration, "Importer", "no structure document set")
	}
	family := i.db.Dialect().Family()
	if _, err := SyntaxFor(family, nil); err != nil {
		return err
	}
	if root := i.doc.XMLName.Local; root != RootName(family) {
		return database.Errorf(database.KindSchema, "Importer", "%s document cannot be merged into %s", root, family)
	}
	return i.doc.Validate()
}

// Plan returns the statements MergeStructure would execute, in order.
func (i *Importer) Plan(ctx context.Context) ([]string, error) {
	if err := i.Check(); err != nil {
		return nil, err
	}
	syntax, err := SyntaxFor(i.db.Dialect().Family(), i.db.GetQuery(true))
	if err != nil {
		return nil, err
	}

	tables, err := i.db.GetTableList(ctx)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(tables))
	for _, t := range tables {
		live[t] = true
	}

	var stmts []string
	for _, t := range i.doc.Database.Tables {
		var part []string
		if live[i.db.ReplacePrefix(t.Name, "")] {
			part, err = i.alterTable(ctx, syntax, t)
		} else {
			part, err = syntax.CreateTable(t)
		}
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		stmts = append(stmts, part...)
	}
	return stmts, nil
}

// MergeStructure plans and then executes every statement.
func (i *Importer) MergeStructure(ctx context.Context) error {
	stmts, err := i.Plan(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := i.db.SetQuery(stmt, 0, 0).Execute(ctx); err != nil {
			return err
		}
	}
	i.db.Log(zerolog.InfoLevel, "structure merged", map[string]any{"statements": len(stmts)})
	return nil
}

func (i *Importer) alterTable(ctx context.Context, syntax Syntax, t Table) ([]string, error) {
	prefix := i.db.Prefix()
	cols, err := i.db.GetTableColumns(ctx, t.Name)
	if err != nil {
		return nil, err
	}
	idx, err := i.db.GetTableKeys(ctx, t.Name)
	if err != nil {
		return nil, err
	}

	liveKeys := make([]Key, len(idx))
	for n, k := range idx {
		liveKeys[n] = keyFromIndex(k, prefix)
	}
	oldNames, oldGroups := keyLookup(liveKeys)
	newNames, newGroups := keyLookup(t.Keys)

	// Keys are dropped before any column they may cover and added only
	// once every column they name exists.
	var dropKeys, addKeys []string
	for _, name := range oldNames {
		if group, ok := newGroups[name]; ok && keysEqual(oldGroups[name], group) {
			continue
		}
		drop, err := syntax.DropKey(t.Name, oldGroups[name])
		if err != nil {
			return nil, err
		}
		dropKeys = append(dropKeys, drop...)
	}
	for _, name := range newNames {
		if old, ok := oldGroups[name]; ok && keysEqual(old, newGroups[name]) {
			continue
		}
		add, err := syntax.AddKey(t.Name, newGroups[name])
		if err != nil {
			return nil, err
		}
		addKeys = append(addKeys, add...)
	}

	liveFields := make(map[string]Field, len(cols))
	for _, c := range cols {
		liveFields[c.Field] = fieldFromColumn(c)
	}
	wanted := make(map[string]bool, len(t.Fields))

	var columns []string
	for _, f := range t.Fields {
		wanted[f.Field] = true
		cur, ok := liveFields[f.Field]
		if !ok {
			columns = append(columns, syntax.AddColumn(t.Name, f)...)
			continue
		}
		if syntax.ColumnChanged(cur, f) {
			change, err := syntax.ChangeColumn(t.Name, cur, f)
			if err != nil {
				return nil, err
			}
			columns = append(columns, change...)
		}
	}
	for _, c := range cols {
		if !wanted[c.Field] {
			columns = append(columns, syntax.DropColumn(t.Name, c.Field)...)
		}
	}

	var seqBefore, seqAfter []string
	if seqSyntax, ok := syntax.(SequenceSyntax); ok {
		seqBefore, seqAfter, err = i.alterSequences(ctx, seqSyntax, t)
		if err != nil {
			return nil, err
		}
	}

	stmts := make([]string, 0, len(seqBefore)+len(dropKeys)+len(columns)+len(addKeys)+len(seqAfter))
	stmts = append(stmts, seqBefore...)
	stmts = append(stmts, dropKeys...)
	stmts = append(stmts, columns...)
	stmts = append(stmts, addKeys...)
	stmts = append(stmts, seqAfter...)
	return stmts, nil
}

// alterSequences diffs sequences by name. Creates and alters run
// before the column changes that may reference them. Ownership of new
// sequences and drops of old ones run after the columns are in place.
func (i *Importer) alterSequences(ctx context.Context, syntax SequenceSyntax, t Table) (before, after []string, err error) {
	seqs, err := i.db.GetTableSequences(ctx, t.Name)
	if err != nil {
		return nil, nil, err
	}
	live := make(map[string]Sequence, len(seqs))
	for _, s := range seqs {
		seq := sequenceFromCatalog(s, i.db.Prefix())
		live[seq.Name] = seq
	}

	wanted := make(map[string]bool, len(t.Sequences))
	for _, want := range t.Sequences {
		wanted[want.Name] = true
		if cur, ok := live[want.Name]; ok {
			before = append(before, syntax.AlterSequence(cur, want)...)
		} else {
			before = append(before, syntax.CreateSequence(want)...)
			after = append(after, syntax.OwnSequence(t.Name, want)...)
		}
	}
	for _, s := range seqs {
		name := GenericTableName(s.Name, i.db.Prefix())
		if !wanted[name] {
			after = append(after, syntax.DropSequence(live[name])...)
		}
	}
	return before, after, nil
}
