// Package schema exports live table structure to a portable XML
// document and merges such a document back into a database.
//
// The document root is named after the dialect family (<mysqldump>,
// <postgresqldump>, <sqlitedump>). Table names carry the generic #__
// placeholder instead of the live prefix, so a dump taken on one
// installation applies to another with a different prefix.
package schema

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ruslano69/sqlkit/pkg/database"
)

// Document is the root of a structure dump.
type Document struct {
	XMLName  xml.Name
	Database Database `xml:"database"`
}

type Database struct {
	Name   string  `xml:"name,attr"`
	Tables []Table `xml:"table_structure"`
}

// Table describes one table: sequences (PostgreSQL only), fields in
// column order and one key entry per indexed column.
type Table struct {
	Name      string     `xml:"name,attr"`
	Sequences []Sequence `xml:"sequence,omitempty"`
	Fields    []Field    `xml:"field"`
	Keys      []Key      `xml:"key,omitempty"`
}

type Field struct {
	Field   string  `xml:"Field,attr"`
	Type    string  `xml:"Type,attr"`
	Null    string  `xml:"Null,attr"`
	Key     string  `xml:"Key,attr,omitempty"`
	Default *string `xml:"Default,attr,omitempty"`
	Extra   string  `xml:"Extra,attr,omitempty"`
	Comment string  `xml:"Comment,attr,omitempty"`
}

type Key struct {
	Table      string `xml:"Table,attr,omitempty"`
	NonUnique  int    `xml:"Non_unique,attr"`
	KeyName    string `xml:"Key_name,attr"`
	SeqInIndex int    `xml:"Seq_in_index,attr"`
	ColumnName string `xml:"Column_name,attr"`
	Collation  string `xml:"Collation,attr,omitempty"`
	Null       string `xml:"Null,attr,omitempty"`
	IndexType  string `xml:"Index_type,attr,omitempty"`
	Comment    string `xml:"Comment,attr,omitempty"`
	IsPrimary  bool   `xml:"is_primary,attr,omitempty"`
	Query      string `xml:"Query,attr,omitempty"`
}

type Sequence struct {
	Name        string `xml:"Name,attr"`
	Schema      string `xml:"Schema,attr,omitempty"`
	Table       string `xml:"Table,attr"`
	Column      string `xml:"Column,attr,omitempty"`
	Type        string `xml:"Type,attr,omitempty"`
	StartValue  string `xml:"Start_Value,attr,omitempty"`
	MinValue    string `xml:"Min_Value,attr,omitempty"`
	MaxValue    string `xml:"Max_Value,attr,omitempty"`
	Increment   string `xml:"Increment,attr,omitempty"`
	CycleOption string `xml:"Cycle_option,attr,omitempty"`
}

// RootName is the document element used for a dialect family.
func RootName(family string) string { return family + "dump" }

// Parse decodes a structure document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, database.NewError(database.KindSchema, "Parse", fmt.Errorf("failed to decode XML: %w", err))
	}
	return &doc, nil
}

// Marshal encodes the document with an XML declaration.
func (doc *Document) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, database.NewError(database.KindSchema, "Marshal", fmt.Errorf("failed to encode XML: %w", err))
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Table returns the named table, nil when the document has none.
func (doc *Document) Table(name string) *Table {
	for i := range doc.Database.Tables {
		if doc.Database.Tables[i].Name == name {
			return &doc.Database.Tables[i]
		}
	}
	return nil
}

// Validate rejects documents that cannot be merged unambiguously:
// duplicate tables or fields, keys naming unknown columns, and keys
// whose entries disagree on uniqueness or column position.
func (doc *Document) Validate() error {
	tables := make(map[string]bool)
	for _, t := range doc.Database.Tables {
		if t.Name == "" {
			return database.Errorf(database.KindSchema, "Validate", "table_structure without name")
		}
		if tables[t.Name] {
			return database.Errorf(database.KindSchema, "Validate", "duplicate table %s", t.Name)
		}
		tables[t.Name] = true

		fields := make(map[string]bool, len(t.Fields))
		for i, f := range t.Fields {
			if f.Field == "" || f.Type == "" {
				return database.Errorf(database.KindSchema, "Validate", "table %s: field %d needs Field and Type", t.Name, i)
			}
			if fields[f.Field] {
				return database.Errorf(database.KindSchema, "Validate", "table %s: duplicate field %s", t.Name, f.Field)
			}
			fields[f.Field] = true
		}

		names, groups := keyLookup(t.Keys)
		for _, name := range names {
			group := groups[name]
			seen := make(map[int]bool, len(group))
			for _, k := range group {
				if k.ColumnName != "" && !fields[k.ColumnName] {
					return database.Errorf(database.KindSchema, "Validate", "table %s: key %s references unknown column %s", t.Name, name, k.ColumnName)
				}
				if seen[k.SeqInIndex] {
					return database.Errorf(database.KindSchema, "Validate", "table %s: key %s is ambiguous at position %d", t.Name, name, k.SeqInIndex)
				}
				seen[k.SeqInIndex] = true
				if k.NonUnique != group[0].NonUnique || k.IsPrimary != group[0].IsPrimary {
					return database.Errorf(database.KindSchema, "Validate", "table %s: key %s mixes unique and non-unique entries", t.Name, name)
				}
			}
		}
	}
	return nil
}

// GenericTableName replaces a leading live prefix with #__.
func GenericTableName(table, prefix string) string {
	if prefix == "" || !strings.HasPrefix(table, prefix) {
		return table
	}
	return database.DefaultPlaceholder + strings.TrimPrefix(table, prefix)
}

// genericNames rewrites every identifier starting with prefix inside an
// index definition.
func genericNames(sql, prefix string) string {
	if prefix == "" {
		return sql
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(prefix))
	return re.ReplaceAllString(sql, database.DefaultPlaceholder)
}

func fieldFromColumn(c database.Column) Field {
	return Field{
		Field:   c.Field,
		Type:    c.Type,
		Null:    c.Null,
		Key:     c.Key,
		Default: c.Default,
		Extra:   c.Extra,
		Comment: c.Comment,
	}
}

func keyFromIndex(k database.Key, prefix string) Key {
	return Key{
		Table:      GenericTableName(k.Table, prefix),
		NonUnique:  k.NonUnique,
		KeyName:    GenericTableName(k.KeyName, prefix),
		SeqInIndex: k.SeqInIndex,
		ColumnName: k.ColumnName,
		Collation:  k.Collation,
		Null:       k.Null,
		IndexType:  k.IndexType,
		Comment:    k.Comment,
		IsPrimary:  k.IsPrimary,
		Query:      genericNames(k.Query, prefix),
	}
}

func sequenceFromCatalog(s database.Sequence, prefix string) Sequence {
	return Sequence{
		Name:        GenericTableName(s.Name, prefix),
		Schema:      s.Schema,
		Table:       GenericTableName(s.Table, prefix),
		Column:      s.Column,
		Type:        s.DataType,
		StartValue:  s.StartValue,
		MinValue:    s.MinimumValue,
		MaxValue:    s.MaximumValue,
		Increment:   s.Increment,
		CycleOption: s.CycleOption,
	}
}

// keyLookup groups key entries by name, keeping first-seen order and
// ordering each group by column position. A key named PRIMARY is the
// primary key whether or not is_primary is set.
func keyLookup(keys []Key) ([]string, map[string][]Key) {
	var names []string
	groups := make(map[string][]Key)
	for _, k := range keys {
		if k.KeyName == "PRIMARY" {
			k.IsPrimary = true
		}
		if _, ok := groups[k.KeyName]; !ok {
			names = append(names, k.KeyName)
		}
		groups[k.KeyName] = append(groups[k.KeyName], k)
	}
	for _, g := range groups {
		for i := 1; i < len(g); i++ {
			for j := i; j > 0 && g[j].SeqInIndex < g[j-1].SeqInIndex; j-- {
				g[j], g[j-1] = g[j-1], g[j]
			}
		}
	}
	return names, groups
}

func keysEqual(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.NonUnique != y.NonUnique || x.ColumnName != y.ColumnName ||
			x.SeqInIndex != y.SeqInIndex || x.IsPrimary != y.IsPrimary {
			return false
		}
		if x.IndexType != "" && y.IndexType != "" && !strings.EqualFold(x.IndexType, y.IndexType) {
			return false
		}
		if x.Query != "" && y.Query != "" && x.Query != y.Query {
			return false
		}
	}
	return true
}

func defaultsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func keyColumns(group []Key) []string {
	cols := make([]string, len(group))
	for i, k := range group {
		cols[i] = k.ColumnName
	}
	return cols
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
