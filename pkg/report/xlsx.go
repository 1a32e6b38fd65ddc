// Package report renders a structure document as an Excel workbook for
// review: a summary sheet plus one sheet per table with its fields and
// keys.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/sqlkit/pkg/schema"
)

const summarySheet = "Summary"

var (
	fieldHeaders = []string{"Field", "Type", "Null", "Key", "Default", "Extra", "Comment"}
	keyHeaders   = []string{"Key_name", "Column_name", "Seq_in_index", "Unique", "Primary", "Index_type"}
)

// ToXLSX writes the workbook to filePath.
//
// Example:
//
//	err := report.ToXLSX(doc, "structure.xlsx")
func ToXLSX(doc *schema.Document, filePath string) error {
	f, err := build(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Write streams the workbook to w.
func Write(doc *schema.Document, w io.Writer) error {
	f, err := build(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func build(doc *schema.Document) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	writeRow(f, summarySheet, 1, []any{"Table", "Fields", "Keys", "Sequences"}, headerStyle)
	used := map[string]bool{strings.ToLower(summarySheet): true}
	for i, t := range doc.Database.Tables {
		writeRow(f, summarySheet, i+2, []any{t.Name, len(t.Fields), keyCount(t.Keys), len(t.Sequences)}, 0)

		sheet := sheetName(t.Name, used)
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet for %s: %w", t.Name, err)
		}
		writeTable(f, sheet, t, headerStyle)
	}
	f.SetColWidth(summarySheet, "A", "A", 30)
	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, sheet string, t schema.Table, headerStyle int) {
	row := 1
	writeRow(f, sheet, row, toAny(fieldHeaders), headerStyle)
	for _, fl := range t.Fields {
		row++
		def := ""
		if fl.Default != nil {
			def = *fl.Default
		}
		writeRow(f, sheet, row, []any{fl.Field, fl.Type, fl.Null, fl.Key, def, fl.Extra, fl.Comment}, 0)
	}
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if len(t.Keys) > 0 {
		row += 2
		writeRow(f, sheet, row, toAny(keyHeaders), headerStyle)
		for _, k := range t.Keys {
			row++
			writeRow(f, sheet, row, []any{k.KeyName, k.ColumnName, k.SeqInIndex, k.NonUnique == 0, k.IsPrimary || k.KeyName == "PRIMARY", k.IndexType}, 0)
		}
	}

	f.SetColWidth(sheet, "A", "B", 24)
	f.SetColWidth(sheet, "C", "G", 15)
}

func writeRow(f *excelize.File, sheet string, row int, values []any, style int) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheet, cell, v)
		if style != 0 {
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}
}

// sheetName makes a table name usable as a unique sheet name: at most
// 31 characters and none of : \ / ? * [ ].
func sheetName(table string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, table)
	name = truncate(name, 31)
	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = truncate(base, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// keyCount counts distinct key names.
func keyCount(keys []schema.Key) int {
	seen := make(map[string]bool)
	for _, k := range keys {
		seen[k.KeyName] = true
	}
	return len(seen)
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
