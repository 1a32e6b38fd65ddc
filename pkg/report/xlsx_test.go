package report

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/sqlkit/pkg/schema"
)

func testDocument() *schema.Document {
	def := "none"
	return &schema.Document{
		XMLName: xml.Name{Local: "mysqldump"},
		Database: schema.Database{Tables: []schema.Table{
			{
				Name: "#__content",
				Fields: []schema.Field{
					{Field: "id", Type: "int(10) unsigned", Null: "NO", Key: "PRI", Extra: "auto_increment"},
					{Field: "title", Type: "varchar(255)", Null: "NO", Default: &def},
				},
				Keys: []schema.Key{
					{KeyName: "PRIMARY", SeqInIndex: 1, ColumnName: "id"},
					{KeyName: "idx_title", NonUnique: 1, SeqInIndex: 1, ColumnName: "title", IndexType: "BTREE"},
				},
			},
			{Name: "#__empty", Fields: []schema.Field{{Field: "id", Type: "int", Null: "NO"}}},
		}},
	}
}

func TestToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "structure.xlsx")
	require.NoError(t, ToXLSX(testDocument(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Summary", "#__content", "#__empty"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Equal(t, []string{"Table", "Fields", "Keys", "Sequences"}, summary[0])
	require.Equal(t, []string{"#__content", "2", "2", "0"}, summary[1])

	rows, err := f.GetRows("#__content")
	require.NoError(t, err)
	require.Equal(t, fieldHeaders, rows[0])
	require.Equal(t, []string{"id", "int(10) unsigned", "NO", "PRI", "", "auto_increment"}, rows[1])
	require.Equal(t, []string{"title", "varchar(255)", "NO", "", "none"}, rows[2])
	require.Equal(t, keyHeaders, rows[4])
	require.Equal(t, []string{"PRIMARY", "id", "1", "TRUE", "TRUE"}, rows[5])
	require.Equal(t, []string{"idx_title", "title", "1", "FALSE", "FALSE", "BTREE"}, rows[6])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(testDocument(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Len(t, f.GetSheetList(), 3)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}
	require.Equal(t, "#__a_b", sheetName("#__a/b", used))
	require.Equal(t, "Summary~2", sheetName("Summary", used))

	long := strings.Repeat("x", 40)
	first := sheetName(long, used)
	second := sheetName(long, used)
	require.Len(t, first, 31)
	require.Len(t, second, 31)
	require.NotEqual(t, first, second)
}
