package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/tessa/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_CSVWithSchema(t *testing.T) {
	path := writeFile(t, "ks2.csv", []byte(
		"\xEF\xBB\xBFRECTYPE,URN,SCHNAME,PTFSM,TOTPUPS\n"+
			"1,100001,Oak Primary,12%,210\n"+
			"1,100002,Ash Primary,SUPP,NA\n"+
			"4,,England,15%,\n"))

	ds, err := Load(context.Background(), path, Options{
		Schema: Strings("URN", "SCHNAME", "PTFSM", "TOTPUPS").With(frame.TypeInt, "RECTYPE"),
	})
	require.NoError(t, err)

	assert.Equal(t, "ks2", ds.Name)
	assert.Equal(t, []string{"RECTYPE", "URN", "SCHNAME", "PTFSM", "TOTPUPS"}, ds.Names())
	assert.Equal(t, 3, ds.NumRows())

	rectype, _ := ds.Column("RECTYPE")
	assert.Equal(t, frame.TypeInt, rectype.Type)
	assert.Equal(t, []frame.Value{frame.Int(1), frame.Int(1), frame.Int(4)}, rectype.Values)

	urn, _ := ds.Column("URN")
	assert.Equal(t, frame.TypeString, urn.Type)
	assert.True(t, urn.Values[2].IsNull())

	pupils, _ := ds.Column("TOTPUPS")
	assert.Equal(t, []frame.Value{frame.String("210"), frame.Null(), frame.Null()}, pupils.Values)
}

func TestLoad_CSVInfersUndeclaredColumns(t *testing.T) {
	path := writeFile(t, "meta.csv", []byte("Field Name,Order,Weight\nURN,1,0.5\nLEA,2,\n"))

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	tests := []struct {
		column string
		want   frame.Type
	}{
		{column: "Field Name", want: frame.TypeString},
		{column: "Order", want: frame.TypeInt},
		{column: "Weight", want: frame.TypeFloat},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col, ok := ds.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.want, col.Type)
		})
	}
}

func TestLoad_CSVTextRule(t *testing.T) {
	path := writeFile(t, "mats.csv", []byte("ID,PALL,TELIG\n1,25,30\n2,30,NA\n"))

	ds, err := Load(context.Background(), path, Options{
		Schema: Strings("ID"),
		Text:   func(h string) bool { return h == "PALL" || h == "ID" },
	})
	require.NoError(t, err)

	pall, _ := ds.Column("PALL")
	assert.Equal(t, frame.TypeString, pall.Type)
	assert.Equal(t, []frame.Value{frame.String("25"), frame.String("30")}, pall.Values)

	telig, _ := ds.Column("TELIG")
	assert.Equal(t, frame.TypeInt, telig.Type)
}

func TestLoad_CSVLatin1(t *testing.T) {
	path := writeFile(t, "mats.csv", []byte("TRUST_NAME,TRUST_UID\nSt Cl\xe9ment Trust,42\n"))

	ds, err := Load(context.Background(), path, Options{Encoding: "latin-1"})
	require.NoError(t, err)

	name, _ := ds.Column("TRUST_NAME")
	assert.Equal(t, []frame.Value{frame.String("St Clément Trust")}, name.Values)
}

func TestLoad_CSVShortRowsAndBlankHeader(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("A,,C\n1,2\n1,2,3,4\n"))

	ds, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "Unnamed: 1", "C", "Unnamed: 3"}, ds.Names())
	c, _ := ds.Column("C")
	assert.True(t, c.Values[0].IsNull())
}

func TestLoad_StructuralErrors(t *testing.T) {
	csvPath := writeFile(t, "ks2.csv", []byte("RECTYPE,URN\n1,100001\n,100002\n"))
	txtPath := writeFile(t, "notes.json", []byte("{}"))

	tests := []struct {
		name string
		path string
		opts Options
		want error
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "absent.csv"), want: os.ErrNotExist},
		{name: "declared column absent", path: csvPath, opts: Options{Schema: Strings("LEA")}, want: ErrSchemaColumn},
		{name: "integer column with gap", path: csvPath, opts: Options{Schema: Schema{"RECTYPE": frame.TypeInt}}, want: ErrSchemaValue},
		{name: "unknown encoding", path: csvPath, opts: Options{Encoding: "klingon-8"}, want: ErrEncoding},
		{name: "unknown format", path: txtPath, want: ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.path, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	_, err = f.NewSheet("Data")
	require.NoError(t, err)

	rows := [][]any{
		{"URN", "I01 Income from government", "Did Not Supply flag"},
		{100001, 1234.5, "DNS"},
		{},
		{100002, 99, 0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Data", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "schools.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := Load(context.Background(), path, Options{Sheet: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"URN", "I01 Income from government", "Did Not Supply flag"}, ds.Names())
	require.Equal(t, 2, ds.NumRows(), "blank rows are skipped")

	urn, _ := ds.Column("URN")
	assert.Equal(t, frame.TypeInt, urn.Type)
	income, _ := ds.Column("I01 Income from government")
	assert.Equal(t, frame.TypeFloat, income.Type)
	flag, _ := ds.Column("Did Not Supply flag")
	assert.Equal(t, frame.TypeString, flag.Type)

	_, err = Load(context.Background(), path, Options{Sheet: 5})
	assert.ErrorIs(t, err, ErrSheet)
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "latin-1", "ISO-8859-1", "windows-1252", "cp1252"} {
		_, err := LookupEncoding(name)
		assert.NoError(t, err, name)
	}
}
