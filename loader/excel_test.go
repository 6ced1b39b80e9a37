package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"thanwia-dashboard/testutil"
)

func TestLoadBytes_Sample(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.SampleWorkbook(t)

	ds, err := l.LoadBytes("results.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, Identity(data), ds.ID)
	assert.Equal(t, "results.xlsx", ds.FileName)
	assert.Equal(t, "total_degree", ds.Columns.TotalDegree)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, "101", ds.Records[0].SeatingNumber)
	assert.Equal(t, "Ahmed Ali", ds.Records[0].Name())
	assert.Equal(t, 350.0, ds.Records[0].TotalDegree)
	assert.Equal(t, 2, ds.Records[0].Row)
	assert.Equal(t, "103", ds.Records[2].SeatingNumber)
}

func TestLoadBytes_LocalizedScoreColumn(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t,
		[]interface{}{"seating_no", "arabic_name", "المجموع الكلي"},
		[][]interface{}{{5001, "محمد", 287.5}})

	ds, err := l.LoadBytes("ar.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "المجموع الكلي", ds.Columns.TotalDegree)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 287.5, ds.Records[0].TotalDegree)
}

func TestLoadBytes_ColumnOrderAndExtraColumns(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t,
		[]interface{}{"school", "total_degree", "arabic_name", "seating_no"},
		[][]interface{}{{"X", 300, "Mona", 77}})

	ds, err := l.LoadBytes("x.xlsx", data)
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "77", ds.Records[0].SeatingNumber)
	assert.Equal(t, "Mona", ds.Records[0].Name())
	assert.Equal(t, 300.0, ds.Records[0].TotalDegree)
}

func TestLoadBytes_MissingScoreColumn(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t,
		[]interface{}{"seating_no", "arabic_name", "score"},
		[][]interface{}{{1, "A", 10}})

	_, err := l.LoadBytes("bad.xlsx", data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"total_degree | المجموع الكلي"}, schemaErr.Missing)
}

func TestLoadBytes_ExactHeaderMatch(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t,
		[]interface{}{"seating_no", "arabic_name", "Total_Degree"},
		[][]interface{}{{1, "A", 10}})

	_, err := l.LoadBytes("case.xlsx", data)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestLoadBytes_EmptySheet(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t, nil, nil)

	_, err := l.LoadBytes("empty.xlsx", data)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestLoadBytes_HeaderOnly(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	ds, err := l.LoadBytes("h.xlsx", testutil.Workbook(t, testutil.ResultsHeader, nil))
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
}

func TestLoadBytes_RowHandling(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	data := testutil.Workbook(t, testutil.ResultsHeader, [][]interface{}{
		{1, "A", 100},
		{2, nil, 150},
		{3, "C", "absent"},
		{nil, nil, nil},
		{5, "E", 90.25},
	})

	ds, err := l.LoadBytes("rows.xlsx", data)
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	assert.Nil(t, ds.Records[1].ArabicName, "blank name is missing, not empty")
	assert.Equal(t, 90.25, ds.Records[2].TotalDegree)
	assert.Equal(t, 6, ds.Records[2].Row)
	assert.Equal(t, []int{4}, ds.SkippedRows)
}

func TestLoadBytes_MissingInput(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)

	_, err := l.LoadBytes("none.xlsx", nil)
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = l.LoadFile("")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = l.LoadFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestLoadBytes_NotAWorkbook(t *testing.T) {
	l := NewExcelLoader(Columns{}, nil)
	_, err := l.LoadBytes("junk.xlsx", []byte("seating_no,arabic_name,total_degree\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkbook)
	assert.NotErrorIs(t, err, ErrSchema)
	assert.NotErrorIs(t, err, ErrMissingInput)
}

func TestLoadBytes_FormattedScores(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := testutil.ResultsHeader
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{101, "Ahmed Ali", 1350}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{102, "Sara", 350.25}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	require.NoError(t, err)
	integer, err := f.NewStyle(&excelize.Style{NumFmt: 1}) // 0
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", thousands))
	require.NoError(t, f.SetCellStyle(sheet, "C3", "C3", integer))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := NewExcelLoader(Columns{}, nil).LoadBytes("formatted.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, ds.SkippedRows)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, 1350.0, ds.Records[0].TotalDegree)
	assert.Equal(t, 350.25, ds.Records[1].TotalDegree)
	assert.Equal(t, "102", ds.Records[1].SeatingNumber)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thanwia_data.xlsx")
	require.NoError(t, os.WriteFile(path, testutil.SampleWorkbook(t), 0o644))

	l := NewExcelLoader(Columns{}, nil)
	ds, err := l.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "thanwia_data.xlsx", ds.FileName)
	assert.Len(t, ds.Records, 3)
}

func TestCustomColumns(t *testing.T) {
	l := NewExcelLoader(Columns{Score: []string{"grade"}}, nil)
	data := testutil.Workbook(t,
		[]interface{}{"seating_no", "arabic_name", "grade"},
		[][]interface{}{{1, "A", 10}})

	ds, err := l.LoadBytes("g.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "grade", ds.Columns.TotalDegree)
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, Identity([]byte("a")), Identity([]byte("a")))
	assert.NotEqual(t, Identity([]byte("a")), Identity([]byte("b")))
	assert.Len(t, Identity(nil), 64)
}
