// Package testutil builds spreadsheets for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ResultsHeader is the header row of the published result sheets
var ResultsHeader = []interface{}{"seating_no", "arabic_name", "total_degree"}

// SampleRows is the three-student scenario used across tests
var SampleRows = [][]interface{}{
	{101, "Ahmed Ali", 350},
	{102, "Sara", 410},
	{103, "Ali Hassan", 200},
}

// Workbook writes header and rows to the first sheet and returns the xlsx bytes
func Workbook(t testing.TB, header []interface{}, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if header != nil {
		require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	}
	for i, row := range rows {
		r := row
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// SampleWorkbook returns the three-student scenario as xlsx bytes
func SampleWorkbook(t testing.TB) []byte {
	t.Helper()
	return Workbook(t, ResultsHeader, SampleRows)
}
