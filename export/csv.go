// Package export writes filtered records as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"thanwia-dashboard/models"
)

// DefaultFileName is the suggested name of the download
const DefaultFileName = "filtered_students.csv"

// Header is written as the first row
var Header = []string{"seating_no", "arabic_name", "total_degree"}

// utf8BOM lets Excel detect the encoding of Arabic names
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a BOM, the header and one row per record in order
func WriteCSV(w io.Writer, records []models.StudentRecord) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, r := range records {
		row := []string{r.SeatingNumber, r.Name(), FormatScore(r.TotalDegree)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// FormatScore prints a score without trailing zeros
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
