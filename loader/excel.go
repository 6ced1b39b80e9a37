// Package loader reads exam result spreadsheets into typed records.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"thanwia-dashboard/models"
)

// Default header names. The score column also exists in a localized variant.
var (
	DefaultSeatingColumns = []string{"seating_no"}
	DefaultNameColumns    = []string{"arabic_name"}
	DefaultScoreColumns   = []string{"total_degree", "المجموع الكلي"}
)

var (
	// ErrMissingInput means no file, or an empty one, was supplied
	ErrMissingInput = errors.New("no input file supplied")
	// ErrSchema is wrapped by SchemaError
	ErrSchema = errors.New("required column missing")
	// ErrInvalidWorkbook means the bytes are not a readable xlsx workbook
	ErrInvalidWorkbook = errors.New("not a readable excel workbook")
)

// SchemaError lists the required columns that were not found in the header row
type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required column(s): %s", e.Sheet, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrSchema
func (e *SchemaError) Unwrap() error { return ErrSchema }

// Columns lists the accepted header names per field, matched exactly after trimming
type Columns struct {
	Seating []string
	Name    []string
	Score   []string
}

// DefaultColumns returns the header names found in the published result sheets
func DefaultColumns() Columns {
	return Columns{
		Seating: DefaultSeatingColumns,
		Name:    DefaultNameColumns,
		Score:   DefaultScoreColumns,
	}
}

// ExcelLoader parses the first sheet of a workbook
type ExcelLoader struct {
	columns Columns
	logger  *slog.Logger
}

// NewExcelLoader creates a loader; empty alias lists fall back to the defaults
func NewExcelLoader(columns Columns, logger *slog.Logger) *ExcelLoader {
	def := DefaultColumns()
	if len(columns.Seating) == 0 {
		columns.Seating = def.Seating
	}
	if len(columns.Name) == 0 {
		columns.Name = def.Name
	}
	if len(columns.Score) == 0 {
		columns.Score = def.Score
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelLoader{columns: columns, logger: logger.With(slog.String("component", "excel_loader"))}
}

// Identity returns the content hash used as dataset ID
func Identity(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadFile reads a workbook from disk
func (l *ExcelLoader) LoadFile(path string) (*models.Dataset, error) {
	if path == "" {
		return nil, ErrMissingInput
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.LoadBytes(filepath.Base(path), data)
}

// LoadBytes parses workbook bytes and validates the header once.
// Cells are read as stored, so a display format never rounds or reformats a score.
func (l *ExcelLoader) LoadBytes(name string, data []byte) (*models.Dataset, error) {
	if len(data) == 0 {
		return nil, ErrMissingInput
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWorkbook, name, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.Warn("failed to close workbook", slog.String("file", name), slog.String("error", err.Error()))
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrInvalidWorkbook, name)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Sheet: sheet, Missing: []string{l.columns.Seating[0], l.columns.Name[0], l.columns.Score[0]}}
	}

	idx, cols, err := l.resolveHeader(sheet, rows[0])
	if err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		ID:       Identity(data),
		FileName: name,
		Sheet:    sheet,
		Columns:  cols,
		Records:  make([]models.StudentRecord, 0, len(rows)-1),
		LoadedAt: time.Now().UTC(),
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		raw := strings.TrimSpace(cell(row, idx.score))
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.logger.Debug("skipping row with non-numeric score",
				slog.String("file", name), slog.Int("row", rowNum), slog.String("value", raw))
			ds.SkippedRows = append(ds.SkippedRows, rowNum)
			continue
		}

		rec := models.StudentRecord{
			SeatingNumber: strings.TrimSpace(cell(row, idx.seating)),
			TotalDegree:   score,
			Row:           rowNum,
		}
		if n := strings.TrimSpace(cell(row, idx.name)); n != "" {
			rec.ArabicName = &n
		}
		ds.Records = append(ds.Records, rec)
	}

	l.logger.Info("loaded results sheet",
		slog.String("file", name),
		slog.String("sheet", sheet),
		slog.String("dataset_id", ds.ID),
		slog.Int("records", len(ds.Records)),
		slog.Int("skipped", len(ds.SkippedRows)))
	return ds, nil
}

type columnIndex struct {
	seating, name, score int
}

func (l *ExcelLoader) resolveHeader(sheet string, header []string) (columnIndex, models.ColumnMap, error) {
	idx := columnIndex{seating: -1, name: -1, score: -1}
	var cols models.ColumnMap

	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case idx.seating < 0 && contains(l.columns.Seating, h):
			idx.seating, cols.SeatingNumber = i, h
		case idx.name < 0 && contains(l.columns.Name, h):
			idx.name, cols.ArabicName = i, h
		case idx.score < 0 && contains(l.columns.Score, h):
			idx.score, cols.TotalDegree = i, h
		}
	}

	var missing []string
	if idx.seating < 0 {
		missing = append(missing, l.columns.Seating[0])
	}
	if idx.name < 0 {
		missing = append(missing, l.columns.Name[0])
	}
	if idx.score < 0 {
		missing = append(missing, strings.Join(l.columns.Score, " | "))
	}
	if len(missing) > 0 {
		return idx, cols, &SchemaError{Sheet: sheet, Missing: missing}
	}
	return idx, cols, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// cell tolerates short rows; excelize trims trailing empty cells
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
