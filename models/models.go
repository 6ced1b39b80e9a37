package models

import "time"

// StudentRecord represents one row of the results sheet
type StudentRecord struct {
	SeatingNumber string  `json:"seatingNumber"`        // Exam registration number, kept as text
	ArabicName    *string `json:"arabicName,omitempty"` // nil when the name cell is blank
	TotalDegree   float64 `json:"totalDegree"`          // Aggregate score
	Row           int     `json:"row"`                  // 1-based spreadsheet row
}

// Name returns the student name or "" when it is missing
func (r StudentRecord) Name() string {
	if r.ArabicName == nil {
		return ""
	}
	return *r.ArabicName
}

// ColumnMap records which header names were matched at load time
type ColumnMap struct {
	SeatingNumber string `json:"seatingNumber"`
	ArabicName    string `json:"arabicName"`
	TotalDegree   string `json:"totalDegree"`
}

// Dataset is the immutable set of records loaded from one file
type Dataset struct {
	ID          string          `json:"id"` // SHA-256 of the source bytes
	FileName    string          `json:"fileName"`
	Sheet       string          `json:"sheet"`
	Columns     ColumnMap       `json:"columns"`
	Records     []StudentRecord `json:"records"`
	SkippedRows []int           `json:"skippedRows,omitempty"`
	LoadedAt    time.Time       `json:"loadedAt"`
}

// Info is the dataset metadata returned by the API
type Info struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Sheet       string    `json:"sheet"`
	Columns     ColumnMap `json:"columns"`
	RecordCount int       `json:"recordCount"`
	SkippedRows int       `json:"skippedRows"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Info summarises the dataset without its records
func (d *Dataset) Info() Info {
	return Info{
		ID:          d.ID,
		FileName:    d.FileName,
		Sheet:       d.Sheet,
		Columns:     d.Columns,
		RecordCount: len(d.Records),
		SkippedRows: len(d.SkippedRows),
		LoadedAt:    d.LoadedAt,
	}
}

// FilterCriteria holds the optional search patterns. Empty means not set.
type FilterCriteria struct {
	NamePattern    string `json:"name,omitempty" form:"name"`
	SeatingPattern string `json:"seat,omitempty" form:"seat"`
}

// SummaryStats is derived from a dataset on every request
type SummaryStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// RankedStudent is a row of the top list
type RankedStudent struct {
	Rank          int     `json:"rank"`
	SeatingNumber string  `json:"seatingNumber"`
	ArabicName    string  `json:"arabicName"`
	TotalDegree   float64 `json:"totalDegree"`
}
