// Package dashboard assembles everything one page view shows from a dataset and the
// current search.
package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"thanwia-dashboard/charts"
	"thanwia-dashboard/engine"
	"thanwia-dashboard/loader"
	"thanwia-dashboard/models"
)

// Message levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Message codes, stable for clients that localise the text
const (
	CodeUploadPrompt = "UPLOAD_PROMPT"
	CodeSearchPrompt = "SEARCH_PROMPT"
	CodeMatches      = "MATCHES_FOUND"
	CodeSchemaError  = "SCHEMA_ERROR"
	CodeInvalidFile  = "INVALID_FILE"
	CodeEmptyDataset = "EMPTY_DATASET"
)

// Message is a user-visible notice
type Message struct {
	Level string `json:"level"`
	Code  string `json:"code"`
	Text  string `json:"text"`
}

// Options tune the derived sections
type Options struct {
	Bins int
	TopN int
}

// DefaultOptions matches the published dashboard
func DefaultOptions() Options {
	return Options{Bins: charts.DefaultBins, TopN: engine.DefaultTopN}
}

// View is the full dashboard payload
type View struct {
	Dataset   *models.Info           `json:"dataset,omitempty"`
	Criteria  models.FilterCriteria  `json:"criteria"`
	Messages  []Message              `json:"messages"`
	Matches   []models.StudentRecord `json:"matches,omitempty"`
	Stats     *models.SummaryStats   `json:"stats,omitempty"`
	Gauge     *charts.GaugeSpec      `json:"gauge,omitempty"`
	Histogram []charts.Bin           `json:"histogram,omitempty"`
	Top       []models.RankedStudent `json:"top,omitempty"`
}

// Missing is the view shown before any file is supplied
func Missing() View {
	return View{Messages: []Message{{
		Level: LevelInfo,
		Code:  CodeUploadPrompt,
		Text:  "Upload a results spreadsheet to begin.",
	}}}
}

// Failed is the view for a load error; a schema error is shown and everything else skipped
func Failed(err error) View {
	var schemaErr *loader.SchemaError
	if errors.As(err, &schemaErr) {
		return View{Messages: []Message{{
			Level: LevelError,
			Code:  CodeSchemaError,
			Text:  fmt.Sprintf("The file is missing the required column(s): %s", strings.Join(schemaErr.Missing, ", ")),
		}}}
	}
	if errors.Is(err, loader.ErrInvalidWorkbook) {
		return View{Messages: []Message{{
			Level: LevelError,
			Code:  CodeInvalidFile,
			Text:  "The file could not be read as an Excel workbook (.xlsx).",
		}}}
	}
	if errors.Is(err, loader.ErrMissingInput) {
		return Missing()
	}
	return View{Messages: []Message{{Level: LevelError, Code: "LOAD_FAILED", Text: err.Error()}}}
}

// Build filters for the search box and derives statistics, gauge, histogram and
// leaderboard from the whole dataset
func Build(ds *models.Dataset, criteria models.FilterCriteria, opts Options) View {
	if ds == nil {
		return Missing()
	}
	if opts.Bins <= 0 {
		opts.Bins = charts.DefaultBins
	}
	if opts.TopN <= 0 {
		opts.TopN = engine.DefaultTopN
	}

	info := ds.Info()
	criteria = engine.Normalize(criteria)
	v := View{Dataset: &info, Criteria: criteria}

	if engine.Active(criteria) {
		v.Matches = engine.Filter(ds.Records, criteria)
		v.Messages = append(v.Messages, Message{
			Level: LevelSuccess,
			Code:  CodeMatches,
			Text:  fmt.Sprintf("Found %d student(s) matching the search", len(v.Matches)),
		})
	} else {
		v.Messages = append(v.Messages, Message{
			Level: LevelInfo,
			Code:  CodeSearchPrompt,
			Text:  "Enter a name or seating number to search.",
		})
	}

	stats, err := engine.Summarize(ds.Records)
	if err != nil {
		v.Messages = append(v.Messages, Message{
			Level: LevelWarning,
			Code:  CodeEmptyDataset,
			Text:  "The file has no student records.",
		})
		return v
	}
	v.Stats = &stats

	gauge := charts.Gauge(stats)
	v.Gauge = &gauge

	// Both only fail on empty input, ruled out above
	v.Histogram, _ = charts.Histogram(ds.Records, opts.Bins)
	top, _ := engine.TopN(ds.Records, opts.TopN)
	v.Top = engine.Rank(top)
	return v
}
