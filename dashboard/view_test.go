package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanwia-dashboard/loader"
	"thanwia-dashboard/models"
)

func sampleDataset() *models.Dataset {
	ahmed, sara, ali := "Ahmed Ali", "Sara", "Ali Hassan"
	return &models.Dataset{
		ID: "abc",
		Records: []models.StudentRecord{
			{SeatingNumber: "101", ArabicName: &ahmed, TotalDegree: 350},
			{SeatingNumber: "102", ArabicName: &sara, TotalDegree: 410},
			{SeatingNumber: "103", ArabicName: &ali, TotalDegree: 200},
		},
	}
}

func TestBuild_NoSearch(t *testing.T) {
	v := Build(sampleDataset(), models.FilterCriteria{}, DefaultOptions())

	require.Len(t, v.Messages, 1)
	assert.Equal(t, CodeSearchPrompt, v.Messages[0].Code)
	assert.Nil(t, v.Matches)

	require.NotNil(t, v.Stats)
	assert.Equal(t, models.SummaryStats{Count: 3, Min: 200, Max: 410, Mean: 320}, *v.Stats)
	require.NotNil(t, v.Gauge)
	assert.Equal(t, 320.0, v.Gauge.Value)
	assert.Len(t, v.Histogram, 50)
	require.Len(t, v.Top, 3)
	assert.Equal(t, "102", v.Top[0].SeatingNumber)
	assert.Equal(t, 3, v.Dataset.RecordCount)
}

func TestBuild_Search(t *testing.T) {
	v := Build(sampleDataset(), models.FilterCriteria{NamePattern: " ALI "}, Options{Bins: 5, TopN: 2})

	require.Len(t, v.Messages, 1)
	assert.Equal(t, LevelSuccess, v.Messages[0].Level)
	assert.Equal(t, "Found 2 student(s) matching the search", v.Messages[0].Text)
	require.Len(t, v.Matches, 2)
	assert.Equal(t, "101", v.Matches[0].SeatingNumber)
	assert.Equal(t, "103", v.Matches[1].SeatingNumber)
	assert.Equal(t, "ALI", v.Criteria.NamePattern)

	// statistics always describe the whole file
	assert.Equal(t, 3, v.Stats.Count)
	assert.Len(t, v.Histogram, 5)
	assert.Len(t, v.Top, 2)
}

func TestBuild_NoMatches(t *testing.T) {
	v := Build(sampleDataset(), models.FilterCriteria{SeatingPattern: "999"}, DefaultOptions())
	assert.Empty(t, v.Matches)
	assert.Equal(t, fmt.Sprintf("Found %d student(s) matching the search", 0), v.Messages[0].Text)
}

func TestBuild_EmptyDataset(t *testing.T) {
	v := Build(&models.Dataset{ID: "empty"}, models.FilterCriteria{}, DefaultOptions())
	require.Len(t, v.Messages, 2)
	assert.Equal(t, CodeEmptyDataset, v.Messages[1].Code)
	assert.Nil(t, v.Stats)
	assert.Nil(t, v.Gauge)
	assert.Empty(t, v.Top)
}

func TestMissing(t *testing.T) {
	v := Build(nil, models.FilterCriteria{NamePattern: "x"}, DefaultOptions())
	require.Len(t, v.Messages, 1)
	assert.Equal(t, CodeUploadPrompt, v.Messages[0].Code)
	assert.Nil(t, v.Stats)
	assert.Nil(t, v.Histogram)
}

func TestFailed(t *testing.T) {
	v := Failed(fmt.Errorf("load: %w", &loader.SchemaError{Sheet: "Sheet1", Missing: []string{"total_degree"}}))
	require.Len(t, v.Messages, 1)
	assert.Equal(t, LevelError, v.Messages[0].Level)
	assert.Equal(t, CodeSchemaError, v.Messages[0].Code)
	assert.Contains(t, v.Messages[0].Text, "total_degree")
	assert.Nil(t, v.Stats)

	assert.Equal(t, Missing(), Failed(loader.ErrMissingInput))
	invalid := Failed(fmt.Errorf("load: %w", loader.ErrInvalidWorkbook))
	assert.Equal(t, CodeInvalidFile, invalid.Messages[0].Code)
	assert.Equal(t, LevelError, invalid.Messages[0].Level)
	assert.Equal(t, "LOAD_FAILED", Failed(fmt.Errorf("boom")).Messages[0].Code)
}
