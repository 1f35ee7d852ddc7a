package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markbench/internal/domain"
)

func sampleResult(id string, mark float64) domain.SubmissionResult {
	return domain.SubmissionResult{
		SubmissionID: id,
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Aggregate: domain.AggregateSummary{
			Mark:        mark,
			Feedback:    "Well structured, needs more tests.",
			Confidence:  0.95,
			MaxMark:     100,
			MarkStdDev:  2.83,
			Method:      "weighted_mean",
			GradersUsed: 2,
		},
		Metadata: domain.SubmissionMetadata{
			TotalRuns:      4,
			SuccessfulRuns: 4,
			TotalCost:      0.0234,
		},
	}
}

func TestCSVWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 14)
	assert.Equal(t, "Submission ID", row[0])
	assert.Equal(t, "Mark", row[1])
	assert.Equal(t, "Feedback", row[13])
}

func TestCSVWriteResults(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteResults([]domain.SubmissionResult{sampleResult("s001", 82.5)}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "s001", row[0])
	assert.Equal(t, "82.5", row[1])
	assert.Equal(t, "100", row[2])
	assert.Equal(t, "82.5", row[3]) // percentage
	assert.Equal(t, "0.950", row[4])
	assert.Equal(t, "2.83", row[5])
	assert.Equal(t, "weighted_mean", row[6])
	assert.Equal(t, "2", row[7])
	assert.Equal(t, "4", row[8])
	assert.Equal(t, "0.0234", row[11])
	assert.Equal(t, "2026-03-01T12:00:00Z", row[12])
	assert.Equal(t, "Well structured, needs more tests.", row[13])
}

func TestCSVWriteResults_ZeroMaxMark(t *testing.T) {
	res := sampleResult("s002", 0)
	res.Aggregate.MaxMark = 0

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteResults([]domain.SubmissionResult{res}))
	w.Flush()

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "", row[3])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "CS101_Assignment_2", SanitizeFilename("CS101 Assignment (2)"))
	assert.Equal(t, "abc", SanitizeFilename("__abc__"))
	long := strings.Repeat("a", 150)
	assert.Len(t, SanitizeFilename(long), 100)
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("marks session one", "csv")
	assert.True(t, strings.HasPrefix(name, "marks_session_one_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
}
