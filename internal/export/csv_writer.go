package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"markbench/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row for the marks export.
var columns = []string{
	"Submission ID",
	"Mark",
	"Max Mark",
	"Percentage",
	"Confidence",
	"Mark Std Dev",
	"Method",
	"Graders Used",
	"Total Runs",
	"Successful Runs",
	"Failed Runs",
	"Total Cost",
	"Graded At",
	"Feedback",
}

// CSVWriter wraps csv.Writer for exporting grading results as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes CSV to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResults converts a batch of grading results to CSV rows and writes them.
func (w *CSVWriter) WriteResults(results []domain.SubmissionResult) error {
	for i := range results {
		if err := w.csv.Write(resultToRow(&results[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// resultToRow converts a single grading result to a string slice matching
// the header order.
func resultToRow(res *domain.SubmissionResult) []string {
	agg := res.Aggregate

	percentage := ""
	if agg.MaxMark > 0 {
		percentage = strconv.FormatFloat(agg.Mark/agg.MaxMark*100, 'f', 1, 64)
	}

	return []string{
		res.SubmissionID,
		strconv.FormatFloat(agg.Mark, 'f', 1, 64),
		strconv.FormatFloat(agg.MaxMark, 'f', 0, 64),
		percentage,
		strconv.FormatFloat(agg.Confidence, 'f', 3, 64),
		strconv.FormatFloat(agg.MarkStdDev, 'f', 2, 64),
		agg.Method,
		strconv.Itoa(agg.GradersUsed),
		strconv.Itoa(res.Metadata.TotalRuns),
		strconv.Itoa(res.Metadata.SuccessfulRuns),
		strconv.Itoa(res.Metadata.FailedRuns),
		strconv.FormatFloat(res.Metadata.TotalCost, 'f', 4, 64),
		res.Timestamp.Format(time.RFC3339),
		agg.Feedback,
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a session label for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_label}_{YYYY-MM-DD}.{ext}
func BuildFilename(label, ext string) string {
	sanitized := SanitizeFilename(label)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
