package grading

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedResponse is the structured form of one model verdict.
type ParsedResponse struct {
	Mark     float64
	Feedback string
	MaxMark  float64
}

var (
	markPattern     = regexp.MustCompile(`(?i)MARK[:\s]*(\d+(?:\.\d+)?)`)
	feedbackPattern = regexp.MustCompile(`(?is)FEEDBACK[:\s]*(.*?)(\n\n|\z)`)
)

// ParseGradingResponse extracts a mark and feedback from free-form model
// output. Extraction is best-effort and never fails: an unparsable mark
// defaults to 0, and when no feedback field is recognizable the entire
// response is used verbatim as feedback.
func ParseGradingResponse(responseText string, maxMark float64) ParsedResponse {
	result := ParsedResponse{
		Mark:     0,
		Feedback: strings.TrimSpace(responseText),
		MaxMark:  maxMark,
	}

	if m := markPattern.FindStringSubmatch(responseText); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.Mark = v
		}
	}

	if m := feedbackPattern.FindStringSubmatch(responseText); m != nil {
		result.Feedback = strings.TrimSpace(m[1])
	}

	return result
}
