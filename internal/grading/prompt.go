package grading

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"markbench/internal/domain"
)

var rubricPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)rubric[:\s]*(.*?)(\n\n|\z)`),
	regexp.MustCompile(`(?is)assessment criteria[:\s]*(.*?)(\n\n|\z)`),
	regexp.MustCompile(`(?is)marking scheme[:\s]*(.*?)(\n\n|\z)`),
	regexp.MustCompile(`(?is)grading[:\s]*(.*?)(\n\n|\z)`),
}

var maxMarkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)out of[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)marks?[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)points?[:\s]*(\d+)`),
}

// ExtractRubric pulls rubric text out of an assignment spec, falling back to
// the whole spec when no rubric section is recognizable.
func ExtractRubric(assignmentSpec string) string {
	for _, re := range rubricPatterns {
		if m := re.FindStringSubmatch(assignmentSpec); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return assignmentSpec
}

// ExtractMaxMark reads the maximum achievable mark from an assignment spec.
// Defaults to 100 when no recognizable pattern is found.
func ExtractMaxMark(assignmentSpec string) float64 {
	for _, re := range maxMarkPatterns {
		if m := re.FindStringSubmatch(assignmentSpec); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return float64(v)
			}
		}
	}
	return 100
}

// BuildGradingPrompt renders the grading prompt for one submission.
func BuildGradingPrompt(sub domain.Submission, assignmentSpec, rubric string) string {
	return fmt.Sprintf(`You are an expert academic grader evaluating a student submission. Please provide a detailed assessment.

ASSIGNMENT SPECIFICATION:
%s

GRADING RUBRIC:
%s

STUDENT SUBMISSION (Student ID: %s):
%s

Please provide your assessment in the following format:

MARK: [numerical mark out of total possible marks]
FEEDBACK: [detailed constructive feedback explaining the mark, highlighting strengths and areas for improvement]

Be fair, consistent, and constructive in your evaluation. Consider all aspects of the submission including technical implementation, documentation quality, and adherence to requirements.
`, assignmentSpec, rubric, sub.SubmissionID, SummarizeContent(sub.Content))
}

// SummarizeContent renders the extracted content sections as a compact
// inventory for the prompt.
func SummarizeContent(content map[string]interface{}) string {
	var parts []string

	if docs, ok := content["documents"].([]interface{}); ok {
		parts = append(parts, "DOCUMENTS:")
		for _, d := range docs {
			doc, _ := d.(map[string]interface{})
			name := stringField(doc, "filename", "Unknown")
			text, _ := doc["text"].(string)
			parts = append(parts, fmt.Sprintf("- %s: %d characters", name, len(text)))
		}
	}

	if files, ok := content["code"].([]interface{}); ok {
		parts = append(parts, "CODE FILES:")
		for _, f := range files {
			file, _ := f.(map[string]interface{})
			name := stringField(file, "filename", "Unknown")
			body, _ := file["content"].(string)
			parts = append(parts, fmt.Sprintf("- %s: %d lines", name, strings.Count(body, "\n")+1))
		}
	}

	if files, ok := content["web"].([]interface{}); ok {
		parts = append(parts, "WEB FILES:")
		for _, f := range files {
			file, _ := f.(map[string]interface{})
			name := stringField(file, "filename", "Unknown")
			ftype := stringField(file, "file_type", "unknown")
			parts = append(parts, fmt.Sprintf("- %s: %s file", name, ftype))
		}
	}

	if repo, ok := content["repo_analysis"].(map[string]interface{}); ok {
		parts = append(parts, "REPOSITORY:")
		parts = append(parts, fmt.Sprintf("- Commits: %d", intField(repo, "total_commits")))
		parts = append(parts, fmt.Sprintf("- Development span: %d days", intField(repo, "development_span_days")))
	}

	if len(parts) == 0 {
		return "No content extracted"
	}
	return strings.Join(parts, "\n")
}

func stringField(m map[string]interface{}, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
