package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"markbench/internal/domain"
	"markbench/internal/export"
	"markbench/internal/service"
)

// GradingHandler handles grading endpoints.
type GradingHandler struct {
	svc service.GradingService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(svc service.GradingService) *GradingHandler {
	return &GradingHandler{svc: svc}
}

type submissionPayload struct {
	SubmissionID string                 `json:"submission_id" binding:"required"`
	Content      map[string]interface{} `json:"content"`
}

type batchRequest struct {
	Submissions    []submissionPayload `json:"submissions" binding:"required,min=1,dive"`
	AssignmentSpec string              `json:"assignment_spec" binding:"required"`
	Rubric         string              `json:"rubric"`
	AssignmentRef  string              `json:"assignment_ref"`
	RubricRef      string              `json:"rubric_ref"`
	MaxCost        float64             `json:"max_cost"`
}

// GradeBatch handles POST /grading/batch
func (h *GradingHandler) GradeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	subs := make([]domain.Submission, 0, len(req.Submissions))
	for _, p := range req.Submissions {
		subs = append(subs, domain.Submission{SubmissionID: p.SubmissionID, Content: p.Content})
	}

	doc, err := h.svc.GradeBatch(c.Request.Context(), service.BatchRequest{
		Submissions:    subs,
		AssignmentSpec: req.AssignmentSpec,
		Rubric:         req.Rubric,
		AssignmentRef:  req.AssignmentRef,
		RubricRef:      req.RubricRef,
		MaxCost:        req.MaxCost,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// SessionSummary handles GET /grading/session/summary
func (h *GradingHandler) SessionSummary(c *gin.Context) {
	RespondOK(c, h.svc.SessionSummary())
}

// SessionResults handles GET /grading/sessions/:id/results
func (h *GradingHandler) SessionResults(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a UUID")
		return
	}

	results, err := h.svc.SessionResults(c.Request.Context(), sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, results)
}

// ExportSession handles GET /grading/sessions/:id/export?format=csv|xlsx
func (h *GradingHandler) ExportSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a UUID")
		return
	}

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	results, err := h.svc.SessionResults(c.Request.Context(), sessionID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("marks_"+sessionID.String(), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteXLSX(results, &buf); err != nil {
			HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	// BOM first so Excel detects UTF-8.
	if _, err := c.Writer.Write(export.BOM); err != nil {
		return
	}
	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteResults(results); err != nil {
		return
	}
	w.Flush()
}
