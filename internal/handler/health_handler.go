package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"markbench/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db  *sqlx.DB
	llm port.LLMClient
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, llm port.LLMClient) *HealthHandler {
	return &HealthHandler{db: db, llm: llm}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
		return
	}
	providers := h.llm.AvailableProviders()
	if len(providers) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no LLM providers configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "providers": providers})
}
