package fzd

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Funz/fz-go/internal/calculator"
)

// Handler serves the daemon API consumed by the remote adapter
type Handler struct {
	store    *CaseStore
	executor *Executor
}

func NewHandler(store *CaseStore, executor *Executor) *Handler {
	return &Handler{store: store, executor: executor}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SubmitCase stages and starts one case
func (h *Handler) SubmitCase(c *gin.Context) {
	var req calculator.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, calculator.ErrorResponse{Error: err.Error()})
		return
	}
	if req.Command == "" {
		c.JSON(http.StatusBadRequest, calculator.ErrorResponse{Error: "command is required"})
		return
	}

	id, err := h.executor.Start(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, calculator.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, calculator.SubmitResponse{ID: id})
}

// ListCases reports the staged cases, newest first. The optional limit query
// parameter caps the listing.
func (h *Handler) ListCases(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, calculator.ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records := h.store.List(limit)
	summaries := make([]calculator.CaseSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, calculator.CaseSummary{
			ID:     rec.ID,
			Name:   rec.Name,
			Model:  rec.Model,
			Status: rec.Status,
		})
	}
	c.JSON(http.StatusOK, calculator.CaseListResponse{Cases: summaries})
}

// GetCase reports the current status of one case
func (h *Handler) GetCase(c *gin.Context) {
	id := c.Param("id")
	rec, ok := h.store.Snapshot(id)
	if !ok {
		c.JSON(http.StatusNotFound, calculator.ErrorResponse{Error: "case not found"})
		return
	}
	c.JSON(http.StatusOK, calculator.CaseStatusResponse{
		ID:       rec.ID,
		Status:   rec.Status,
		ExitCode: rec.ExitCode,
		Reason:   rec.Reason,
	})
}

// GetCaseFiles returns the files a case produced
func (h *Handler) GetCaseFiles(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Get(id); !ok {
		c.JSON(http.StatusNotFound, calculator.ErrorResponse{Error: "case not found"})
		return
	}
	files, err := h.executor.Files(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, calculator.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, calculator.CaseFilesResponse{Files: files})
}

// CancelCase best-effort terminates a running case
func (h *Handler) CancelCase(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Get(id); !ok {
		c.JSON(http.StatusNotFound, calculator.ErrorResponse{Error: "case not found"})
		return
	}
	if err := h.executor.Cancel(id); err != nil {
		c.JSON(http.StatusInternalServerError, calculator.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancel requested"})
}
