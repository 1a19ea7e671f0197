// Package workflow serves the /api/workflow routes.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bo-socayo/temporal-sandbox/pkg/service"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

// Service is implemented by service.WorkflowClientService.
type Service interface {
	ExecuteWorkflow(ctx context.Context, input string) (string, error)
	ExecuteWorkflowAsync(ctx context.Context, input string) (string, error)
	GetWorkflowResult(ctx context.Context, workflowID string) (string, error)
	DescribeWorkflow(ctx context.Context, workflowID string) (*service.WorkflowStatus, error)
	ListExecutions(ctx context.Context, limit int) ([]storage.ExecutionRecord, error)
}

// WorkflowRequest is the body of the execute routes.
type WorkflowRequest struct {
	Input string `json:"input"`
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the handlers on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/execute", h.Execute)
	r.Post("/execute-async", h.ExecuteAsync)
	r.Get("/result/{workflowId}", h.GetResult)
	r.Get("/status/{workflowId}", h.GetStatus)
	r.Get("/executions", h.ListExecutions)
}

func decodeRequest(r *http.Request) (WorkflowRequest, error) {
	var req WorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	result, err := h.svc.ExecuteWorkflow(r.Context(), req.Input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeText(w, r, result)
}

func (h *Handler) ExecuteAsync(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	workflowID, err := h.svc.ExecuteWorkflowAsync(r.Context(), req.Input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeText(w, r, "Workflow started with ID: "+workflowID)
}

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWorkflowResult(r.Context(), chi.URLParam(r, "workflowId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeText(w, r, result)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.DescribeWorkflow(r.Context(), chi.URLParam(r, "workflowId"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// ListExecutions serves ?limit=N, N in [1, storage.MaxListLimit] after
// clamping. A missing limit uses storage.DefaultListLimit.
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, r, &service.InvalidArgumentError{Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.svc.ListExecutions(r.Context(), storage.NormalizeLimit(limit))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if records == nil {
		records = []storage.ExecutionRecord{}
	}
	writeJSON(w, r, http.StatusOK, records)
}
