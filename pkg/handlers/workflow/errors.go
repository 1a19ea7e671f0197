package workflow

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/bo-socayo/temporal-sandbox/pkg/service"
)

// Error codes of ErrorResponse.
const (
	CodeWorkflowExecutionError = "WORKFLOW_EXECUTION_ERROR"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInternalServerError    = "INTERNAL_SERVER_ERROR"

	unexpectedErrorMessage = "An unexpected error occurred"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// WriteError maps err to a status code and an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())

	status := http.StatusInternalServerError
	resp := ErrorResponse{Timestamp: time.Now().UnixMilli()}

	var execErr *service.ExecutionError
	switch {
	case errors.As(err, &execErr):
		resp.Code = CodeWorkflowExecutionError
		resp.Message = execErr.Error()
		logger.Error().Err(err).Msg("workflow execution error")
	case errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
		resp.Code = CodeInvalidRequest
		resp.Message = err.Error()
		logger.Warn().Err(err).Msg("invalid request")
	default:
		resp.Code = CodeInternalServerError
		resp.Message = unexpectedErrorMessage
		logger.Error().Err(err).Msg("unexpected error")
	}

	writeJSON(w, r, status, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeText(w http.ResponseWriter, r *http.Request, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}
