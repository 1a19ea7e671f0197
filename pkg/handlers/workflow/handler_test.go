package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bo-socayo/temporal-sandbox/pkg/service"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ExecuteWorkflow(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockService) ExecuteWorkflowAsync(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockService) GetWorkflowResult(ctx context.Context, workflowID string) (string, error) {
	args := m.Called(ctx, workflowID)
	return args.String(0), args.Error(1)
}

func (m *mockService) DescribeWorkflow(ctx context.Context, workflowID string) (*service.WorkflowStatus, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WorkflowStatus), args.Error(1)
}

func (m *mockService) ListExecutions(ctx context.Context, limit int) ([]storage.ExecutionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ExecutionRecord), args.Error(1)
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/workflow", NewHandler(svc).Routes)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_TextRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMocks func(m *mockService)
		wantStatus int
		wantBody   string
		wantCode   string
		wantMsg    string
	}{
		{
			name:   "execute returns result",
			method: http.MethodPost,
			path:   "/api/workflow/execute",
			body:   `{"input":"hello"}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflow", mock.Anything, "hello").Return("Processed: HELLO_PROCESSED", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "Processed: HELLO_PROCESSED",
		},
		{
			name:   "execute with blank input",
			method: http.MethodPost,
			path:   "/api/workflow/execute",
			body:   `{"input":"  "}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflow", mock.Anything, "  ").
					Return("", &service.InvalidArgumentError{Message: "Input cannot be null or empty"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Input cannot be null or empty",
		},
		{
			name:   "execute with null input",
			method: http.MethodPost,
			path:   "/api/workflow/execute",
			body:   `{"input":null}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflow", mock.Anything, "").
					Return("", &service.InvalidArgumentError{Message: "Input cannot be null or empty"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Input cannot be null or empty",
		},
		{
			name:   "execute surfaces Temporal failure",
			method: http.MethodPost,
			path:   "/api/workflow/execute",
			body:   `{"input":"hello"}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflow", mock.Anything, "hello").
					Return("", &service.ExecutionError{Op: service.OpExecute, Cause: errors.New("connection refused")})
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeWorkflowExecutionError,
			wantMsg:    "Failed to execute workflow: connection refused",
		},
		{
			name:       "execute with malformed body",
			method:     http.MethodPost,
			path:       "/api/workflow/execute",
			body:       `{"input":`,
			setupMocks: func(*mockService) {},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternalServerError,
			wantMsg:    "An unexpected error occurred",
		},
		{
			name:   "execute-async returns workflow id",
			method: http.MethodPost,
			path:   "/api/workflow/execute-async",
			body:   `{"input":"hello"}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflowAsync", mock.Anything, "hello").
					Return("example-workflow-async-1700000000000-abcd1234", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "Workflow started with ID: example-workflow-async-1700000000000-abcd1234",
		},
		{
			name:   "execute-async surfaces start failure",
			method: http.MethodPost,
			path:   "/api/workflow/execute-async",
			body:   `{"input":"hello"}`,
			setupMocks: func(m *mockService) {
				m.On("ExecuteWorkflowAsync", mock.Anything, "hello").
					Return("", &service.ExecutionError{Op: service.OpExecuteAsync, Cause: errors.New("unavailable")})
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeWorkflowExecutionError,
			wantMsg:    "Failed to start async workflow: unavailable",
		},
		{
			name:   "result returns result",
			method: http.MethodGet,
			path:   "/api/workflow/result/wf-1",
			setupMocks: func(m *mockService) {
				m.On("GetWorkflowResult", mock.Anything, "wf-1").Return("Processed: A_PROCESSED", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "Processed: A_PROCESSED",
		},
		{
			name:   "result with blank id",
			method: http.MethodGet,
			path:   "/api/workflow/result/%20",
			setupMocks: func(m *mockService) {
				m.On("GetWorkflowResult", mock.Anything, " ").
					Return("", &service.InvalidArgumentError{Message: "Workflow ID cannot be null or empty"})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Workflow ID cannot be null or empty",
		},
		{
			name:   "result with unknown id",
			method: http.MethodGet,
			path:   "/api/workflow/result/missing",
			setupMocks: func(m *mockService) {
				m.On("GetWorkflowResult", mock.Anything, "missing").
					Return("", &service.ExecutionError{Op: service.OpGetResult, Cause: errors.New("workflow not found")})
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeWorkflowExecutionError,
			wantMsg:    "Failed to get workflow result: workflow not found",
		},
		{
			name:   "unexpected service error",
			method: http.MethodGet,
			path:   "/api/workflow/result/wf-2",
			setupMocks: func(m *mockService) {
				m.On("GetWorkflowResult", mock.Anything, "wf-2").Return("", errors.New("something odd"))
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternalServerError,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			tt.setupMocks(svc)

			before := time.Now().UnixMilli()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode == "" {
				assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				resp := decodeError(t, rec)
				assert.Equal(t, tt.wantCode, resp.Code)
				assert.Equal(t, tt.wantMsg, resp.Message)
				assert.GreaterOrEqual(t, resp.Timestamp, before)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_GetStatus(t *testing.T) {
	svc := new(mockService)
	svc.On("DescribeWorkflow", mock.Anything, "wf-1").Return(&service.WorkflowStatus{
		WorkflowID:   "wf-1",
		RunID:        "run-1",
		WorkflowType: "ExampleWorkflow",
		TaskQueue:    "example-task-queue",
		Status:       "Completed",
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workflow/status/wf-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status service.WorkflowStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "run-1", status.RunID)
	assert.Equal(t, "Completed", status.Status)
}

func TestHandler_ListExecutions(t *testing.T) {
	records := []storage.ExecutionRecord{{ID: 2, WorkflowID: "wf-2"}, {ID: 1, WorkflowID: "wf-1"}}

	tests := []struct {
		name       string
		query      string
		setupMocks func(m *mockService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "default limit",
			setupMocks: func(m *mockService) {
				m.On("ListExecutions", mock.Anything, storage.DefaultListLimit).Return(records, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "limit above maximum is clamped",
			query: "?limit=10000",
			setupMocks: func(m *mockService) {
				m.On("ListExecutions", mock.Anything, storage.MaxListLimit).Return(records, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non numeric limit",
			query:      "?limit=abc",
			setupMocks: func(*mockService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "zero limit",
			query:      "?limit=0",
			setupMocks: func(*mockService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:  "storage disabled",
			query: "?limit=5",
			setupMocks: func(m *mockService) {
				m.On("ListExecutions", mock.Anything, 5).Return(nil, service.ErrStorageDisabled)
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			tt.setupMocks(svc)

			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workflow/executions"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			} else {
				var got []storage.ExecutionRecord
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Len(t, got, 2)
			}
			svc.AssertExpectations(t)
		})
	}
}
