package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bo-socayo/temporal-sandbox/pkg/handlers/workflow"
	"github.com/bo-socayo/temporal-sandbox/pkg/service"
	"github.com/bo-socayo/temporal-sandbox/pkg/storage"
	"github.com/bo-socayo/temporal-sandbox/pkg/telemetry"
)

type mockWorkflowService struct {
	mock.Mock
}

func (m *mockWorkflowService) ExecuteWorkflow(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockWorkflowService) ExecuteWorkflowAsync(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockWorkflowService) GetWorkflowResult(ctx context.Context, workflowID string) (string, error) {
	args := m.Called(ctx, workflowID)
	return args.String(0), args.Error(1)
}

func (m *mockWorkflowService) DescribeWorkflow(ctx context.Context, workflowID string) (*service.WorkflowStatus, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WorkflowStatus), args.Error(1)
}

func (m *mockWorkflowService) ListExecutions(ctx context.Context, limit int) ([]storage.ExecutionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.ExecutionRecord), args.Error(1)
}

func newTestServer(t *testing.T, svc workflow.Service, metrics *telemetry.Metrics) *httptest.Server {
	t.Helper()
	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Workflow: svc,
			Metrics:  metrics,
			Logger:   zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func TestWebAPI_Endpoints(t *testing.T) {
	svc := new(mockWorkflowService)
	svc.On("ExecuteWorkflow", mock.Anything, "hello").Return("Processed: HELLO_PROCESSED", nil)
	metrics := telemetry.NewMetrics()
	ts := newTestServer(t, svc, metrics)

	resp, err := http.Post(ts.URL+"/api/workflow/execute", "application/json", strings.NewReader(`{"input":"hello"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Processed: HELLO_PROCESSED", string(body))

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `temporal_sandbox_http_requests_total{method="POST",route="/api/workflow/execute",status="200"} 1`)

	svc.AssertExpectations(t)
}

func TestWebAPI_PanicIsMappedToInternalError(t *testing.T) {
	svc := new(mockWorkflowService)
	svc.On("GetWorkflowResult", mock.Anything, "wf-1").Run(func(mock.Arguments) {
		panic("nil map")
	}).Return("", nil)
	ts := newTestServer(t, svc, nil)

	resp, err := http.Get(ts.URL + "/api/workflow/result/wf-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var errResp workflow.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errResp.Code)
	assert.Equal(t, "An unexpected error occurred", errResp.Message)
}

func TestWebAPI_StartAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	api := NewWebAPI(Config{
		Addr:            addr,
		ShutdownTimeout: time.Second,
		Dependencies: Dependencies{
			Workflow: new(mockWorkflowService),
			Logger:   zerolog.Nop(),
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
