package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dshop/backend/internal/infrastructure/queue"
)

type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) Queues(ctx context.Context) ([]queue.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.Summary), args.Error(1)
}

func (m *MockInspector) FailedJobs(ctx context.Context, name string, limit int) ([]queue.FailedJob, error) {
	args := m.Called(ctx, name, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.FailedJob), args.Error(1)
}

func newDashboardEngine(d Dashboard) *gin.Engine {
	engine := gin.New()
	d.RegisterRoutes(engine.Group("/super-admin/queue"))
	return engine
}

func TestNewDashboard(t *testing.T) {
	assert.False(t, NewDashboard(nil, 50, nil).Enabled())
	assert.True(t, NewDashboard(new(MockInspector), 50, nil).Enabled())
}

func TestDisabledDashboard(t *testing.T) {
	engine := newDashboardEngine(NewDashboard(nil, 50, nil))

	w := doRequest(engine, http.MethodGet, "/super-admin/queue", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Redis is not configured. Queuing disabled.", w.Body.String())
	assert.Equal(t, http.StatusNotFound, doRequest(engine, http.MethodGet, "/super-admin/queue/api/queues", "").Code)
}

var testSummaries = []queue.Summary{
	{Name: "email", Counts: queue.Counts{Waiting: 2, Active: 1, Failed: 3}},
	{Name: "discord", Counts: queue.Counts{Completed: 10}},
}

func TestEnabledDashboard_Overview(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("Queues", mock.Anything).Return(testSummaries, nil)

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 50, nil)), http.MethodGet, "/super-admin/queue", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, "<td>email</td><td>2</td><td>1</td>")
	assert.Contains(t, body, "<td>discord</td>")
	assert.Contains(t, body, `href="queue/api/queues/email/failed">3</a>`)
}

func TestEnabledDashboard_Overview_EscapesNames(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("Queues", mock.Anything).Return([]queue.Summary{{Name: "<script>"}}, nil)

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 50, nil)), http.MethodGet, "/super-admin/queue", "")

	assert.NotContains(t, w.Body.String(), "<td><script></td>")
	assert.Contains(t, w.Body.String(), "&lt;script&gt;")
}

func TestEnabledDashboard_ListQueues(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("Queues", mock.Anything).Return(testSummaries, nil)

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 50, nil)), http.MethodGet, "/super-admin/queue/api/queues", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"name":"email","counts":{"waiting":2,"active":1,"paused":0,"delayed":0,"completed":0,"failed":3}},
		{"name":"discord","counts":{"waiting":0,"active":0,"paused":0,"delayed":0,"completed":10,"failed":0}}
	]`, w.Body.String())
}

func TestEnabledDashboard_ListQueues_RedisDown(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("Queues", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 50, nil)), http.MethodGet, "/super-admin/queue/api/queues", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Unable to read queues"}`, w.Body.String())
}

func TestEnabledDashboard_ListFailed(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("FailedJobs", mock.Anything, "email", 25).Return([]queue.FailedJob{
		{ID: "17", Name: "send", FailedReason: "SMTP timeout", Timestamp: 1700000000000},
	}, nil)

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 25, nil)), http.MethodGet, "/super-admin/queue/api/queues/email/failed", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"17","name":"send","failedReason":"SMTP timeout","timestamp":1700000000000}]`, w.Body.String())
	inspector.AssertExpectations(t)
}

func TestEnabledDashboard_ListFailed_UnknownQueue(t *testing.T) {
	inspector := new(MockInspector)
	inspector.On("FailedJobs", mock.Anything, "nope", 50).
		Return(nil, fmt.Errorf("%w: nope", queue.ErrUnknownQueue))

	w := doRequest(newDashboardEngine(NewDashboard(inspector, 50, nil)), http.MethodGet, "/super-admin/queue/api/queues/nope/failed", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Queue not found"}`, w.Body.String())
}
