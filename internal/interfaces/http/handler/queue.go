package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/queue"
)

// QueueDisabledMessage is served in place of the dashboard when Redis is not configured
const QueueDisabledMessage = "Redis is not configured. Queuing disabled."

// Dashboard is the job queue dashboard mounted under /super-admin/queue.
// The implementation is chosen once at startup.
type Dashboard interface {
	RegisterRoutes(rg *gin.RouterGroup)
	Enabled() bool
}

// NewDashboard returns the live dashboard when an inspector is available
// and the stub otherwise
func NewDashboard(inspector queue.Inspector, failedLimit int, log *zap.Logger) Dashboard {
	if inspector == nil {
		return DisabledDashboard{}
	}
	return NewEnabledDashboard(inspector, failedLimit, log)
}

// DisabledDashboard answers every dashboard request with a fixed notice
type DisabledDashboard struct{}

// RegisterRoutes implements Dashboard
func (DisabledDashboard) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, QueueDisabledMessage)
	})
}

// Enabled implements Dashboard
func (DisabledDashboard) Enabled() bool { return false }

// EnabledDashboard shows the state of the Bull queues kept in Redis
type EnabledDashboard struct {
	BaseHandler
	inspector   queue.Inspector
	failedLimit int
	logger      *zap.Logger
}

// NewEnabledDashboard creates a dashboard backed by the given inspector
func NewEnabledDashboard(inspector queue.Inspector, failedLimit int, log *zap.Logger) *EnabledDashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &EnabledDashboard{
		inspector:   inspector,
		failedLimit: failedLimit,
		logger:      log,
	}
}

// RegisterRoutes implements Dashboard
func (d *EnabledDashboard) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", d.Overview)
	rg.GET("/api/queues", d.ListQueues)
	rg.GET("/api/queues/:name/failed", d.ListFailed)
}

// Enabled implements Dashboard
func (d *EnabledDashboard) Enabled() bool { return true }

var overviewTemplate = template.Must(template.New("queues").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Queues</title></head>
<body>
<h1>Queues</h1>
<table>
<thead><tr><th>Queue</th><th>Waiting</th><th>Active</th><th>Paused</th><th>Delayed</th><th>Completed</th><th>Failed</th></tr></thead>
<tbody>
{{- range .}}
<tr><td>{{.Name}}</td><td>{{.Counts.Waiting}}</td><td>{{.Counts.Active}}</td><td>{{.Counts.Paused}}</td><td>{{.Counts.Delayed}}</td><td>{{.Counts.Completed}}</td><td><a href="queue/api/queues/{{.Name}}/failed">{{.Counts.Failed}}</a></td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// Overview godoc
// @Summary      Queue dashboard
// @Description  HTML overview of every queue and its job counts
// @Tags         super-admin
// @Produce      html
// @Security     BearerAuth
// @Success      200 {string} string
// @Failure      403 {object} dto.Result
// @Router       /super-admin/queue [get]
func (d *EnabledDashboard) Overview(c *gin.Context) {
	summaries, err := d.inspector.Queues(c.Request.Context())
	if err != nil {
		d.log(c).Error("Failed to read queue counts", zap.Error(err))
		c.String(http.StatusInternalServerError, "Unable to read queues")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := overviewTemplate.Execute(c.Writer, summaries); err != nil {
		d.log(c).Error("Failed to render queue dashboard", zap.Error(err))
	}
}

// ListQueues godoc
// @Summary      List queues
// @Description  Every queue with its per-state job counts
// @Tags         super-admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} queue.Summary
// @Failure      403 {object} dto.Result
// @Router       /super-admin/queue/api/queues [get]
func (d *EnabledDashboard) ListQueues(c *gin.Context) {
	summaries, err := d.inspector.Queues(c.Request.Context())
	if err != nil {
		d.log(c).Error("Failed to read queue counts", zap.Error(err))
		d.InternalError(c, "Unable to read queues")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// ListFailed godoc
// @Summary      List failed jobs
// @Description  The most recently failed jobs of one queue
// @Tags         super-admin
// @Produce      json
// @Security     BearerAuth
// @Param        name path string true "Queue name"
// @Success      200 {array} queue.FailedJob
// @Failure      404 {object} dto.Result
// @Router       /super-admin/queue/api/queues/{name}/failed [get]
func (d *EnabledDashboard) ListFailed(c *gin.Context) {
	jobs, err := d.inspector.FailedJobs(c.Request.Context(), c.Param("name"), d.failedLimit)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownQueue) {
			d.NotFound(c, "Queue not found")
			return
		}
		d.log(c).Error("Failed to read failed jobs", zap.String("queue", c.Param("name")), zap.Error(err))
		d.InternalError(c, "Unable to read failed jobs")
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (d *EnabledDashboard) log(c *gin.Context) *zap.Logger {
	return logger.FromContextOr(c.Request.Context(), d.logger)
}
