package http

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

const (
	// ActorHeader carries the authenticated user ID set by the upstream auth layer
	ActorHeader = "X-User-ID"
	// RequestIDHeader is echoed back on every response
	RequestIDHeader = "X-Request-ID"

	actorKey     = "actor"
	requestIDKey = "request_id"
)

// RouterConfig holds the dependencies of the HTTP router
type RouterConfig struct {
	Services       Services
	Database       ports.DatabaseAdapter
	Users          ports.UserDirectory
	MetricsHandler http.Handler // nil disables /metrics
	MetricsPath    string
}

// requestID assigns a request ID unless the caller supplied one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ginLogger returns a gin.HandlerFunc (middleware) that logs requests through the structured logger
func ginLogger() gin.HandlerFunc {
	log := logger.New("gin-http", "")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []interface{}{
			"status", statusCode,
			"method", c.Request.Method,
			"path", path,
			"ip", c.ClientIP(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}
		if query != "" {
			fields = append(fields, "query", query)
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, "error", errorMessage)
		}

		switch {
		case statusCode >= 500:
			log.Errorw("HTTP request error", fields...)
		case statusCode >= 400:
			log.Warnw("HTTP request warning", fields...)
		default:
			log.Infow("HTTP request", fields...)
		}
	}
}

// ginRecovery returns a gin.HandlerFunc (middleware) that recovers from panics and logs the stack
func ginRecovery() gin.HandlerFunc {
	log := logger.New("gin-recovery", "")

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorw("Panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", c.GetString(requestIDKey),
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					newProblem(http.StatusInternalServerError, "Internal Server Error", "Unexpected error"))
			}
		}()
		c.Next()
	}
}

// requireActor resolves X-User-ID through the user directory
func requireActor(users ports.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newProblem(http.StatusUnauthorized, "Unauthorized", "Header '"+ActorHeader+"' must carry a user ID"))
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			if problem := problemFor(err); problem.Status != http.StatusNotFound {
				c.AbortWithStatusJSON(problem.Status, problem)
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newProblem(http.StatusUnauthorized, "Unauthorized", "Unknown user"))
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newProblem(http.StatusForbidden, "Forbidden", "User is inactive"))
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

func actorID(c *gin.Context) int64 {
	if v, ok := c.Get(actorKey); ok {
		if user, ok := v.(*models.User); ok {
			return user.ID
		}
	}
	return 0
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(ginRecovery())
	router.Use(requestID())
	router.Use(ginLogger())

	handler := NewHandler(cfg.Services, cfg.Database)

	api := router.Group("/api/v1")

	// Actor-scoped operations
	acting := api.Group("", requireActor(cfg.Users))
	{
		acting.POST("/subtasks/:id/result", handler.RecordSubTaskResult)
		acting.POST("/subtasks/:id/toggle", handler.ToggleSubTask)
		acting.POST("/tasks/:id/result", handler.RecordTaskResult)

		acting.POST("/inspections", handler.CreateInspection)
		acting.POST("/inspections/:id/publish", handler.PublishInspection)
		acting.POST("/inspections/:id/complete", handler.CompleteInspection)
		acting.POST("/inspections/:id/archive", handler.ArchiveInspection)
		acting.PATCH("/inspections/:id/schedule", handler.RescheduleInspection)

		acting.POST("/templates", handler.CreateTemplate)
	}

	api.GET("/inspections/:id", handler.GetInspection)

	// Triggered by the external scheduler
	api.POST("/scheduler/run", handler.RunScheduler)
	api.POST("/performance/batch", handler.RunPerformanceBatch)
	api.POST("/performance/:userId", handler.ComputePerformance)
	api.GET("/performance/attention", handler.GetUsersNeedingAttention)

	maintenance := api.Group("/maintenance")
	{
		maintenance.POST("", handler.CreateMaintenance)
		maintenance.GET("/report", handler.MaintenanceReport)
		maintenance.GET("/:id", handler.GetMaintenance)
		maintenance.PUT("/:id/checklist", handler.ReplaceChecklist)
		maintenance.PATCH("/:id/checklist/:itemId", handler.UpdateChecklistItem)
		maintenance.PATCH("/:id/status", handler.SetMaintenanceStatus)
	}

	router.GET("/health", handler.HealthCheck)
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	return router
}
