package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// Services bundles the engine operations exposed over HTTP
type Services struct {
	Inspections ports.InspectionService
	Scheduler   ports.SchedulerService
	Performance ports.PerformanceService
	Maintenance ports.MaintenanceService
}

// Handler handles HTTP requests for the inspection engine
type Handler struct {
	services Services
	db       ports.DatabaseAdapter
	clock    func() time.Time
	logger   logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, db ports.DatabaseAdapter) *Handler {
	return &Handler{
		services: services,
		db:       db,
		clock:    time.Now,
		logger:   logger.New("http-handler", ""),
	}
}

// RecordSubTaskResult handles POST /subtasks/:id/result
func (h *Handler) RecordSubTaskResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req SubTaskResultRequest
	if !bindJSON(c, &req) {
		return
	}

	st, err := h.services.Inspections.RecordSubTaskResult(c.Request.Context(), &ports.RecordSubTaskResultRequest{
		SubTaskID:  id,
		Kind:       req.Kind,
		Value:      req.measurement(),
		Notes:      req.Notes,
		ActorID:    actorID(c),
		Correction: req.Correction,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ports.SubTaskDetail{SubTask: st, Compliance: st.Compliance()})
}

// ToggleSubTask handles POST /subtasks/:id/toggle
func (h *Handler) ToggleSubTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	st, err := h.services.Inspections.ToggleSubTaskStatus(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ports.SubTaskDetail{SubTask: st, Compliance: st.Compliance()})
}

// RecordTaskResult handles POST /tasks/:id/result
func (h *Handler) RecordTaskResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TaskResultRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.services.Inspections.RecordTaskResult(c.Request.Context(), &ports.RecordTaskResultRequest{
		TaskID:  id,
		Value:   req.measurement(),
		Notes:   req.Notes,
		ActorID: actorID(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CreateInspection handles POST /inspections
func (h *Handler) CreateInspection(c *gin.Context) {
	var req CreateInspectionRequest
	if !bindJSON(c, &req) {
		return
	}

	var scheduled time.Time
	if req.ScheduledDate != "" {
		d, err := parseDate("scheduled_date", req.ScheduledDate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		scheduled = d
	}

	tasks := make([]*models.Task, 0, len(req.Tasks))
	for _, in := range req.Tasks {
		tasks = append(tasks, in.toTask())
	}

	detail, err := h.services.Inspections.CreateInspection(c.Request.Context(), &ports.CreateInspectionRequest{
		Title:         req.Title,
		ScheduledDate: scheduled,
		AssignedTo:    req.AssignedTo,
		Notes:         req.Notes,
		ActorID:       actorID(c),
		Tasks:         tasks,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetInspection handles GET /inspections/:id
func (h *Handler) GetInspection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.services.Inspections.GetInspectionDetail(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// PublishInspection handles POST /inspections/:id/publish
func (h *Handler) PublishInspection(c *gin.Context) {
	h.transition(c, h.services.Inspections.PublishInspection)
}

// CompleteInspection handles POST /inspections/:id/complete
func (h *Handler) CompleteInspection(c *gin.Context) {
	h.transition(c, h.services.Inspections.CompleteInspection)
}

// ArchiveInspection handles POST /inspections/:id/archive
func (h *Handler) ArchiveInspection(c *gin.Context) {
	h.transition(c, h.services.Inspections.ArchiveInspection)
}

type transitionFunc func(ctx context.Context, inspectionID, actorID int64) (*models.Inspection, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	inspection, err := fn(c.Request.Context(), id, actorID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inspection)
}

// RescheduleInspection handles PATCH /inspections/:id/schedule
func (h *Handler) RescheduleInspection(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	scheduled, err := parseOptionalDate("scheduled_date", req.ScheduledDate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	inspection, err := h.services.Inspections.RescheduleInspection(c.Request.Context(), &ports.RescheduleRequest{
		InspectionID:  id,
		ScheduledDate: scheduled,
		AssignedTo:    req.AssignedTo,
		ActorID:       actorID(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inspection)
}

// CreateTemplate handles POST /templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	template := &models.InspectionTemplate{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		StartDate:   start,
		EndDate:     end,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actorID(c),
		Active:      true,
	}
	for _, in := range req.Tasks {
		template.Tasks = append(template.Tasks, in.toTemplateTask())
	}

	created, err := h.services.Scheduler.CreateTemplate(c.Request.Context(), template)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RunScheduler handles POST /scheduler/run?date=YYYY-MM-DD
func (h *Handler) RunScheduler(c *gin.Context) {
	asOf := h.clock().UTC()
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate("date", raw)
		if err != nil {
			h.writeError(c, err)
			return
		}
		asOf = d
	}

	generated, err := h.services.Scheduler.GenerateScheduledInspections(c.Request.Context(), asOf)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Date: asOf.Format(DateLayout), Generated: generated})
}

// ComputePerformance handles POST /performance/:userId?window=30
func (h *Handler) ComputePerformance(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	window, ok := windowParam(c)
	if !ok {
		return
	}

	snapshot, err := h.services.Performance.ComputeOperatorPerformance(c.Request.Context(), userID, window)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// RunPerformanceBatch handles POST /performance/batch
func (h *Handler) RunPerformanceBatch(c *gin.Context) {
	window, ok := windowParam(c)
	if !ok {
		return
	}

	snapshots, err := h.services.Performance.RunPerformanceBatch(c.Request.Context(), window)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// GetUsersNeedingAttention handles GET /performance/attention
func (h *Handler) GetUsersNeedingAttention(c *gin.Context) {
	snapshots, err := h.services.Performance.GetUsersNeedingAttention(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// CreateMaintenance handles POST /maintenance
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var req CreateMaintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	scheduled, err := parseOptionalDate("scheduled_date", req.ScheduledDate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	record, err := h.services.Maintenance.CreateRecord(c.Request.Context(), &ports.CreateMaintenanceRequest{
		Title:         req.Title,
		Description:   req.Description,
		Target:        req.Target,
		ScheduledDate: scheduled,
		PerformedBy:   req.PerformedBy,
		Checklist:     checklistInputs(req.Checklist),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// GetMaintenance handles GET /maintenance/:id
func (h *Handler) GetMaintenance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	record, err := h.services.Maintenance.GetRecord(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ReplaceChecklist handles PUT /maintenance/:id/checklist
func (h *Handler) ReplaceChecklist(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReplaceChecklistRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.services.Maintenance.ReplaceChecklist(c.Request.Context(), id, checklistInputs(req.Items))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateChecklistItem handles PATCH /maintenance/:id/checklist/:itemId
func (h *Handler) UpdateChecklistItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ChecklistItemUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.services.Maintenance.UpdateChecklistItem(c.Request.Context(), &ports.UpdateChecklistItemRequest{
		RecordID: id,
		ItemID:   c.Param("itemId"),
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// SetMaintenanceStatus handles PATCH /maintenance/:id/status
func (h *Handler) SetMaintenanceStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MaintenanceStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.services.Maintenance.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MaintenanceReport handles GET /maintenance/report
func (h *Handler) MaintenanceReport(c *gin.Context) {
	report, err := h.services.Maintenance.Report(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Service: "drivetrack"}
	if h.db != nil {
		resp.Database = h.db.GetConnectionStats()
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Warnw("Health check failed", "error", err)
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps engine errors onto problem details
func (h *Handler) writeError(c *gin.Context, err error) {
	problem := problemFor(err)
	problem.Instance = c.Request.URL.Path
	if problem.Status >= http.StatusInternalServerError {
		h.logger.Errorw("Request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(problem.Status, problem)
}

func problemFor(err error) ProblemDetails {
	var (
		missing *models.MissingRequiredTasksError
		gated   *models.TaskGatedError
	)
	switch {
	case errors.As(err, &missing):
		return ProblemDetails{
			Type:         "about:blank",
			Title:        "Missing Required Tasks",
			Status:       http.StatusUnprocessableEntity,
			Detail:       err.Error(),
			MissingTasks: missing.Names,
		}
	case errors.As(err, &gated):
		return ProblemDetails{
			Type:            "about:blank",
			Title:           "Task Gated",
			Status:          http.StatusConflict,
			Detail:          err.Error(),
			PendingSubTasks: gated.PendingSubTasks,
		}
	case errors.Is(err, models.ErrValidation):
		return newProblem(http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		return newProblem(http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, models.ErrStateConflict):
		return newProblem(http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, models.ErrPersistence):
		p := newProblem(http.StatusServiceUnavailable, "Service Unavailable", "The operation could not be stored. Nothing was changed; retry later.")
		p.Retryable = true
		return p
	default:
		return newProblem(http.StatusInternalServerError, "Internal Server Error", "Unexpected error")
	}
}

func newProblem(status int, title, detail string) ProblemDetails {
	return ProblemDetails{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, newProblem(http.StatusBadRequest, "Bad Request", err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, newProblem(http.StatusBadRequest, "Bad Request", "Path parameter '"+name+"' must be a positive integer"))
		return 0, false
	}
	return id, true
}

// windowParam reads ?window=N. Absent means the configured default.
func windowParam(c *gin.Context) (int, bool) {
	raw := c.Query("window")
	if raw == "" {
		return 0, true
	}
	window, err := strconv.Atoi(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, newProblem(http.StatusBadRequest, "Bad Request", "Query parameter 'window' must be an integer"))
		return 0, false
	}
	return window, true
}
