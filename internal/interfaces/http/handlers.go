package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traineedesk/internship-workflow/internal/application/service"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	lifecycle     service.RequestLifecycle
	allocator     service.MentorAllocator
	forwarding    service.ForwardingWorkflow
	notifications service.NotificationService
	auditor       service.AuditRecorder
	exporter      *export.BatchExporter
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	lifecycle service.RequestLifecycle,
	allocator service.MentorAllocator,
	forwarding service.ForwardingWorkflow,
	notifications service.NotificationService,
	auditor service.AuditRecorder,
	exporter *export.BatchExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		lifecycle:     lifecycle,
		allocator:     allocator,
		forwarding:    forwarding,
		notifications: notifications,
		auditor:       auditor,
		exporter:      exporter,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecideRequest represents the body of POST /api/requests/:id/decisions
type DecideRequest struct {
	ApproverID string `json:"approver_id" binding:"required"`
	Level      int    `json:"level" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
	Comments   string `json:"comments"`
}

// AssignMentorRequest represents the body of POST /api/requests/:id/assignments
type AssignMentorRequest struct {
	MentorID   string `json:"mentor_id" binding:"required"`
	AssignedBy string `json:"assigned_by" binding:"required"`
	Notes      string `json:"notes"`
}

// ActorRequest carries the acting user for bodyless state changes
type ActorRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// ForwardBatchRequest represents the body of POST /api/batches
type ForwardBatchRequest struct {
	RequestIDs []int64 `json:"request_ids" binding:"required"`
	Department string  `json:"department" binding:"required"`
	FromUserID string  `json:"from_user_id" binding:"required"`
	ToUserID   string  `json:"to_user_id" binding:"required"`
}

// ReviewBatchRequest represents the body of POST /api/batches/:id/review
type ReviewBatchRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
	Comments   string `json:"comments"`
}

// ListQuery represents pagination query parameters
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (q *ListQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// statusFor maps a service error to its HTTP status. Every workflow error
// wraps one of the service sentinels, so the adapter never inspects
// message text.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		msg = "internal error"
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func (h *Handlers) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var input service.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	request, err := h.lifecycle.Submit(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, request)
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	requests, err := h.lifecycle.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, requests)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, detail)
}

// Decide handles POST /api/requests/:id/decisions
func (h *Handlers) Decide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	status, err := h.lifecycle.Decide(c.Request.Context(), id, req.ApproverID, req.Level, req.Decision, req.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, gin.H{"request_id": id, "status": status})
}

// AssignMentor handles POST /api/requests/:id/assignments
func (h *Handlers) AssignMentor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AssignMentorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	assignment, err := h.lifecycle.AssignMentor(c.Request.Context(), id, req.MentorID, req.AssignedBy, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, assignment)
}

// CompleteRequest handles POST /api/requests/:id/complete
func (h *Handlers) CompleteRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.lifecycle.Complete(c.Request.Context(), id, req.ActorID); err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, gin.H{"request_id": id, "status": entity.StatusCompleted})
}

// CompleteAssignment handles POST /api/assignments/:id/complete
func (h *Handlers) CompleteAssignment(c *gin.Context) {
	h.endAssignment(c, h.allocator.Complete)
}

// CancelAssignment handles POST /api/assignments/:id/cancel
func (h *Handlers) CancelAssignment(c *gin.Context) {
	h.endAssignment(c, h.allocator.Cancel)
}

func (h *Handlers) endAssignment(c *gin.Context, end func(ctx context.Context, assignmentID int64, actorID string) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := end(c.Request.Context(), id, req.ActorID); err != nil {
		h.fail(c, err)
		return
	}

	assignment, err := h.allocator.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, assignment)
}

// ForwardBatch handles POST /api/batches
func (h *Handlers) ForwardBatch(c *gin.Context) {
	var req ForwardBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	batch, err := h.forwarding.Forward(c.Request.Context(), req.RequestIDs, req.Department, req.FromUserID, req.ToUserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusCreated, batch)
}

// GetBatch handles GET /api/batches/:id
func (h *Handlers) GetBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	batch, err := h.forwarding.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, batch)
}

// ReviewBatch handles POST /api/batches/:id/review
func (h *Handlers) ReviewBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ReviewBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	batch, err := h.forwarding.Review(c.Request.Context(), id, req.ReviewerID, req.Decision, req.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, batch)
}

// BatchManifest handles GET /api/batches/:id/manifest
func (h *Handlers) BatchManifest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	batch, err := h.forwarding.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	data, err := h.exporter.Manifest(batch)
	if err != nil {
		h.fail(c, err)
		return
	}

	filename := fmt.Sprintf("batch-%s.xlsx", batch.BatchNo)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListNotifications handles GET /api/users/:id/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID := c.Param("id")

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notifications.Inbox(c.Request.Context(), userID, unreadOnly, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, notifications)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, gin.H{"notification_id": id, "is_read": true})
}

// AuditTrail handles GET /api/audit
func (h *Handlers) AuditTrail(c *gin.Context) {
	targetType := c.Query("target_type")
	switch targetType {
	case entity.TargetRequest, entity.TargetAssignment, entity.TargetBatch:
	default:
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "target_type must be request, assignment or batch"})
		return
	}

	targetID, err := strconv.ParseInt(c.Query("target_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid target_id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := h.auditor.Trail(c.Request.Context(), targetType, targetID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.ok(c, http.StatusOK, entries)
}
