package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/delivery"
	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
	"github.com/oksasatya/amy-emails/pkg/response"
	"github.com/oksasatya/amy-emails/pkg/validation"
)

// WorkerAPIHandler serves the scheduled email endpoints an external
// delivery worker polls.
type WorkerAPIHandler struct {
	Emails     repository.ScheduledEmailRepository
	Controller *emails.Controller
	Logger     *logrus.Logger
	Clock      emails.Clock
	MaxRetries uint64
}

func NewWorkerAPIHandler(repo repository.ScheduledEmailRepository, controller *emails.Controller, logger *logrus.Logger) *WorkerAPIHandler {
	return &WorkerAPIHandler{Emails: repo, Controller: controller, Logger: logger}
}

type detailsRequest struct {
	Details string `json:"details" binding:"required,max=1000"`
}

// List GET /api/v2/scheduledemails
func (h *WorkerAPIHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Emails.List(c.Request.Context(), repository.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		fail(c, "list scheduled emails failed", err)
		return
	}
	response.Success(c, http.StatusOK, items, "scheduled emails", response.Page{Total: total, Limit: limit, Offset: offset})
}

// ScheduledToRun GET /api/v2/scheduledemails/scheduled_to_run
// Due SCHEDULED or FAILED emails still under the retry limit, newest first.
func (h *WorkerAPIHandler) ScheduledToRun(c *gin.Context) {
	due, err := h.Emails.Due(c.Request.Context(), repository.DueParams{
		Now:         h.Clock.Now(),
		States:      delivery.DueStates,
		MaxFailures: h.MaxRetries,
	})
	if err != nil {
		fail(c, "list due emails failed", err)
		return
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].CreatedAt.After(due[j].CreatedAt) })

	limit := intQuery(c, "limit", 50)
	offset := min(intQuery(c, "offset", 0), len(due))
	page := due[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	response.Success(c, http.StatusOK, page, "scheduled to run", response.Page{Total: len(due), Limit: limit, Offset: offset})
}

func (h *WorkerAPIHandler) load(c *gin.Context) (*entity.ScheduledEmail, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil, false
	}
	email, err := h.Emails.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, "scheduled email not found", err)
		return nil, false
	}
	return email, true
}

// Get GET /api/v2/scheduledemails/:id
func (h *WorkerAPIHandler) Get(c *gin.Context) {
	email, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, email, "scheduled email", nil)
}

// Lock POST /api/v2/scheduledemails/:id/lock
func (h *WorkerAPIHandler) Lock(c *gin.Context) {
	email, ok := h.load(c)
	if !ok {
		return
	}
	h.transition(c, email, "State changed by worker", h.Controller.LockEmail)
}

// Succeed POST /api/v2/scheduledemails/:id/succeed
func (h *WorkerAPIHandler) Succeed(c *gin.Context) {
	h.withDetails(c, h.Controller.SucceedEmail)
}

// Fail POST /api/v2/scheduledemails/:id/fail
func (h *WorkerAPIHandler) Fail(c *gin.Context) {
	h.withDetails(c, h.Controller.FailEmail)
}

// Cancel POST /api/v2/scheduledemails/:id/cancel
func (h *WorkerAPIHandler) Cancel(c *gin.Context) {
	h.withDetails(c, func(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error) {
		return h.Controller.ChangeState(ctx, email, entity.StateCancelled, details, authorID)
	})
}

type transitionFunc func(ctx context.Context, email *entity.ScheduledEmail, details string, authorID *int64) (*entity.ScheduledEmail, error)

func (h *WorkerAPIHandler) withDetails(c *gin.Context, fn transitionFunc) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, ok := h.load(c)
	if !ok {
		return
	}
	h.transition(c, email, req.Details, fn)
}

func (h *WorkerAPIHandler) transition(c *gin.Context, email *entity.ScheduledEmail, details string, fn transitionFunc) {
	updated, err := fn(c.Request.Context(), email, details, middleware.AuthorID(c))
	if err != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"scheduled_email_id": email.ID,
			"state":              email.State,
		}).Warn("worker state change rejected")
		fail(c, "state change failed", err)
		return
	}
	response.Success(c, http.StatusOK, updated, "state changed", map[string]any{"changed_at": time.Now().UTC()})
}
