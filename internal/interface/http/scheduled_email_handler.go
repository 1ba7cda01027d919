package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/search"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
	"github.com/oksasatya/amy-emails/pkg/response"
	"github.com/oksasatya/amy-emails/pkg/validation"
)

const maxAttachmentSize = 10 << 20

// Searcher finds scheduled emails by free text.
type Searcher interface {
	Search(ctx context.Context, q, state string, size int) ([]search.Hit, error)
}

// ScheduledEmailHandler is the administrator view of scheduled emails.
type ScheduledEmailHandler struct {
	Emails     repository.ScheduledEmailRepository
	Controller *emails.Controller
	Search     Searcher
	Logger     *logrus.Logger
}

func NewScheduledEmailHandler(repo repository.ScheduledEmailRepository, controller *emails.Controller, search Searcher, logger *logrus.Logger) *ScheduledEmailHandler {
	return &ScheduledEmailHandler{Emails: repo, Controller: controller, Search: search, Logger: logger}
}

type listQuery struct {
	State  string `form:"state" binding:"omitempty,emailstate"`
	Signal string `form:"signal" binding:"omitempty,max=100"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type editRequest struct {
	ToHeader      []string `json:"to_header" binding:"required,min=1,dive,email"`
	FromHeader    string   `json:"from_header" binding:"required,email"`
	ReplyToHeader string   `json:"reply_to_header" binding:"omitempty,email"`
	CCHeader      []string `json:"cc_header" binding:"omitempty,dive,email"`
	BCCHeader     []string `json:"bcc_header" binding:"omitempty,dive,email"`
	Subject       string   `json:"subject" binding:"required,max=255"`
	Body          string   `json:"body" binding:"required"`
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type emailDetail struct {
	Email       *entity.ScheduledEmail      `json:"email"`
	Logs        []*entity.ScheduledEmailLog `json:"logs"`
	Attachments []*entity.Attachment        `json:"attachments"`
}

// List GET /api/emails/scheduled
func (h *ScheduledEmailHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	p := repository.ListParams{Signal: q.Signal, Limit: q.Limit, Offset: q.Offset}
	if q.State != "" {
		p.States = []entity.ScheduledEmailState{entity.ScheduledEmailState(q.State)}
	}
	items, total, err := h.Emails.List(c.Request.Context(), p)
	if err != nil {
		fail(c, "list scheduled emails failed", err)
		return
	}
	response.Success(c, http.StatusOK, items, "scheduled emails", response.Page{Total: total, Limit: q.Limit, Offset: q.Offset})
}

// SearchEmails GET /api/emails/scheduled/search?q=
func (h *ScheduledEmailHandler) SearchEmails(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	hits, err := h.Search.Search(c.Request.Context(), q, c.Query("state"), intQuery(c, "size", 10))
	if err != nil {
		h.Logger.WithError(err).Warn("scheduled email search failed")
		response.Error[any](c, http.StatusBadGateway, "search unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

func (h *ScheduledEmailHandler) load(c *gin.Context) (*entity.ScheduledEmail, bool) {
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

// Get GET /api/emails/scheduled/:id
func (h *ScheduledEmailHandler) Get(c *gin.Context) {
	email, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	logs, err := h.Emails.Logs(ctx, email.ID)
	if err != nil {
		fail(c, "load logs failed", err)
		return
	}
	attachments, err := h.Emails.Attachments(ctx, email.ID)
	if err != nil {
		fail(c, "load attachments failed", err)
		return
	}
	response.Success(c, http.StatusOK, emailDetail{Email: email, Logs: logs, Attachments: attachments}, "scheduled email", nil)
}

// Edit PUT /api/emails/scheduled/:id
func (h *ScheduledEmailHandler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, ok := h.load(c)
	if !ok {
		return
	}
	edited, err := h.Controller.EditEmail(c.Request.Context(), email, emails.EditParams{
		ToHeader:      req.ToHeader,
		FromHeader:    req.FromHeader,
		ReplyToHeader: req.ReplyToHeader,
		CCHeader:      req.CCHeader,
		BCCHeader:     req.BCCHeader,
		Subject:       req.Subject,
		Body:          req.Body,
	}, middleware.AuthorID(c))
	if err != nil {
		fail(c, "edit failed", err)
		return
	}
	response.Success(c, http.StatusOK, edited, "scheduled email updated", nil)
}

// Reschedule POST /api/emails/scheduled/:id/reschedule
func (h *ScheduledEmailHandler) Reschedule(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, ok := h.load(c)
	if !ok {
		return
	}
	updated, err := h.Controller.RescheduleEmail(c.Request.Context(), email, req.ScheduledAt, middleware.AuthorID(c))
	if err != nil {
		fail(c, "reschedule failed", err)
		return
	}
	response.Success(c, http.StatusOK, updated, "scheduled email rescheduled", nil)
}

// Cancel POST /api/emails/scheduled/:id/cancel
func (h *ScheduledEmailHandler) Cancel(c *gin.Context) {
	email, ok := h.load(c)
	if !ok {
		return
	}
	cancelled, err := h.Controller.CancelEmail(c.Request.Context(), email, middleware.AuthorID(c))
	if err != nil {
		fail(c, "cancel failed", err)
		return
	}
	response.Success(c, http.StatusOK, cancelled, "scheduled email cancelled", nil)
}

// AddAttachment POST /api/emails/scheduled/:id/attachments (multipart "file")
func (h *ScheduledEmailHandler) AddAttachment(c *gin.Context) {
	email, ok := h.load(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing file", map[string]string{"file": "is required"})
		return
	}
	if fh.Size > maxAttachmentSize {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	a, err := h.Controller.AddAttachment(c.Request.Context(), email, filepath.Base(fh.Filename), contentType, f)
	if err != nil {
		h.Logger.WithError(err).WithField("scheduled_email_id", email.ID).Error("add attachment failed")
		fail(c, "add attachment failed", err)
		return
	}
	response.Success(c, http.StatusCreated, a, "attachment added", nil)
}
