package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
	"github.com/oksasatya/amy-emails/pkg/response"
	bindvalidation "github.com/oksasatya/amy-emails/pkg/validation"
)

type TemplateHandler struct {
	Templates repository.EmailTemplateRepository
	Renderer  *emails.Renderer
	Logger    *logrus.Logger
}

func NewTemplateHandler(templates repository.EmailTemplateRepository, renderer *emails.Renderer, logger *logrus.Logger) *TemplateHandler {
	return &TemplateHandler{Templates: templates, Renderer: renderer, Logger: logger}
}

type templateRequest struct {
	Name          string   `json:"name"`
	Signal        string   `json:"signal"`
	FromHeader    string   `json:"from_header"`
	ReplyToHeader string   `json:"reply_to_header"`
	CCHeader      []string `json:"cc_header"`
	BCCHeader     []string `json:"bcc_header"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Active        *bool    `json:"active"`
}

func (r templateRequest) apply(t *entity.EmailTemplate) {
	t.Name = r.Name
	t.Signal = r.Signal
	t.FromHeader = r.FromHeader
	t.ReplyToHeader = r.ReplyToHeader
	t.CCHeader = r.CCHeader
	t.BCCHeader = r.BCCHeader
	t.Subject = r.Subject
	t.Body = r.Body
	if r.Active != nil {
		t.Active = *r.Active
	}
}

// validate runs the field rules, then parses both template sources.
func (h *TemplateHandler) validate(c *gin.Context, t *entity.EmailTemplate) bool {
	if err := t.Validate(signal.Strings()); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			response.Error[any](c, http.StatusBadRequest, "invalid template", errs)
			return false
		}
		response.Error[any](c, http.StatusBadRequest, "invalid template", err.Error())
		return false
	}
	if err := h.Renderer.Validate(t); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid template syntax", err.Error())
		return false
	}
	return true
}

// List GET /api/emails/templates
func (h *TemplateHandler) List(c *gin.Context) {
	items, err := h.Templates.List(c.Request.Context())
	if err != nil {
		fail(c, "list templates failed", err)
		return
	}
	response.Success(c, http.StatusOK, items, "email templates", nil)
}

// Get GET /api/emails/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	t, err := h.Templates.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, "template not found", err)
		return
	}
	response.Success(c, http.StatusOK, t, "email template", nil)
}

// Create POST /api/emails/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", bindvalidation.ToDetails(err))
		return
	}
	now := time.Now().UTC()
	t := &entity.EmailTemplate{ID: uuid.New(), Active: true, CreatedAt: now, UpdatedAt: now}
	req.apply(t)
	if !h.validate(c, t) {
		return
	}
	if err := h.Templates.Create(c.Request.Context(), t); err != nil {
		h.Logger.WithError(err).WithField("signal", t.Signal).Error("create template failed")
		fail(c, "create template failed", err)
		return
	}
	response.Success(c, http.StatusCreated, t, "email template created", nil)
}

// Update PUT /api/emails/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", bindvalidation.ToDetails(err))
		return
	}
	t, err := h.Templates.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, "template not found", err)
		return
	}
	req.apply(t)
	t.UpdatedAt = time.Now().UTC()
	if !h.validate(c, t) {
		return
	}
	if err := h.Templates.Update(c.Request.Context(), t); err != nil {
		fail(c, "update template failed", err)
		return
	}
	response.Success(c, http.StatusOK, t, "email template updated", nil)
}

// Delete DELETE /api/emails/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.Templates.Delete(c.Request.Context(), id); err != nil {
		fail(c, "delete template failed", err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "email template deleted", nil)
}
