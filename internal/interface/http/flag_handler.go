package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/flags"
	"github.com/oksasatya/amy-emails/pkg/response"
	"github.com/oksasatya/amy-emails/pkg/validation"
)

type FlagHandler struct {
	Flags  *flags.Service
	Logger *logrus.Logger
}

func NewFlagHandler(svc *flags.Service, logger *logrus.Logger) *FlagHandler {
	return &FlagHandler{Flags: svc, Logger: logger}
}

type setFlagRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// List GET /api/flags
func (h *FlagHandler) List(c *gin.Context) {
	all, err := h.Flags.All(c.Request.Context())
	if err != nil {
		fail(c, "list flags failed", err)
		return
	}
	response.Success(c, http.StatusOK, all, "feature flags", nil)
}

// Set PUT /api/flags/:name
func (h *FlagHandler) Set(c *gin.Context) {
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	name := c.Param("name")
	if err := h.Flags.Set(c.Request.Context(), name, *req.Enabled); err != nil {
		fail(c, "set flag failed", err)
		return
	}
	h.Logger.WithFields(logrus.Fields{"flag": name, "enabled": *req.Enabled}).Info("feature flag changed")
	response.Success(c, http.StatusOK, flags.Flag{Name: name, Enabled: *req.Enabled, Stored: true}, "feature flag set", nil)
}

// Reset DELETE /api/flags/:name
func (h *FlagHandler) Reset(c *gin.Context) {
	name := c.Param("name")
	if err := h.Flags.Reset(c.Request.Context(), name); err != nil {
		fail(c, "reset flag failed", err)
		return
	}
	response.Success(c, http.StatusOK, flags.Flag{Name: name, Enabled: h.Flags.Enabled(c.Request.Context(), name)}, "feature flag reset", nil)
}
