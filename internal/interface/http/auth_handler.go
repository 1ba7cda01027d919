package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/auth"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
	"github.com/oksasatya/amy-emails/pkg/helpers"
	"github.com/oksasatya/amy-emails/pkg/response"
	"github.com/oksasatya/amy-emails/pkg/validation"
)

// SessionService is the part of auth.Service the handler calls.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*entity.Person, auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.Person, auth.TokenPair, error)
	Logout(ctx context.Context, personID int64) error
}

type AuthHandler struct {
	Svc     SessionService
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc SessionService, cookies *helpers.CookieManager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type personResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func tokenMeta(pair auth.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry}
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).Error("login failed")
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, personResponse{ID: p.ID, Name: p.FullName(), Email: p.Email}, "login successful", tokenMeta(pair))
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	_, pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", tokenMeta(pair))
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if s := middleware.SessionFrom(c); s != nil {
		if err := h.Svc.Logout(c.Request.Context(), s.PersonID); err != nil {
			h.Logger.WithError(err).WithField("person_id", s.PersonID).Warn("drop session failed")
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	s := middleware.SessionFrom(c)
	if s == nil {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.Success(c, http.StatusOK, personResponse{ID: s.PersonID, Name: s.Name, Email: s.Email}, "profile", nil)
}
