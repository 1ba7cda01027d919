package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/amy-emails/internal/application/auth"
	"github.com/oksasatya/amy-emails/pkg/helpers"
	"github.com/oksasatya/amy-emails/pkg/response"
)

const (
	CtxSession = "session"
	CtxWorker  = "worker"
)

type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (*auth.Session, error)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Auth validates the access token (cookie or bearer header) against the
// live Redis session and stores the session in the Gin context.
func Auth(a Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(helpers.AccessCookie)
		if token == "" {
			token = bearer(c)
		}
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		session, err := a.Authorize(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid session", err.Error())
			return
		}
		c.Set(CtxSession, session)
		c.Next()
	}
}

// WorkerOrAdmin lets the delivery worker in with the shared API token and
// everyone else through Auth.
func WorkerOrAdmin(a Authorizer, workerToken string) gin.HandlerFunc {
	admin := Auth(a)
	return func(c *gin.Context) {
		if workerToken != "" {
			if tok := bearer(c); tok != "" && subtle.ConstantTimeCompare([]byte(tok), []byte(workerToken)) == 1 {
				c.Set(CtxWorker, true)
				c.Next()
				return
			}
		}
		admin(c)
	}
}

func SessionFrom(c *gin.Context) *auth.Session {
	if v, ok := c.Get(CtxSession); ok {
		if s, ok := v.(*auth.Session); ok {
			return s
		}
	}
	return nil
}

// AuthorID is the logged-in person, or nil for the worker.
func AuthorID(c *gin.Context) *int64 {
	if s := SessionFrom(c); s != nil {
		id := s.PersonID
		return &id
	}
	return nil
}
