package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIP is the Gin context key holding the resolved client IP.
const CtxRealIP = "real_ip"

// proxyHeaders are consulted in order; X-Forwarded-For contributes its
// left-most entry.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP resolves the client address behind the AMY load balancer, so that
// rate limits apply per caller rather than per proxy.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxRealIP, realIP(c))
		c.Next()
	}
}

func realIP(c *gin.Context) string {
	for _, h := range proxyHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
