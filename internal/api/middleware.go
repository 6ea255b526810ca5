// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/models"
	"talent-intake/internal/router"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "session"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request failed", fields)
			return
		}
		s.logger.Debug("request", fields)
	}
}

func observeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (s *Server) withTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// loadSession attaches the caller's session when the bearer token names a live one.
// Routes that need a session add requireSession.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || s.deps.Sessions == nil {
			c.Next()
			return
		}

		sess, err := s.deps.Sessions.GetSession(c.Request.Context(), token)
		if err != nil {
			s.logger.Warn("session lookup failed", map[string]interface{}{"error": err})
		}
		if sess != nil {
			c.Set(sessionContextKey, sess)
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *models.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*models.Session); ok {
			return sess
		}
	}
	return nil
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionFrom(c) == nil {
			abortWithError(c, errors.NewAuthenticationError("a valid session is required"))
			return
		}
		c.Next()
	}
}

func requireCapability(capability router.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil {
			abortWithError(c, errors.NewAuthenticationError("a valid session is required"))
			return
		}
		if !router.CapabilitiesFor(sess.Role).Allows(capability) {
			abortWithError(c, errors.NewForbiddenError(string(capability)))
			return
		}
		c.Next()
	}
}
