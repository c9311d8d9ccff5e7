package csrf

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware rejects unsafe requests (POST, PUT, PATCH, DELETE) that do not
// carry a valid token in the X-CSRFToken header. Safe methods pass through.
func Middleware(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			c.Next()
			return
		}

		value := c.GetHeader(HeaderName)
		if err := s.Validate(c.Request.Context(), value); err != nil {
			if errors.Is(err, ErrInvalidToken) {
				s.logger.Warn("csrf verification failed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "CSRF verification failed"})
				return
			}
			s.logger.Error("csrf lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to verify csrf token"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), TokenContextKey, value)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// HandleIssueToken handles GET /csrf-token
// Response: {"success": true, "csrf_token": "...", "expires_at": "..."}
func (s *Service) HandleIssueToken(c *gin.Context) {
	token, err := s.Issue(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to issue csrf token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to issue csrf token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"csrf_token": token.Value,
		"expires_at": token.ExpiresAt,
	})
}
