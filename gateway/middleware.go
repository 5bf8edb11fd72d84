package gateway

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperr"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxLogger    = "logger"
	ctxRequestID = "request_id"
	ctxUser      = "user"
	ctxAdmin     = "admin"
)

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func requestIDMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Set(ctxLogger, base.With(zap.String("request_id", id)))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if user := currentUser(c); user != nil {
			fields = append(fields, zap.String("user_id", user.ID.Hex()))
		}
		logger.Info("HTTP request", fields...)
	}
}

func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger(c).Error("Panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				fail(c, apperr.New(http.StatusInternalServerError, "Internal Server Error"))
			}
		}()
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// rateLimit allows limit requests per client ip and route within window. A
// limiter error lets the request through.
func (g *Gateway) rateLimit() gin.HandlerFunc {
	limit := g.config.RateLimit.Requests
	window := g.config.RateLimit.Window
	return func(c *gin.Context) {
		if g.limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()
		allowed, err := g.limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger(c).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			fail(c, apperr.TooManyRequests("Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}

func (g *Gateway) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.auth.AuthenticateUser(c.Request.Context(), accessToken(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(ctxUser, user)
		c.Next()
	}
}

func (g *Gateway) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := g.auth.AuthenticateAdmin(accessToken(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(ctxAdmin, claims)
		c.Next()
	}
}

// accessToken reads the access token cookie, falling back to a bearer header.
func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(accessCookie); err == nil && v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func currentAdmin(c *gin.Context) *token.Claims {
	if v, ok := c.Get(ctxAdmin); ok {
		if claims, ok := v.(*token.Claims); ok {
			return claims
		}
	}
	return nil
}

func logger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(ctxLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}
