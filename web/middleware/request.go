package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
	requestIDKey    = "requestID"
)

// RequestLogger tags each request with an id, stores a request-scoped logger
// in the context and logs the outcome.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		reqLogger := logger.With(zap.String("request_id", requestID))
		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// LoggerFrom returns the request-scoped logger, or nil outside RequestLogger.
func LoggerFrom(c *gin.Context) *zap.Logger {
	v, ok := c.Get(loggerKey)
	if !ok {
		return nil
	}
	logger, _ := v.(*zap.Logger)
	return logger
}
