package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/logging"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "requestID"
)

// RequestLogger reutiliza el X-Request-ID entrante o genera uno, lo devuelve
// en la respuesta y registra cada petición al terminar.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			logging.FieldRequestID: id,
			logging.FieldMethod:    c.Request.Method,
			logging.FieldPath:      c.Request.URL.Path,
			logging.FieldStatus:    c.Writer.Status(),
			logging.FieldLatency:   time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
