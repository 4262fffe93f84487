package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/storefront/server/internal/utils/errors"
	"github.com/storefront/server/internal/utils/requestctx"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// A panic caused by the client going away is logged without a response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			reqLog := requestctx.Logger(c.Request.Context(), log).With(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)

			if brokenConnection(rec) {
				reqLog.Warn("client connection lost", zap.Any("error", rec))
				c.Abort()
				return
			}

			reqLog.Error("panic recovered", zap.Any("error", rec), zap.Stack("stack"))
			appErr := apperrors.Internal("", fmt.Errorf("panic: %v", rec))
			c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
		}()
		c.Next()
	}
}

func brokenConnection(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	if errors.Is(err, http.ErrAbortHandler) {
		return true
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
