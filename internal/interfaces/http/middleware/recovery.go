// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获 handler panic，记录堆栈后返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    errors.CodeInternalError,
				"message": "internal server error",
			})
		}()

		c.Next()
	}
}
