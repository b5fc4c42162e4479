package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful API reply.
type Response map[string]interface{}

// Business codes carried alongside the HTTP status.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeServerErr    = 50001
	CodeUpstream     = 50301
)

// Success writes the uniform success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the uniform error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// Errors writes an error envelope carrying several user-facing messages at
// once (e.g. every failed password rule).
func Errors(c *gin.Context, httpStatus int, code int, msgs []string) {
	c.JSON(httpStatus, gin.H{
		"code":     code,
		"messages": msgs,
	})
}
