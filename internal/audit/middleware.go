package audit

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
)

// maxDetailBytes caps how much of the request body lands in the trail.
const maxDetailBytes = 2000

// Middleware records mutating requests by authenticated users after the
// handler ran. Failures to write the trail never fail the request.
func Middleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil && c.Request.Method != "GET" {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		if c.Request.Method == "GET" {
			return
		}
		actor := ""
		if v, ok := c.Get("currentAccount"); ok {
			if a, ok := v.(*account.Account); ok && a != nil {
				actor = a.Email
			}
		}
		if actor == "" {
			return
		}

		detail := ""
		if len(body) > 0 && len(body) <= maxDetailBytes {
			detail = string(body)
		}

		_ = db.Create(&Entry{
			Actor:     actor,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Detail:    detail,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}).Error
	}
}
