package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "khata/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// UserContext propagates the acting user and company from request headers
// into the request context. Authentication happens upstream of this service;
// here the identity is trusted input for audit attribution.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := &appctx.UserContext{
			UserID:    c.GetHeader(HeaderUserID),
			CompanyID: c.GetHeader(HeaderCompanyID),
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
