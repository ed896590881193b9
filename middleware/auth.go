package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lentaproject/lenta/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// AuthCookieName is the cookie carrying the signed auth token.
	AuthCookieName = "lenta_auth"
	// LoginPath is where anonymous visitors are sent when a guarded page is requested.
	LoginPath = "/auth/login/"
)

// CurrentUser resolves the auth cookie into the request context when present.
// Anonymous and invalid-cookie requests pass through unauthenticated.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(AuthCookieName)
		if err != nil || token == "" {
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous visitors to the login page, preserving
// the original target in the next parameter. Authenticated requests proceed.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := ctx.Get(ContextUserIDKey); !ok {
			ctx.Redirect(http.StatusFound, LoginPath+"?next="+ctx.Request.URL.RequestURI())
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
