package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	csrf "github.com/utrack/gin-csrf"

	"github.com/lentaproject/lenta/middleware"
)

const htmlContentType = "text/html; charset=utf-8"

// csrfEnabledKey is set on the context by the router when CSRF protection is active.
const csrfEnabledKey = "csrf_enabled"

// currentUserID returns the authenticated user's ID from the request context.
func currentUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func currentUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}

// view assembles the common template context shared by every page: the viewer
// identity and, when protection is active, the CSRF token for forms.
func view(ctx *gin.Context, extra gin.H) gin.H {
	data := gin.H{
		"path":          ctx.Request.URL.Path,
		"username":      currentUsername(ctx),
		"authenticated": false,
	}
	if _, ok := currentUserID(ctx); ok {
		data["authenticated"] = true
	}
	if ctx.GetBool(csrfEnabledKey) {
		data["csrf_token"] = csrf.GetToken(ctx)
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// NotFoundPage renders the localized 404 page embedding the requested path.
func NotFoundPage(ctx *gin.Context) {
	ctx.HTML(http.StatusNotFound, "custom_error.html", view(ctx, gin.H{
		"status": "Страница не найдена, ошибка 404",
		"text":   fmt.Sprintf("Страницы с адресом %s не существует", ctx.Request.URL.Path),
	}))
	ctx.Abort()
}

// ForbiddenPage renders the 403 page (used for CSRF failures).
func ForbiddenPage(ctx *gin.Context) {
	ctx.HTML(http.StatusForbidden, "custom_error.html", view(ctx, gin.H{
		"status": "Доступ запрещен, ошибка 403",
	}))
	ctx.Abort()
}

// ServerErrorPage renders the 500 page for unexpected faults.
func ServerErrorPage(ctx *gin.Context) {
	ctx.HTML(http.StatusInternalServerError, "custom_error.html", view(ctx, gin.H{
		"status": "Внутренняя ошибка сервера, 500",
	}))
	ctx.Abort()
}
