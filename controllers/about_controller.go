package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AboutController serves the static project pages.
type AboutController struct{}

// NewAboutController creates an AboutController.
func NewAboutController() *AboutController {
	return &AboutController{}
}

// Author renders the page about the project author.
func (a *AboutController) Author(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "about_author.html", view(ctx, nil))
}

// Tech renders the page about the technologies behind the project.
func (a *AboutController) Tech(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "about_tech.html", view(ctx, nil))
}
