package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lentaproject/lenta/models"
)

// FollowController manages the directed follow edges between users. Both
// mutations are idempotent: re-following and un-following an absent edge are
// silent no-ops, and every outcome redirects to the author's profile.
type FollowController struct {
	db *gorm.DB
}

// NewFollowController creates a FollowController.
func NewFollowController(db *gorm.DB) *FollowController {
	return &FollowController{db: db}
}

// Follow creates a follow edge from the authenticated caller to the author
// addressed by username. Self-follow and duplicate edges are absorbed.
func (f *FollowController) Follow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+ctx.Request.URL.RequestURI())
		return
	}

	profile := "/profile/" + author.Username + "/"
	if userID == author.ID {
		ctx.Redirect(http.StatusFound, profile)
		return
	}

	var count int64
	if err := f.db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, author.ID).
		Count(&count).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}
	if count == 0 {
		if err := f.db.Create(&models.Follow{UserID: userID, AuthorID: author.ID}).Error; err != nil {
			ServerErrorPage(ctx)
			return
		}
	}

	ctx.Redirect(http.StatusFound, profile)
}

// Unfollow deletes the follow edge if present; deleting an absent edge is a
// silent no-op.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+ctx.Request.URL.RequestURI())
		return
	}

	if err := f.db.
		Where("user_id = ? AND author_id = ?", userID, author.ID).
		Delete(&models.Follow{}).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}

	ctx.Redirect(http.StatusFound, "/profile/"+author.Username+"/")
}

func (f *FollowController) loadAuthor(ctx *gin.Context) (models.User, bool) {
	var author models.User
	if err := f.db.Where("username = ?", ctx.Param("username")).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFoundPage(ctx)
			return author, false
		}
		ServerErrorPage(ctx)
		return author, false
	}
	return author, true
}
