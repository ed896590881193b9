package controllers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/models"
	"github.com/lentaproject/lenta/utils"
)

// IndexCachePrefix keys the cached renderings of the index feed. Only the
// index feed is cached; everything else renders fresh on every request.
const IndexCachePrefix = "cache:index:"

// FeedController serves the read-only post listings: the site-wide feed, the
// group and profile feeds, the single post page and the personalized feed of
// followed authors.
type FeedController struct {
	db       *gorm.DB
	tmpl     *template.Template
	pageSize int
	cacheTTL time.Duration
}

// NewFeedController creates a FeedController. The template set is shared with
// the router; the index handler needs it to render into a buffer for caching.
func NewFeedController(db *gorm.DB, tmpl *template.Template, cfg config.AppConfig) *FeedController {
	return &FeedController{
		db:       db,
		tmpl:     tmpl,
		pageSize: cfg.PostsPerPage,
		cacheTTL: time.Duration(cfg.IndexCacheSeconds) * time.Second,
	}
}

// posts returns the base feed query: newest first, ties in insertion order,
// author and group loaded eagerly.
func (f *FeedController) posts() *gorm.DB {
	return f.db.Model(&models.Post{}).
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC, id ASC")
}

// Index renders the site-wide feed. The rendered page is cached whole for a
// short window keyed by the page parameter, so concurrent readers within the
// window observe identical bytes even if posts changed in the interim.
func (f *FeedController) Index(ctx *gin.Context) {
	cacheKey := IndexCachePrefix + "page=" + ctx.DefaultQuery("page", "1")
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, htmlContentType, b)
		return
	}

	var posts []models.Post
	page, err := utils.Paginate(f.posts(), ctx.Query("page"), f.pageSize, &posts)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	var buf bytes.Buffer
	data := view(ctx, gin.H{"posts": posts, "page": page})
	if err := f.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("index render failed: %v", err)
		}
		ServerErrorPage(ctx)
		return
	}

	utils.CacheSetBytes(cacheKey, buf.Bytes(), f.cacheTTL)
	ctx.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// GroupPosts renders the feed of a single group identified by slug.
func (f *FeedController) GroupPosts(ctx *gin.Context) {
	slug := ctx.Param("slug")

	var group models.Group
	if err := f.db.Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFoundPage(ctx)
			return
		}
		ServerErrorPage(ctx)
		return
	}

	var posts []models.Post
	page, err := utils.Paginate(f.posts().Where("group_id = ?", group.ID), ctx.Query("page"), f.pageSize, &posts)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	ctx.HTML(http.StatusOK, "group_list.html", view(ctx, gin.H{
		"group": group,
		"posts": posts,
		"page":  page,
	}))
}

// Profile renders an author's feed. For an authenticated viewer who is not
// the author themself it also reports whether a follow edge already exists.
func (f *FeedController) Profile(ctx *gin.Context) {
	username := ctx.Param("username")

	var author models.User
	if err := f.db.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFoundPage(ctx)
			return
		}
		ServerErrorPage(ctx)
		return
	}

	var posts []models.Post
	page, err := utils.Paginate(f.posts().Where("author_id = ?", author.ID), ctx.Query("page"), f.pageSize, &posts)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	following := false
	subscriptionBan := false
	if viewerID, ok := currentUserID(ctx); ok {
		subscriptionBan = viewerID == author.ID
		if !subscriptionBan {
			var count int64
			f.db.Model(&models.Follow{}).
				Where("user_id = ? AND author_id = ?", viewerID, author.ID).
				Count(&count)
			following = count > 0
		}
	}

	ctx.HTML(http.StatusOK, "profile.html", view(ctx, gin.H{
		"author":           author,
		"posts":            posts,
		"page":             page,
		"following":        following,
		"subscription_ban": subscriptionBan,
	}))
}

// PostDetail renders a single post with its comments and the comment form.
func (f *FeedController) PostDetail(ctx *gin.Context) {
	var post models.Post
	if err := f.db.Preload("Author").Preload("Group").First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFoundPage(ctx)
			return
		}
		ServerErrorPage(ctx)
		return
	}

	var comments []models.Comment
	if err := f.db.Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created DESC, id ASC").
		Find(&comments).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}

	viewerID, _ := currentUserID(ctx)
	ctx.HTML(http.StatusOK, "post_detail.html", view(ctx, gin.H{
		"post":      post,
		"comments":  comments,
		"is_author": viewerID == post.AuthorID,
	}))
}

// FollowIndex renders the personalized feed of posts by followed authors.
// The route is guarded: only authenticated viewers reach this handler.
func (f *FeedController) FollowIndex(ctx *gin.Context) {
	viewerID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+ctx.Request.URL.RequestURI())
		return
	}

	followed := f.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", viewerID)

	var posts []models.Post
	page, err := utils.Paginate(f.posts().Where("author_id IN (?)", followed), ctx.Query("page"), f.pageSize, &posts)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	ctx.HTML(http.StatusOK, "follow.html", view(ctx, gin.H{
		"posts": posts,
		"page":  page,
	}))
}
