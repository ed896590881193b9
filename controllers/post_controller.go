package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/models"
	"github.com/lentaproject/lenta/utils"
)

// maxImageSize bounds uploaded post images.
const maxImageSize = 10 * 1024 * 1024

// PostController manages the post and comment mutations: create, edit and
// comment. Every handler here sits behind the login guard; the author of a
// stored row is always the authenticated caller, never a form field.
type PostController struct {
	db        *gorm.DB
	uploadDir string
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{db: db, uploadDir: cfg.UploadDir}
}

// CreateForm renders the empty new-post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "create_post.html", view(ctx, gin.H{
		"is_edit": false,
		"groups":  p.allGroups(),
	}))
}

// Create stores a new post for the authenticated caller. Empty text re-renders
// the form with the submitted input preserved; success redirects to the
// author's profile.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+ctx.Request.URL.RequestURI())
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	groupID, groupErr := p.parseGroup(ctx.PostForm("group"))

	formErrors := map[string]string{}
	if text == "" {
		formErrors["text"] = "Текст статьи не может быть пустым"
	}
	if groupErr != nil {
		formErrors["group"] = "Выберите группу из списка или оставьте поле пустым"
	}
	if len(formErrors) > 0 {
		ctx.HTML(http.StatusOK, "create_post.html", view(ctx, gin.H{
			"is_edit":  false,
			"groups":   p.allGroups(),
			"errors":   formErrors,
			"text":     ctx.PostForm("text"),
			"group_id": ctx.PostForm("group"),
		}))
		return
	}

	imageURL, err := p.saveImage(ctx)
	if err != nil {
		ctx.HTML(http.StatusOK, "create_post.html", view(ctx, gin.H{
			"is_edit": false,
			"groups":  p.allGroups(),
			"errors":  map[string]string{"image": err.Error()},
			"text":    ctx.PostForm("text"),
		}))
		return
	}

	post := models.Post{
		Text:     text,
		AuthorID: userID,
		GroupID:  groupID,
		Image:    imageURL,
	}
	if err := p.db.Create(&post).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}

	ctx.Redirect(http.StatusFound, "/profile/"+currentUsername(ctx)+"/")
}

// EditForm renders the edit form for the post's author. Anyone else is sent
// back to the post's page.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	userID, _ := currentUserID(ctx)
	if userID != post.AuthorID {
		ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
		return
	}

	groupValue := ""
	if post.GroupID != nil {
		groupValue = strconv.Itoa(int(*post.GroupID))
	}
	ctx.HTML(http.StatusOK, "create_post.html", view(ctx, gin.H{
		"is_edit":  true,
		"post":     post,
		"groups":   p.allGroups(),
		"text":     post.Text,
		"group_id": groupValue,
	}))
}

// Edit updates a post's text, group and image. The publication date never
// changes. A non-author editor is silently redirected to the unchanged post.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	userID, _ := currentUserID(ctx)
	if userID != post.AuthorID {
		ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	groupID, groupErr := p.parseGroup(ctx.PostForm("group"))

	formErrors := map[string]string{}
	if text == "" {
		formErrors["text"] = "Текст статьи не может быть пустым"
	}
	if groupErr != nil {
		formErrors["group"] = "Выберите группу из списка или оставьте поле пустым"
	}
	if len(formErrors) > 0 {
		ctx.HTML(http.StatusOK, "create_post.html", view(ctx, gin.H{
			"is_edit":  true,
			"post":     post,
			"groups":   p.allGroups(),
			"errors":   formErrors,
			"text":     ctx.PostForm("text"),
			"group_id": ctx.PostForm("group"),
		}))
		return
	}

	updates := map[string]interface{}{
		"text":     text,
		"group_id": groupID,
	}
	if imageURL, err := p.saveImage(ctx); err == nil && imageURL != "" {
		updates["image"] = imageURL
	}

	if err := p.db.Model(&post).Updates(updates).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}

	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}

// AddComment attaches a comment by the authenticated caller to a post. Empty
// text is dropped without creating a row; either way the caller lands back on
// the post's page.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	userID, ok := currentUserID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+ctx.Request.URL.RequestURI())
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if text != "" {
		comment := models.Comment{
			PostID:   post.ID,
			AuthorID: userID,
			Text:     text,
		}
		if err := p.db.Create(&comment).Error; err != nil {
			ServerErrorPage(ctx)
			return
		}
	}

	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}

// loadPost fetches the post addressed by the id path parameter, rendering the
// 404 page when it does not exist.
func (p *PostController) loadPost(ctx *gin.Context) (models.Post, bool) {
	var post models.Post
	if err := p.db.First(&post, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFoundPage(ctx)
			return post, false
		}
		ServerErrorPage(ctx)
		return post, false
	}
	return post, true
}

func (p *PostController) allGroups() []models.Group {
	var groups []models.Group
	p.db.Order("title ASC").Find(&groups)
	return groups
}

// parseGroup converts the group form value into an optional group ID. An
// empty value means "no group"; a non-existent group is a validation error.
func (p *PostController) parseGroup(value string) (*uint, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, err
	}
	var group models.Group
	if err := p.db.First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	gid := uint(id)
	return &gid, nil
}

// saveImage stores an optional uploaded image under the uploads directory and
// returns its public URL. A missing file field is not an error.
func (p *PostController) saveImage(ctx *gin.Context) (string, error) {
	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		return "", nil
	}
	defer file.Close()

	if header.Size > maxImageSize {
		return "", fmt.Errorf("размер картинки превышает %d МБ", maxImageSize/(1024*1024))
	}

	now := time.Now()
	baseDir := filepath.Join(p.uploadDir, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("не удалось сохранить картинку")
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == "" {
		name = "image"
	}
	safeName := uuid.NewString() + "_" + name
	dstPath := filepath.Join(baseDir, safeName)

	if err := writeUpload(file, dstPath); err != nil {
		return "", fmt.Errorf("не удалось сохранить картинку")
	}

	return "/" + filepath.ToSlash(dstPath), nil
}

func writeUpload(src multipart.File, dstPath string) error {
	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer out.Close()

	lr := &io.LimitedReader{R: src, N: maxImageSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		return err
	}
	if written > maxImageSize {
		_ = os.Remove(dstPath)
		return fmt.Errorf("image too large")
	}
	return nil
}

func postDetailPath(id uint) string {
	return "/posts/" + strconv.Itoa(int(id)) + "/"
}
