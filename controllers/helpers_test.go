package controllers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/models"
	"github.com/lentaproject/lenta/routes"
	"github.com/lentaproject/lenta/utils"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

// setupApp builds a full application against an in-memory database and a
// miniredis server. CSRF stays off so form posts need no token.
func setupApp(t *testing.T) *testApp {
	return setupAppWith(t, nil)
}

func setupAppWith(t *testing.T, mutate func(*config.AppConfig)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	utils.SetRedisClient(client)
	t.Cleanup(func() { utils.SetRedisClient(nil) })

	cfg := config.AppConfig{
		JWTSecret:    "test-secret",
		TemplateGlob: filepath.Join("..", "templates", "*.html"),
		StaticDir:    filepath.Join("..", "static"),
		UploadDir:    t.TempDir(),
		GinMode:      gin.TestMode,
		GinPath:      filepath.Join(t.TempDir(), "gin.log"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	applied := config.Set(cfg)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PageView{},
	))

	return &testApp{
		router: routes.SetupRouter(applied, db),
		db:     db,
		redis:  mr,
	}
}

func (a *testApp) createUser(t *testing.T, username string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{Username: username, PasswordHash: hash}
	require.NoError(t, a.db.Create(&user).Error)
	return user
}

func (a *testApp) createGroup(t *testing.T, title, slug string) models.Group {
	t.Helper()
	group := models.Group{Title: title, Slug: slug, Description: "Описание группы " + title}
	require.NoError(t, a.db.Create(&group).Error)
	return group
}

func (a *testApp) createPost(t *testing.T, author models.User, text string, groupID *uint, pubDate time.Time) models.Post {
	t.Helper()
	post := models.Post{Text: text, AuthorID: author.ID, GroupID: groupID, PubDate: pubDate}
	require.NoError(t, a.db.Create(&post).Error)
	return post
}

func authCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	token, err := utils.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: "lenta_auth", Value: token}
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}

func postMarker(i int) string {
	return fmt.Sprintf("запись-номер-%03d", i)
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// formValues builds url.Values from alternating key/value pairs.
func formValues(pairs ...string) url.Values {
	form := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		form.Set(pairs[i], pairs[i+1])
	}
	return form
}

// get performs a GET request against the app router.
func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// postForm performs an urlencoded POST against the app router.
func (a *testApp) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
