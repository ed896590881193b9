package routes

import (
	"html/template"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	csrf "github.com/utrack/gin-csrf"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/controllers"
	"github.com/lentaproject/lenta/middleware"
	"github.com/lentaproject/lenta/utils"
)

// SetupRouter wires middleware, templates and all page routes.
func SetupRouter(cfg config.AppConfig, db *gorm.DB) *gin.Engine {
	gin.SetMode(ginMode(cfg.GinMode))

	r := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		accessLogger = zap.NewNop()
	}
	r.Use(ginzap.Ginzap(accessLogger, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(accessLogger, true, func(ctx *gin.Context, err interface{}) {
		controllers.ServerErrorPage(ctx)
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Cookie"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.SessionSecret != "" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		r.Use(sessions.Sessions("lenta_session", store))
		if cfg.CSRFSecret != "" {
			r.Use(csrf.Middleware(csrf.Options{
				Secret: cfg.CSRFSecret,
				ErrorFunc: func(ctx *gin.Context) {
					controllers.ForbiddenPage(ctx)
				},
			}))
			r.Use(func(ctx *gin.Context) {
				ctx.Set("csrf_enabled", true)
				ctx.Next()
			})
		}
	}

	r.Use(middleware.CurrentUser())
	r.Use(middleware.PageViewRecorder(db))

	tmpl := template.Must(template.ParseGlob(cfg.TemplateGlob))
	r.SetHTMLTemplate(tmpl)
	r.Static("/static", cfg.StaticDir)

	feed := controllers.NewFeedController(db, tmpl, cfg)
	posts := controllers.NewPostController(db, cfg)
	follows := controllers.NewFollowController(db)
	auth := controllers.NewAuthController(db)
	about := controllers.NewAboutController()

	r.GET("/", feed.Index)
	r.GET("/group/:slug/", feed.GroupPosts)
	r.GET("/posts/:id/", feed.PostDetail)
	r.GET("/profile/:username/", feed.Profile)

	r.GET("/about/author/", about.Author)
	r.GET("/about/tech/", about.Tech)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	{
		authGroup.GET("/signup/", auth.SignupForm)
		authGroup.POST("/signup/", auth.Signup)
		authGroup.GET("/login/", auth.LoginForm)
		authGroup.POST("/login/", auth.Login)
		authGroup.POST("/logout/", auth.Logout)
		authGroup.GET("/oauth/:provider/login", auth.OAuthRedirect)
		authGroup.GET("/oauth/:provider/callback", auth.OAuthCallback)
	}

	private := r.Group("/")
	private.Use(middleware.LoginRequired())
	{
		private.GET("follow/", feed.FollowIndex)
		private.GET("create/", posts.CreateForm)
		private.POST("create/", posts.Create)
		private.GET("posts/:id/edit/", posts.EditForm)
		private.POST("posts/:id/edit/", posts.Edit)
		private.POST("posts/:id/comment/", posts.AddComment)
		private.POST("profile/:username/follow/", follows.Follow)
		private.POST("profile/:username/unfollow/", follows.Unfollow)
	}

	r.NoRoute(controllers.NotFoundPage)

	return r
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}
