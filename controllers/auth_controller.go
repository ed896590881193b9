package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/middleware"
	"github.com/lentaproject/lenta/models"
	"github.com/lentaproject/lenta/utils"
)

const authTokenLifetime = 72 * time.Hour

// AuthController handles registration, login/logout and third-party sign-in.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// SignupForm renders the registration page.
func (a *AuthController) SignupForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "signup.html", view(ctx, nil))
}

// Signup registers a local account with bcrypt hashing and signs the new user in.
func (a *AuthController) Signup(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	confirm := ctx.PostForm("confirm")

	formErrors := map[string]string{}
	if l := len([]rune(username)); l < 3 || l > 64 {
		formErrors["username"] = "Имя пользователя должно быть длиной от 3 до 64 символов"
	} else if !validUsername(username) {
		formErrors["username"] = "Имя пользователя может содержать только буквы, цифры, '-' и '_'"
	} else {
		var count int64
		a.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
		if count > 0 {
			formErrors["username"] = "Пользователь с таким именем уже существует"
		}
	}
	if len(password) < 6 {
		formErrors["password"] = "Пароль должен быть не короче 6 символов"
	} else if password != confirm {
		formErrors["confirm"] = "Пароли не совпадают"
	}

	if len(formErrors) > 0 {
		ctx.HTML(http.StatusOK, "signup.html", view(ctx, gin.H{
			"errors":        formErrors,
			"form_username": username,
		}))
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	user := models.User{Username: username, PasswordHash: hash}
	if err := a.db.Create(&user).Error; err != nil {
		ServerErrorPage(ctx)
		return
	}

	if !a.signIn(ctx, user) {
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// LoginForm renders the login page, carrying the next parameter through.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", view(ctx, gin.H{
		"next": safeNext(ctx.Query("next")),
	}))
}

// Login verifies credentials, sets the auth cookie and sends the user back to
// the page they originally asked for.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	next := safeNext(ctx.PostForm("next"))

	var user models.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		ServerErrorPage(ctx)
		return
	}
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		ctx.HTML(http.StatusOK, "login.html", view(ctx, gin.H{
			"errors":        map[string]string{"login": "Неверное имя пользователя или пароль"},
			"form_username": username,
			"next":          next,
		}))
		return
	}

	if !a.signIn(ctx, user) {
		return
	}
	ctx.Redirect(http.StatusFound, next)
}

// Logout revokes the auth token until its natural expiry and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, err := ctx.Cookie(middleware.AuthCookieName); err == nil && token != "" {
		expiresAt := time.Now().Add(authTokenLifetime)
		if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(token, expiresAt)
	}
	ctx.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/")
}

// OAuthRedirect sends the visitor to the provider's authorization page.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := a.oauthConfig(ctx.Param("provider"))
	if err != nil {
		NotFoundPage(ctx)
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// OAuthCallback exchanges the authorization code for a user identity and
// signs the user in.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" || !utils.ConsumeState(state) {
		a.loginError(ctx, "Не удалось войти через внешний сервис, попробуйте ещё раз")
		return
	}

	cfg, err := a.oauthConfig(provider)
	if err != nil {
		NotFoundPage(ctx)
		return
	}

	token, err := cfg.Exchange(context.Background(), code)
	if err != nil {
		a.loginError(ctx, "Не удалось войти через внешний сервис, попробуйте ещё раз")
		return
	}

	info, err := fetchOAuthUser(provider, token)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("oauth user fetch failed provider=%s: %v", provider, err)
		}
		a.loginError(ctx, "Не удалось получить данные профиля")
		return
	}

	user, err := a.findOrCreateOAuthUser(provider, info)
	if err != nil {
		ServerErrorPage(ctx)
		return
	}

	if !a.signIn(ctx, *user) {
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// signIn issues the auth cookie; a signing failure renders the 500 page.
func (a *AuthController) signIn(ctx *gin.Context, user models.User) bool {
	token, err := utils.GenerateToken(user.ID, user.Username, authTokenLifetime)
	if err != nil {
		ServerErrorPage(ctx)
		return false
	}
	ctx.SetCookie(middleware.AuthCookieName, token, int(authTokenLifetime.Seconds()), "/", "", false, true)
	return true
}

func (a *AuthController) loginError(ctx *gin.Context, message string) {
	ctx.HTML(http.StatusOK, "login.html", view(ctx, gin.H{
		"errors": map[string]string{"login": message},
		"next":   "/",
	}))
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type oauthUser struct {
	ID        string
	Username  string
	Email     string
	AvatarURL string
}

func fetchOAuthUser(provider string, token *oauth2.Token) (*oauthUser, error) {
	switch strings.ToLower(provider) {
	case "github":
		return fetchGitHubUser(token)
	case "google":
		return fetchGoogleUser(token)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (a *AuthController) findOrCreateOAuthUser(provider string, data *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", provider, data.ID).First(&user).Error
	if err == nil {
		_ = a.db.Model(&user).Updates(map[string]interface{}{
			"email":      strings.TrimSpace(data.Email),
			"avatar_url": data.AvatarURL,
		})
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Username:   a.ensureUniqueUsername(data.Username, provider, data.ID),
		Email:      strings.TrimSpace(data.Email),
		Provider:   provider,
		ProviderID: data.ID,
		AvatarURL:  data.AvatarURL,
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func fetchGitHubUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	email, _ := fetchGitHubEmail(token.AccessToken)

	return &oauthUser{
		ID:        fmt.Sprintf("%d", payload.ID),
		Username:  payload.Login,
		Email:     email,
		AvatarURL: payload.AvatarURL,
	}, nil
}

func fetchGitHubEmail(accessToken string) (string, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user/emails", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github emails request failed: %s", resp.Status)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

func fetchGoogleUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &oauthUser{
		ID:        payload.ID,
		Username:  payload.Email,
		Email:     payload.Email,
		AvatarURL: payload.Picture,
	}, nil
}

func (a *AuthController) ensureUniqueUsername(base, provider, id string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(provider + "_" + id)
		if base == "" {
			base = "user_" + id
		}
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == '@':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

// validUsername allows latin and cyrillic letters, digits, '-' and '_'.
func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= 0x0400 && r <= 0x04FF:
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// safeNext keeps redirects on-site: only rooted paths survive.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
