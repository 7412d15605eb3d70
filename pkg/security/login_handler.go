package security

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/rate_limiter"
	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/validation"
)

const (
	loginAttempts = 10
	loginWindow   = 5 * time.Minute
)

type LoginHandler struct {
	users       UserStore
	sessions    *SessionManager
	rateLimiter *rate_limiter.RateLimiter
	auditLog    *auditlog.Auditlog
	logger      *zap.Logger
}

func NewLoginHandler(users UserStore, sessions *SessionManager, a *auditlog.Auditlog, logger *zap.Logger) *LoginHandler {
	return &LoginHandler{
		users:       users,
		sessions:    sessions,
		rateLimiter: rate_limiter.NewRateLimiter(loginAttempts, loginWindow),
		auditLog:    a,
		logger:      logger,
	}
}

func (l *LoginHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", l.ShowLogin)
	router.POST("/login", l.Login)
}

// RegisterSessionRoutes registers routes that need a signed-in user.
func (l *LoginHandler) RegisterSessionRoutes(router gin.IRouter) {
	router.POST("/logout", l.Logout)
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

func (l *LoginHandler) ShowLogin(c *gin.Context) {
	l.renderLogin(c, http.StatusOK, c.Query("next"), "", nil)
}

func (l *LoginHandler) Login(c *gin.Context) {
	clientKey := rateLimitKey(c)

	if !l.rateLimiter.Allow(clientKey) {
		resetAt := l.rateLimiter.ResetAt(clientKey)
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.rateLimiter.Limit()))
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))
		l.renderLogin(c, http.StatusTooManyRequests, c.PostForm("next"), c.PostForm("username"),
			validation.Errors{{Field: validation.FormError, Message: "Too many login attempts. Try again after " + resetAt.Format("15:04") + "."}})
		return
	}

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		l.renderLogin(c, http.StatusUnprocessableEntity, req.Next, req.Username, validation.FromBinding(err))
		return
	}

	user, err := AuthenticateUser(c.Request.Context(), l.users, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactiveUser) {
			l.renderLogin(c, http.StatusUnauthorized, req.Next, req.Username,
				validation.Errors{{Field: validation.FormError, Message: "Invalid username or password, or the account is disabled."}})
			return
		}
		l.logger.Error("Failed to authenticate user", zap.String("username", req.Username), zap.Error(err))
		web.ServerError(c)
		return
	}

	token, claims, err := l.sessions.Issue(user)
	if err != nil {
		l.logger.Error("Failed to issue session", zap.Int("user_id", user.ID), zap.Error(err))
		web.ServerError(c)
		return
	}

	l.rateLimiter.Reset(clientKey)
	l.sessions.SetCookie(c, token)

	if err := l.users.TouchLastLogin(c.Request.Context(), user.ID, claims.IssuedAt.Time); err != nil {
		l.logger.Warn("Failed to update last login", zap.Int("user_id", user.ID), zap.Error(err))
	}

	id := user.ID
	l.auditLog.Log(c.Request.Context(), auditlog.Actor{UserID: &id, IP: c.ClientIP()}, "login", "User "+user.Username+" signed in", nil, user)

	web.Success(c, "Welcome, "+user.FullName+".")
	web.Redirect(c, safeNext(req.Next))
}

func (l *LoginHandler) Logout(c *gin.Context) {
	if claims, ok := SessionClaims(c); ok {
		if err := l.sessions.Revoke(c.Request.Context(), claims); err != nil {
			l.logger.Warn("Failed to revoke session", zap.Int("user_id", claims.UserID), zap.Error(err))
		}
		l.auditLog.Log(c.Request.Context(), Actor(c), "logout", "User "+claims.Username+" signed out", nil, &models.User{ID: claims.UserID})
	}

	l.sessions.ClearCookie(c)
	web.Success(c, "You have been signed out.")
	web.Redirect(c, "/login")
}

func (l *LoginHandler) renderLogin(c *gin.Context, status int, next, username string, errs validation.Errors) {
	form := web.FormView{
		Heading: "Sign in",
		Action:  "/login",
		Submit:  "Sign in",
		Fields: []web.Field{
			web.HiddenField("next", next),
			web.TextField("username", "Username", username, true),
			web.PasswordField("password", "Password", true),
		},
	}
	form.Bind(errs)
	web.RenderPublic(c, status, "form.html", "Sign in", form)
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/login") {
		return "/dashboard"
	}
	return next
}

// rateLimitKey counts attempts per client address. Private addresses are
// usually a proxy or NAT shared by many people, so they are split by user agent.
func rateLimitKey(c *gin.Context) string {
	clientIP := c.ClientIP()
	ip := net.ParseIP(clientIP)
	if ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()) {
		return clientIP + ":" + c.GetHeader("User-Agent")
	}
	return clientIP
}
