package security

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	custom_error "github.com/takdim/inven-go/pkg/errors"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

const claimsKey = "sessionClaims"

// AccountLoader reloads the signed-in account on every request.
type AccountLoader interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

// RequireSession loads the session cookie into the context or redirects to the login page.
// The role comes from the current users row; a missing or disabled account ends the session.
func (m *SessionManager) RequireSession(accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			redirectToLogin(c)
			return
		}

		claims, err := m.Parse(c.Request.Context(), cookie)
		if err != nil {
			m.ClearCookie(c)
			redirectToLogin(c)
			return
		}

		user, err := accounts.Get(c.Request.Context(), claims.UserID)
		if err != nil && !errors.Is(err, custom_error.ErrNotFound) {
			web.ServerError(c)
			return
		}
		if user == nil || !user.IsActive {
			_ = m.Revoke(c.Request.Context(), claims)
			m.ClearCookie(c)
			redirectToLogin(c)
			return
		}

		claims.Username = user.Username
		claims.Role = string(user.Role)

		c.Set(claimsKey, claims)
		c.Set("userID", user.ID)
		c.Set("username", user.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	next := ""
	if c.Request.Method == http.MethodGet {
		next = c.Request.URL.RequestURI()
	}
	c.Redirect(http.StatusSeeOther, web.LoginURL(next))
	c.Abort()
}

// Authorize ensures the user has at least the required role.
func Authorize(required roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := roles.Role(c.GetString("role"))
		if !role.HasPermission(required) {
			web.RenderError(c, http.StatusForbidden, "You do not have permission to open this page.")
			return
		}
		c.Next()
	}
}

func SessionClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// CurrentUserID is the signed-in user, or nil on public routes.
func CurrentUserID(c *gin.Context) *int {
	id := c.GetInt("userID")
	if id == 0 {
		return nil
	}
	return &id
}

// Actor identifies who performs the request for the audit log.
func Actor(c *gin.Context) auditlog.Actor {
	return auditlog.Actor{
		UserID: CurrentUserID(c),
		IP:     c.ClientIP(),
	}
}
