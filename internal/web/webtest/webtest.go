// Package webtest builds gin routers and requests for handler tests.
package webtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/web"
	"github.com/takdim/inven-go/pkg/auditlog"
	"github.com/takdim/inven-go/pkg/models"
	"github.com/takdim/inven-go/pkg/roles"
)

// SetupTestRouter returns a router with the page templates loaded and a
// signed-in user of role. An empty role leaves the request anonymous.
func SetupTestRouter(role roles.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(web.MustTemplates())
	if role != "" {
		router.Use(func(c *gin.Context) {
			c.Set("userID", 1)
			c.Set("username", "tester")
			c.Set("role", role.String())
			c.Next()
		})
	}
	return router
}

func Get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func PostForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

// FlashCookie returns the flash cookie set by a response, or "".
func FlashCookie(w *httptest.ResponseRecorder) string {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "inven_flash" {
			return cookie.Value
		}
	}
	return ""
}

// AuditStore records persisted entries in memory.
type AuditStore struct {
	Entries []models.AuditLog
}

func (s *AuditStore) PersistLog(_ context.Context, entry models.AuditLog, _ interface{}) error {
	s.Entries = append(s.Entries, entry)
	return nil
}

// Actions lists the recorded actions in order.
func (s *AuditStore) Actions() []string {
	actions := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		actions = append(actions, e.Action+" "+e.ResourceType)
	}
	return actions
}

func NewAuditLog() (*auditlog.Auditlog, *AuditStore) {
	store := &AuditStore{}
	return auditlog.NewAuditLog(store, zap.NewNop()), store
}
