// Package web renders the server-side HTML pages: a layout shared by all
// pages, generic list/form/detail templates driven by view models, and
// one-shot flash messages.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

func MustTemplates() *template.Template {
	return template.Must(Templates())
}

type Viewer struct {
	UserID   int
	Username string
	Role     string
}

type Page struct {
	Title   string
	Viewer  *Viewer
	Flashes []Flash
	Public  bool
	Content any
}

func Render(c *gin.Context, status int, name, title string, content any) {
	c.HTML(status, name, Page{
		Title:   title,
		Viewer:  viewerFrom(c),
		Flashes: PopFlashes(c),
		Content: content,
	})
}

// RenderPublic renders without the navigation of signed-in users.
func RenderPublic(c *gin.Context, status int, name, title string, content any) {
	c.HTML(status, name, Page{
		Title:   title,
		Flashes: PopFlashes(c),
		Public:  true,
		Content: content,
	})
}

type ErrorView struct {
	Status  int
	Message string
}

func RenderError(c *gin.Context, status int, message string) {
	Render(c, status, "error.html", http.StatusText(status), ErrorView{Status: status, Message: message})
	c.Abort()
}

func NotFound(c *gin.Context, what string) {
	RenderError(c, http.StatusNotFound, what+" was not found.")
}

func ServerError(c *gin.Context) {
	RenderError(c, http.StatusInternalServerError, "Something went wrong while processing the request.")
}

// Redirect answers a form post with 303 so the browser follows with GET.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// WithQuery appends the raw query of the current request to path.
func WithQuery(c *gin.Context, path string) string {
	if c.Request == nil || c.Request.URL.RawQuery == "" {
		return path
	}
	return path + "?" + c.Request.URL.RawQuery
}

// ParamID parses a positive integer path parameter. It renders the 404 page
// and returns false when the value is not one.
func ParamID(c *gin.Context, name, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		NotFound(c, what)
		return 0, false
	}
	return id, true
}

func LoginURL(next string) string {
	if next == "" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

func viewerFrom(c *gin.Context) *Viewer {
	username := c.GetString("username")
	if username == "" {
		return nil
	}
	return &Viewer{
		UserID:   c.GetInt("userID"),
		Username: username,
		Role:     c.GetString("role"),
	}
}

func (v *Viewer) IsAdmin() bool {
	return v != nil && v.Role == "admin"
}
