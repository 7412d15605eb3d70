package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie     = "inven_flash"
	pendingFlashKey = "web.pendingFlashes"

	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// AddFlash queues a message for the next rendered page, in this request or
// after a redirect.
func AddFlash(c *gin.Context, kind, message string) {
	pending := pendingFlashes(c)
	pending = append(pending, Flash{Kind: kind, Message: message})
	c.Set(pendingFlashKey, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func Success(c *gin.Context, message string) {
	AddFlash(c, FlashSuccess, message)
}

func Danger(c *gin.Context, message string) {
	AddFlash(c, FlashDanger, message)
}

// PopFlashes returns the queued messages and clears the cookie.
func PopFlashes(c *gin.Context) []Flash {
	flashes := pendingFlashes(c)
	fromCookie := false

	if cookie, err := c.Request.Cookie(flashCookie); err == nil && cookie.Value != "" {
		fromCookie = true
		if raw, err := base64.RawURLEncoding.DecodeString(cookie.Value); err == nil {
			var stored []Flash
			if json.Unmarshal(raw, &stored) == nil {
				flashes = append(stored, flashes...)
			}
		}
	}

	if fromCookie || len(flashes) > 0 {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	c.Set(pendingFlashKey, []Flash(nil))

	return flashes
}

func pendingFlashes(c *gin.Context) []Flash {
	if v, ok := c.Get(pendingFlashKey); ok {
		if flashes, ok := v.([]Flash); ok {
			return flashes
		}
	}
	return nil
}
