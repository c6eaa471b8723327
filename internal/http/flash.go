package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "console_flash"

type flashKind string

const (
	flashSuccess flashKind = "success"
	flashError   flashKind = "error"
)

// flashNotice is a one-time message carried across a redirect.
type flashNotice struct {
	Kind    flashKind `json:"kind"`
	Message string    `json:"message"`
}

func (h *Handler) setFlash(c *gin.Context, kind flashKind, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	payload, err := json.Marshal(flashNotice{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func (h *Handler) popFlash(c *gin.Context) *flashNotice {
	cookie, err := c.Request.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(cookie.Value))
	if err != nil {
		return nil
	}
	var notice flashNotice
	if err := json.Unmarshal(decoded, &notice); err != nil || notice.Message == "" {
		return nil
	}
	switch notice.Kind {
	case flashSuccess, flashError:
		return &notice
	default:
		return nil
	}
}
