package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user-console/internal/auth"
)

const (
	sessionCookie = "console_session"
	scopeKey      = "session_scope"
)

// sessionMiddleware resolves the caller's session scope from the signed
// cookie, issuing a fresh scope when the cookie is missing or invalid.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var scope string
		if raw, err := c.Cookie(sessionCookie); err == nil && raw != "" {
			if parsed, err := auth.ParseSessionToken(raw, h.opts.SessionSecret); err == nil {
				scope = parsed
			} else {
				h.logger.WithField("path", c.Request.URL.Path).Debugf("discarding session cookie: %v", err)
			}
		}

		if scope == "" {
			scope = auth.NewScope()
			token, err := auth.IssueSessionToken(scope, h.opts.SessionSecret, h.opts.SessionTTL)
			if err != nil {
				h.logger.Errorf("issue session token: %v", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(h.opts.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   h.opts.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(scopeKey, scope)
		c.Next()
	}
}

func scopeOf(c *gin.Context) string {
	return c.GetString(scopeKey)
}

// requireLogin lets authenticated scopes through. Pages redirect to the
// login screen, API calls get a 401.
func (h *Handler) requireLogin(api bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.sessions.Authenticated(c.Request.Context(), scopeOf(c))
		if err != nil {
			h.logger.WithField("scope", scopeOf(c)).Errorf("check session: %v", err)
			if api {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			} else {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
			return
		}
		if ok {
			c.Next()
			return
		}
		if api {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
	}
}
