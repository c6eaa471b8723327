package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-console/internal/directory"
	"user-console/internal/domain"
	"user-console/internal/service"
)

type loginView struct {
	Email    string
	Password string
	Error    string
}

type usersView struct {
	Flash      *flashNotice
	Users      []domain.User
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Error      string
}

type editView struct {
	Flash *flashNotice
	User  domain.User
	Error string
}

type deleteView struct {
	User domain.User
}

func (h *Handler) loginPage(c *gin.Context) {
	if ok, err := h.sessions.Authenticated(c.Request.Context(), scopeOf(c)); err == nil && ok {
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}
	view := loginView{Email: h.opts.DemoEmail, Password: h.opts.DemoPassword}
	if notice := h.popFlash(c); notice != nil && notice.Kind == flashError {
		view.Error = notice.Message
	}
	c.HTML(http.StatusOK, "login.html", view)
}

func (h *Handler) loginSubmit(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	if err := h.sessions.Login(c.Request.Context(), scopeOf(c), email, password); err != nil {
		h.logFailure(c, "login", err)
		c.HTML(http.StatusOK, "login.html", loginView{Email: email, Password: password, Error: userMessage(err)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) logoutSubmit(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), scopeOf(c)); err != nil {
		h.logFailure(c, "logout", err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) usersPage(c *gin.Context) {
	opts := service.ListOptions{}
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Page = n
		}
	}

	listing, err := h.users.List(c.Request.Context(), scopeOf(c), opts)
	if err != nil {
		h.logFailure(c, "list users", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}

	view := usersView{
		Flash:      h.popFlash(c),
		Users:      listing.Users,
		Page:       listing.Page,
		TotalPages: listing.TotalPages,
		HasPrev:    listing.HasPrev,
		HasNext:    listing.HasNext,
	}
	if listing.FetchErr != nil {
		view.Error = userMessage(listing.FetchErr)
	}
	c.HTML(http.StatusOK, "users.html", view)
}

func (h *Handler) usersNext(c *gin.Context) {
	h.users.NextPage(scopeOf(c))
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) usersPrev(c *gin.Context) {
	h.users.PrevPage(scopeOf(c))
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) usersRefresh(c *gin.Context) {
	if _, err := h.users.List(c.Request.Context(), scopeOf(c), service.ListOptions{Force: true}); err != nil {
		h.logFailure(c, "refresh users", err)
	}
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) editPage(c *gin.Context) {
	id, ok := h.pageUserID(c)
	if !ok {
		return
	}

	user, err := h.users.EditForm(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.logFailure(c, "load edit form", err)
		h.setFlash(c, flashError, userMessage(err))
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}
	c.HTML(http.StatusOK, "edit.html", editView{Flash: h.popFlash(c), User: user})
}

func (h *Handler) editSubmit(c *gin.Context) {
	id, ok := h.pageUserID(c)
	if !ok {
		return
	}

	fields := domain.UserFields{
		FirstName: c.PostForm("first_name"),
		LastName:  c.PostForm("last_name"),
		Email:     c.PostForm("email"),
	}
	if err := h.users.SubmitEdit(c.Request.Context(), scopeOf(c), id, fields); err != nil {
		h.logFailure(c, "save edit", err)
		if errors.Is(err, service.ErrUserDeleted) {
			h.setFlash(c, flashError, userMessage(err))
			c.Redirect(http.StatusSeeOther, "/users")
			return
		}
		c.HTML(http.StatusOK, "edit.html", editView{
			User: domain.User{
				ID:        id,
				FirstName: fields.FirstName,
				LastName:  fields.LastName,
				Email:     fields.Email,
			},
			Error: userMessage(err),
		})
		return
	}
	h.setFlash(c, flashSuccess, "User updated.")
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) deletePage(c *gin.Context) {
	id, ok := h.pageUserID(c)
	if !ok {
		return
	}

	user, err := h.users.EditForm(c.Request.Context(), scopeOf(c), id)
	switch {
	case errors.Is(err, service.ErrUserDeleted):
		h.setFlash(c, flashError, userMessage(err))
		c.Redirect(http.StatusSeeOther, "/users")
		return
	case err != nil:
		// The confirmation still works without the name.
		user = domain.User{ID: id}
	}
	c.HTML(http.StatusOK, "delete.html", deleteView{User: user})
}

func (h *Handler) deleteSubmit(c *gin.Context) {
	id, ok := h.pageUserID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		h.logFailure(c, "delete user", err)
		h.setFlash(c, flashError, userMessage(err))
		c.Redirect(http.StatusSeeOther, "/users")
		return
	}
	h.setFlash(c, flashSuccess, "User deleted.")
	c.Redirect(http.StatusSeeOther, "/users")
}

func (h *Handler) resetSubmit(c *gin.Context) {
	if err := h.users.Reset(c.Request.Context(), scopeOf(c)); err != nil {
		h.logFailure(c, "reset", err)
		h.setFlash(c, flashError, userMessage(err))
	} else {
		h.setFlash(c, flashSuccess, "Local changes cleared.")
	}
	c.Redirect(http.StatusSeeOther, "/users")
}

// pageUserID parses :id, redirecting to the listing when it is not a
// positive integer.
func (h *Handler) pageUserID(c *gin.Context) (int64, bool) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		h.setFlash(c, flashError, userMessage(err))
		c.Redirect(http.StatusSeeOther, "/users")
		return 0, false
	}
	return id, true
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidUserID
	}
	return id, nil
}

func (h *Handler) logFailure(c *gin.Context, op string, err error) {
	entry := h.logger.WithFields(logrus.Fields{"scope": scopeOf(c), "op": op})
	var rejected *directory.RejectedError
	switch {
	case errors.As(err, &rejected), errors.Is(err, directory.ErrNetwork):
		entry.Warn(err)
	case statusFor(err) < http.StatusInternalServerError:
		entry.Info(err)
	default:
		entry.Error(err)
	}
}
