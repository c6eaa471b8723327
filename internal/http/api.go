package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"user-console/internal/domain"
	"user-console/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type restoreRequest struct {
	Key string `json:"key" binding:"required"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
}

type ListResponse struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	HasPrev    bool           `json:"has_prev"`
	HasNext    bool           `json:"has_next"`
	Data       []UserResponse `json:"data"`
	Error      string         `json:"error,omitempty"`
}

type SnapshotResponse struct {
	Key       string  `json:"key"`
	Size      int64   `json:"size"`
	CreatedAt *string `json:"created_at,omitempty"`
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.logFailure(c, op, err)
	c.JSON(statusFor(err), gin.H{"error": userMessage(err)})
}

func (h *Handler) apiLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessions.Login(c.Request.Context(), scopeOf(c), req.Email, req.Password); err != nil {
		h.logFailure(c, "login", err)
		c.JSON(loginStatus(err), gin.H{"error": userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

func (h *Handler) apiLogout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), scopeOf(c)); err != nil {
		h.fail(c, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) apiForget(c *gin.Context) {
	if err := h.sessions.Forget(c.Request.Context(), scopeOf(c)); err != nil {
		h.fail(c, "forget session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) apiListUsers(c *gin.Context) {
	opts := service.ListOptions{}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		opts.Page = n
	}
	opts.Force, _ = strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	listing, err := h.users.List(c.Request.Context(), scopeOf(c), opts)
	if err != nil {
		h.fail(c, "list users", err)
		return
	}

	resp := ListResponse{
		Page:       listing.Page,
		TotalPages: listing.TotalPages,
		HasPrev:    listing.HasPrev,
		HasNext:    listing.HasNext,
		Data:       make([]UserResponse, len(listing.Users)),
	}
	for i := range listing.Users {
		resp.Data[i] = userToResponse(listing.Users[i])
	}
	if listing.FetchErr != nil {
		h.logFailure(c, "fetch users", listing.FetchErr)
		resp.Error = userMessage(listing.FetchErr)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) apiGetUser(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		h.fail(c, "get user", err)
		return
	}
	user, err := h.users.EditForm(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		h.fail(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) apiUpdateUser(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		h.fail(c, "update user", err)
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := domain.UserFields{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	if err := h.users.SubmitEdit(c.Request.Context(), scopeOf(c), id, fields); err != nil {
		h.fail(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

func (h *Handler) apiDeleteUser(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		h.fail(c, "delete user", err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		h.fail(c, "delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) apiReset(c *gin.Context) {
	if err := h.users.Reset(c.Request.Context(), scopeOf(c)); err != nil {
		h.fail(c, "reset", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) apiListSnapshots(c *gin.Context) {
	snapshots, err := h.snapshots.List(c.Request.Context(), scopeOf(c))
	if err != nil {
		h.fail(c, "list snapshots", err)
		return
	}
	resp := make([]SnapshotResponse, len(snapshots))
	for i := range snapshots {
		resp[i] = snapshotToResponse(snapshots[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) apiExportSnapshot(c *gin.Context) {
	key, err := h.snapshots.Export(c.Request.Context(), scopeOf(c))
	if err != nil {
		h.fail(c, "export snapshot", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h *Handler) apiRestoreSnapshot(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.snapshots.Restore(c.Request.Context(), scopeOf(c), req.Key); err != nil {
		h.fail(c, "restore snapshot", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": req.Key})
}

func (h *Handler) apiPurgeSnapshots(c *gin.Context) {
	if err := h.snapshots.Purge(c.Request.Context(), scopeOf(c)); err != nil {
		h.fail(c, "purge snapshots", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
	}
}

func snapshotToResponse(s service.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Key:  s.Key,
		Size: s.Size,
	}
	if s.CreatedAt != nil && !s.CreatedAt.IsZero() {
		v := s.CreatedAt.Format(time.RFC3339)
		resp.CreatedAt = &v
	}
	return resp
}
