package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"user-console/internal/service"
)

// Options carries presentation settings.
type Options struct {
	SessionSecret []byte
	SessionTTL    time.Duration
	SecureCookies bool
	// DemoEmail and DemoPassword pre-fill the login form.
	DemoEmail    string
	DemoPassword string
}

// Handler wires HTTP routes to the console services.
type Handler struct {
	sessions  service.SessionService
	users     service.UserService
	snapshots service.SnapshotService
	logger    *logrus.Logger
	tracer    trace.Tracer
	opts      Options
}

func NewHandler(sessions service.SessionService, users service.UserService, snapshots service.SnapshotService, logger *logrus.Logger, opts Options) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	return &Handler{
		sessions:  sessions,
		users:     users,
		snapshots: snapshots,
		logger:    logger,
		tracer:    otel.Tracer("user-console/internal/http"),
		opts:      opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplates)
	router.Use(corsMiddleware(), requestLogger(h.logger, h.tracer), h.sessionMiddleware())

	router.GET("/", h.loginPage)
	router.POST("/login", h.loginSubmit)
	router.POST("/logout", h.logoutSubmit)

	pages := router.Group("/", h.requireLogin(false))
	{
		pages.GET("/users", h.usersPage)
		pages.POST("/users/next", h.usersNext)
		pages.POST("/users/prev", h.usersPrev)
		pages.POST("/users/refresh", h.usersRefresh)
		pages.GET("/edit/:id", h.editPage)
		pages.POST("/edit/:id", h.editSubmit)
		pages.GET("/delete/:id", h.deletePage)
		pages.POST("/delete/:id", h.deleteSubmit)
		pages.POST("/reset", h.resetSubmit)
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/login", h.apiLogin)
		api.POST("/logout", h.apiLogout)
		api.DELETE("/session", h.apiForget)
	}

	authed := api.Group("", h.requireLogin(true))
	{
		authed.GET("/users", h.apiListUsers)
		authed.GET("/users/:id", h.apiGetUser)
		authed.PUT("/users/:id", h.apiUpdateUser)
		authed.DELETE("/users/:id", h.apiDeleteUser)
		authed.POST("/reset", h.apiReset)
		authed.GET("/snapshots", h.apiListSnapshots)
		authed.POST("/snapshots", h.apiExportSnapshot)
		authed.DELETE("/snapshots", h.apiPurgeSnapshots)
		authed.POST("/snapshots/restore", h.apiRestoreSnapshot)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger opens a server span for the request and logs it once the
// handlers are done.
func requestLogger(logger *logrus.Logger, tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if sc := span.SpanContext(); sc.IsValid() {
			entry = entry.WithField("trace_id", sc.TraceID().String())
		}
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request")
	}
}
