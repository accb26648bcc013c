// Package httpapi is the HTTP surface of streamhub: the public catalog,
// account endpoints, watch history and the admin back office.
package httpapi

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"streamhub/internal/auth"
	"streamhub/internal/catalog"
	"streamhub/internal/history"
	"streamhub/internal/logger"
	"streamhub/internal/metrics"
	"streamhub/internal/upload"
	"streamhub/internal/websocket"
)

type Deps struct {
	Auth        *auth.Service
	UserTokens  *auth.Signer
	AdminTokens *auth.Signer
	Query       *catalog.QueryService
	Admin       *catalog.AdminService
	Tracker     *history.Tracker
	Uploads     *upload.Store
	Hub         *websocket.Hub
	Notifier    catalog.Notifier

	PublicDir          string
	LoginRatePerMinute int
}

type api struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	a := &api{Deps: d}

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), requestLogger(), metrics.GinMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics", upload.URLPrefix})))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if d.Hub != nil {
		r.GET("/ws", websocket.Handler(d.Hub))
	}
	if d.Uploads != nil {
		r.Static(upload.URLPrefix, d.Uploads.Dir())
	}

	v1 := r.Group("/api")

	authGroup := v1.Group("/auth", rateLimit(d.LoginRatePerMinute))
	authGroup.POST("/register", a.register)
	authGroup.POST("/login", a.login)
	authGroup.POST("/admin/login", a.adminLogin)

	v1.GET("/categories", a.listCategories)
	v1.GET("/shows", a.listShows)
	v1.GET("/shows/:id", a.getShow)
	v1.GET("/shows/:id/episodes", a.listEpisodes)
	v1.GET("/episodes/:id", a.getEpisode)
	v1.GET("/search", a.search)
	v1.GET("/slides", a.listSlides)

	user := v1.Group("/history", auth.RequireUser(d.UserTokens))
	user.GET("", a.listHistory)
	user.GET("/shows/:id", a.showProgress)
	user.POST("/update", a.updateProgress)

	admin := v1.Group("/admin", auth.RequireAdmin(d.AdminTokens))
	if d.Uploads != nil {
		admin.Use(a.discardFailedUploads())
	}
	admin.GET("/analytics", a.analytics)
	admin.GET("/logs", a.logs)
	admin.POST("/notify", a.notify)

	admin.POST("/categories", a.createCategory)
	admin.PUT("/categories/:id", a.updateCategory)
	admin.DELETE("/categories/:id", a.deleteCategory)

	admin.GET("/shows", a.adminListShows)
	admin.POST("/shows", a.createShow)
	admin.PUT("/shows/:id", a.updateShow)
	admin.DELETE("/shows/:id", a.deleteShow)
	admin.GET("/shows/:id/episodes", a.adminListEpisodes)

	admin.POST("/episodes", a.createEpisode)
	admin.GET("/episodes/:id", a.adminGetEpisode)
	admin.PUT("/episodes/:id", a.updateEpisode)
	admin.DELETE("/episodes/:id", a.deleteEpisode)

	admin.GET("/slides", a.adminListSlides)
	admin.GET("/slides/:id", a.adminGetSlide)
	admin.POST("/slides", a.createSlide)
	admin.PUT("/slides/:id", a.updateSlide)
	admin.DELETE("/slides/:id", a.deleteSlide)

	r.NoRoute(a.noRoute())
	return r
}

// noRoute serves the public directory, if any, for non-API paths.
func (a *api) noRoute() gin.HandlerFunc {
	var files http.Handler
	if a.PublicDir != "" {
		if st, err := os.Stat(a.PublicDir); err == nil && st.IsDir() {
			files = http.FileServer(http.Dir(a.PublicDir))
		} else {
			logger.Warningf("public dir %s not usable, static files disabled", a.PublicDir)
		}
	}
	return func(c *gin.Context) {
		if files == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		msg := "%s %s %d %s %s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond), c.ClientIP()}
		if status >= http.StatusInternalServerError {
			logger.Warningf(msg, args...)
		} else {
			logger.Debugf(msg, args...)
		}
	}
}
