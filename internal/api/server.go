// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"talent-intake/internal/common/logger"
	"talent-intake/internal/dashboard"
	"talent-intake/internal/intake"
	"talent-intake/internal/models"
	"talent-intake/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionService is the session half of the data-access layer.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SignOut(ctx context.Context, id string) error
	ApplyRoleChange(ctx context.Context, userID string, role models.UserRole) (int, error)
	OnSessionChange(fn func(models.SessionEvent)) func()
}

// RecordReader serves single-record reads and user management.
type RecordReader interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	UpdateProfileRole(ctx context.Context, id string, role models.UserRole, actorID string) (*models.Profile, error)
}

// CVSigner hands out time-limited CV links.
type CVSigner interface {
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// Searcher returns application ids matching free text, best match first.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) ([]string, error)
}

type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	CVBucket       string
	SignedURLTTL   time.Duration
	MaxCVBytes     int64
	SpreadsheetID  string
	SheetRange     string
}

// Deps are the collaborators of the HTTP surface. Search and Sheets are optional.
type Deps struct {
	Intake   *intake.Service
	Board    *dashboard.Board
	Sessions SessionService
	Records  RecordReader
	CVs      CVSigner
	Search   Searcher
	Sheets   dashboard.SheetWriter
	Ready    func(ctx context.Context) error
}

// Server holds the handlers of the HTTP API.
type Server struct {
	config Config
	deps   Deps
	logger logger.Logger
}

func NewServer(cfg Config, deps Deps, log logger.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = time.Hour
	}
	if cfg.CVBucket == "" {
		cfg.CVBucket = "cvs"
	}
	if cfg.MaxCVBytes <= 0 {
		cfg.MaxCVBytes = 10 << 20
	}
	if cfg.SheetRange == "" {
		cfg.SheetRange = "Applications!A1"
	}
	return &Server{
		config: cfg,
		deps:   deps,
		logger: logger.ForComponent(log, "api"),
	}
}

// Handler builds the gin engine with every route.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), observeRequest())

	corsConfig := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.AllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", s.withTimeout(), s.loadSession())
	{
		v1.GET("/catalog", s.catalog)
		v1.GET("/view", s.resolveView)
		v1.GET("/view/changes", requireSession(), s.watchView)
		v1.GET("/public/applications/:id", s.publicProfile)

		auth := v1.Group("/auth")
		auth.POST("/login", s.login)
		auth.POST("/logout", requireSession(), s.logout)
		auth.GET("/session", requireSession(), s.currentSession)

		forms := v1.Group("/forms")
		forms.POST("", s.startForm)
		forms.GET("/:id", s.getForm)
		forms.PATCH("/:id", s.updateForm)
		forms.POST("/:id/next", s.nextStep)
		forms.POST("/:id/prev", s.prevStep)
		forms.POST("/:id/skills", s.toggleSkill)
		forms.POST("/:id/cv", s.attachCV)
		forms.POST("/:id/submit", s.submitForm)
		forms.POST("/:id/reset", s.resetForm)

		apps := v1.Group("/applications", requireSession(), requireCapability(router.CapViewDashboard))
		apps.GET("", s.listApplications)
		apps.GET("/stats", s.applicationStats)
		apps.GET("/search", s.searchApplications)
		apps.GET("/:id", s.getApplication)
		apps.GET("/:id/cv", requireCapability(router.CapViewCV), s.applicationCV)
		apps.PUT("/:id/rating", requireCapability(router.CapRate), s.rateApplication)
		apps.POST("/status", requireCapability(router.CapChangeStatus), s.bulkStatus)
		apps.POST("/export", requireCapability(router.CapExport), s.exportApplications)

		profiles := v1.Group("/profiles", requireSession(), requireCapability(router.CapManageUsers))
		profiles.GET("", s.listProfiles)
		profiles.PUT("/:id/role", s.updateProfileRole)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewCatalog())
}
