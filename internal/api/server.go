package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/scholarhub/internal/auth"
	"github.com/david/scholarhub/internal/db"
	"github.com/david/scholarhub/internal/deadline"
	"github.com/david/scholarhub/internal/ingest"
	"github.com/david/scholarhub/internal/mail"
	"github.com/david/scholarhub/internal/models"
)

// Store is the persistence the handlers need. *db.Store implements it.
type Store interface {
	ListOpportunities(ctx context.Context, f db.OpportunityFilter) ([]models.Opportunity, error)
	GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	CreateOpportunity(ctx context.Context, o models.Opportunity) (*models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id uuid.UUID, o models.Opportunity) (*models.Opportunity, error)
	SetOpportunityFlags(ctx context.Context, id uuid.UUID, f db.Flags) (*models.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id uuid.UUID) error
	OpportunityStats(ctx context.Context) ([]db.TypeStats, error)

	ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error)
	CreatePost(ctx context.Context, p models.Post) (*models.Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, p models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error

	ListVisaGuides(ctx context.Context) ([]models.VisaGuide, error)
	GetVisaGuideBySlug(ctx context.Context, slug string) (*models.VisaGuide, error)
	CreateVisaGuide(ctx context.Context, g models.VisaGuide) (*models.VisaGuide, error)
	UpdateVisaGuide(ctx context.Context, id uuid.UUID, g models.VisaGuide) (*models.VisaGuide, error)
	DeleteVisaGuide(ctx context.Context, id uuid.UUID) error

	ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error)
	CreateBanner(ctx context.Context, b models.Banner) (*models.Banner, error)
	UpdateBanner(ctx context.Context, id uuid.UUID, b models.Banner) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id uuid.UUID) error
	ReorderBanners(ctx context.Context, ids []uuid.UUID) error

	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	RecentImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
}

var _ Store = (*db.Store)(nil)

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder string, r io.Reader) (string, error)
}

// Importer runs admin-triggered imports.
type Importer interface {
	Import(ctx context.Context, sourceID string) (*ingest.Result, error)
	Sources() []ingest.SourceConfig
}

// Deps are the collaborators a Server is built from. Nil Auth, Uploader,
// Mailer or Importer disable the matching endpoints with 503.
type Deps struct {
	Store       Store
	Verifier    *auth.Verifier
	Auth        auth.Authenticator
	Uploader    Uploader
	Mailer      mail.Sender
	ContactTo   string
	Importer    Importer
	Classifier  *deadline.Classifier
	ListLimit   int
	CORSOrigins []string
	Logger      *slog.Logger
	// BootstrapTimeout bounds the admin role lookup; zero means auth.BootstrapTimeout.
	BootstrapTimeout time.Duration
}

type Server struct {
	Echo *echo.Echo

	store      Store
	verifier   *auth.Verifier
	auth       auth.Authenticator
	uploader   Uploader
	mailer     mail.Sender
	contactTo  string
	importer   Importer
	classifier *deadline.Classifier
	listLimit  int
	logger     *slog.Logger
	bootstrap  time.Duration

	// Background job tracking
	jobMu      sync.Mutex
	runningJob *backgroundJob
}

func NewServer(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = newRequestValidator()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	classifier := d.Classifier
	if classifier == nil {
		classifier = deadline.New(time.UTC)
	}
	limit := d.ListLimit
	if limit <= 0 {
		limit = db.DefaultListLimit
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bootstrap := d.BootstrapTimeout
	if bootstrap <= 0 {
		bootstrap = auth.BootstrapTimeout
	}

	s := &Server{
		Echo:       e,
		store:      d.Store,
		verifier:   d.Verifier,
		auth:       d.Auth,
		uploader:   d.Uploader,
		mailer:     d.Mailer,
		contactTo:  d.ContactTo,
		importer:   d.Importer,
		classifier: classifier,
		listLimit:  limit,
		logger:     logger,
		bootstrap:  bootstrap,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1", auth.Middleware(s.verifier))
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/featured", s.handleFeaturedOpportunities)
	api.GET("/opportunities/suggestions", s.handleSuggestions)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/posts", s.handleListPosts)
	api.GET("/posts/:slug", s.handleGetPost)
	api.GET("/visa-guides", s.handleListVisaGuides)
	api.GET("/visa-guides/:slug", s.handleGetVisaGuide)
	api.GET("/banners", s.handleListBanners)
	api.POST("/contact", s.handleContact)

	// Auth Routes
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/oauth/:provider", s.handleOAuth)
	api.GET("/auth/session", s.handleSession, auth.RequireSession)

	admin := api.Group("/admin", auth.RequireAdmin(s.store, s.bootstrap))
	admin.GET("/opportunities", s.handleAdminListOpportunities)
	admin.GET("/opportunities/stats", s.handleOpportunityStats)
	admin.GET("/opportunities/:id", s.handleAdminGetOpportunity)
	admin.POST("/opportunities", s.handleCreateOpportunity)
	admin.PUT("/opportunities/:id", s.handleUpdateOpportunity)
	admin.PATCH("/opportunities/:id/flags", s.handleSetOpportunityFlags)
	admin.DELETE("/opportunities/:id", s.handleDeleteOpportunity)

	admin.GET("/posts", s.handleAdminListPosts)
	admin.GET("/posts/:id", s.handleAdminGetPost)
	admin.POST("/posts", s.handleCreatePost)
	admin.PUT("/posts/:id", s.handleUpdatePost)
	admin.DELETE("/posts/:id", s.handleDeletePost)

	admin.POST("/visa-guides", s.handleCreateVisaGuide)
	admin.PUT("/visa-guides/:id", s.handleUpdateVisaGuide)
	admin.DELETE("/visa-guides/:id", s.handleDeleteVisaGuide)

	admin.GET("/banners", s.handleAdminListBanners)
	admin.POST("/banners", s.handleCreateBanner)
	admin.PUT("/banners/order", s.handleReorderBanners)
	admin.PUT("/banners/:id", s.handleUpdateBanner)
	admin.DELETE("/banners/:id", s.handleDeleteBanner)

	admin.POST("/uploads", s.handleUpload, middleware.BodyLimit("12M"))

	admin.GET("/import/sources", s.handleImportSources)
	admin.GET("/import/runs", s.handleImportRuns)
	admin.POST("/import/:source", s.handleImport)
	admin.GET("/job/:id", s.handleJobStatus)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Cancel != nil {
		s.runningJob.Cancel()
	}
	s.jobMu.Unlock()
	return s.Echo.Shutdown(ctx)
}
