package http

import (
	"github.com/gin-gonic/gin"

	"github.com/akarpovich/deckport/internal/database"
	"github.com/akarpovich/deckport/internal/importer"
	"github.com/akarpovich/deckport/internal/tasks"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Importer       tasks.ArchiveImporter
	Sessions       SessionStore
	SessionReader  SessionReader
	TaskClient     *tasks.Client
	ImportDefaults importer.Options
	MaxUploadBytes int64
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.TaskClient != nil, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group("/api")

	if cfg.Importer != nil {
		importController := NewApkgImportController(cfg.Importer, cfg.Sessions, cfg.TaskClient, cfg.ImportDefaults, cfg.MaxUploadBytes)
		api.POST("/import/apkg", importController.Import)
		api.POST("/import/apkg/async", importController.ImportAsync)
	}

	if cfg.SessionReader != nil {
		sessionsController := NewSessionsController(cfg.SessionReader)
		api.GET("/import/sessions", sessionsController.List)
		api.GET("/import/sessions/:id", sessionsController.Get)
	}

	return router
}
