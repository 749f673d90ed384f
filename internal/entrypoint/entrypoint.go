package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akarpovich/deckport/internal/config"
	"github.com/akarpovich/deckport/internal/database"
	"github.com/akarpovich/deckport/internal/database/importedfiles"
	"github.com/akarpovich/deckport/internal/database/sessions"
	http_controllers "github.com/akarpovich/deckport/internal/http"
	"github.com/akarpovich/deckport/internal/importer"
	"github.com/akarpovich/deckport/internal/scheduler"
	"github.com/akarpovich/deckport/internal/tasks"
	"github.com/akarpovich/deckport/internal/vault"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down with
// the configured timeout. The shutdown callback runs before the server
// stops accepting connections so queue workers drain first.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole application and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Deckport v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var v vault.Vault
	if cfg.Vault.Dir != "" {
		dirVault, err := vault.NewDirVault(cfg.Vault.Dir)
		if err != nil {
			log.Fatalf("Vault directory %s is not usable: %v", cfg.Vault.Dir, err)
		}
		v = dirVault
		log.Printf("Vault directory %s is writable", cfg.Vault.Dir)
	} else {
		log.Printf("WARNING: vault directory not set, imports will skip media and notes. Set 'VAULT_DIR' to enable.")
	}

	buildCfg, importDefaults := importer.FromConfig(cfg.Import)
	orchestrator := importer.NewOrchestrator(database.NewStore(db), v, buildCfg, nil)
	sessionRepo := sessions.NewRepository(db.DB)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportArchiveQueue(orchestrator, sessionRepo, importDefaults),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Watch folder scheduler
	var watchScheduler *scheduler.WatchFolderScheduler
	if cfg.Watch.Enabled {
		ledger := importedfiles.NewRepository(db.DB)
		watchScheduler = scheduler.NewWatchFolderScheduler(cfg.Watch.Dir, cfg.Watch.Schedule, orchestrator, ledger, importDefaults)
		if err := watchScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start watch folder scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Version:        version,
		Importer:       orchestrator,
		Sessions:       sessionRepo,
		SessionReader:  sessionRepo,
		TaskClient:     taskClient,
		ImportDefaults: importDefaults,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	})

	Serve(router, cfg, func(ctx context.Context) {
		if watchScheduler != nil {
			watchScheduler.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			if taskCtxCancel != nil {
				taskCtxCancel()
			}
		}
	})
}
