package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"exposureserver/internal/config"
	"exposureserver/internal/logger"
	"exposureserver/internal/repository"
	"exposureserver/internal/repository/file"
	"exposureserver/internal/repository/sqlite"
	"exposureserver/internal/route"
	"exposureserver/internal/service"
	"exposureserver/internal/service/ai"
	"exposureserver/internal/service/feedback"
	"exposureserver/internal/service/storage"
	"exposureserver/internal/service/websocket"
)

type App struct {
	config         *config.Config
	logger         *logger.Logger
	feedbackStore  *feedback.Store
	sessions       *service.SessionStore
	authTokens     *service.AuthTokens
	labelerService *ai.LabelerService
	bufferService  *storage.BufferService
	hubService     *websocket.HubService
	manager        *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	repo, err := newLedgerRepository(cfg)
	if err != nil {
		return nil, err
	}
	store := feedback.NewStore(repo, cfg.DefaultISO, log)

	var labeler service.SceneLabeler
	var labelerService *ai.LabelerService
	if cfg.LabelingEnabled {
		labelerService = ai.NewLabelerService(cfg, log)
		if labelerService.Available() {
			labeler = labelerService
		}
	}

	sessions := service.NewSessionStore()
	tokens := service.NewAuthTokens(service.DefaultLoginTTL)
	buffer := storage.NewBufferService(cfg, log)
	hub := websocket.NewHubService(log)
	mng := service.NewManager(cfg, store, sessions, labeler, buffer, hub, log)

	return &App{
		config:         cfg,
		logger:         log,
		feedbackStore:  store,
		sessions:       sessions,
		authTokens:     tokens,
		labelerService: labelerService,
		bufferService:  buffer,
		hubService:     hub,
		manager:        mng,
	}, nil
}

// newLedgerRepository opens the configured feedback ledger backend.
func newLedgerRepository(cfg *config.Config) (repository.LedgerRepository, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendFile:
		return file.NewLedgerRepository(cfg.LedgerPath), nil
	case config.LedgerBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return sqlite.NewFeedbackRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.bufferService.Run(ctx)
	go a.hubService.Run(ctx)
	ttl := time.Duration(a.config.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	go a.sessions.Run(ctx, ttl, time.Minute)
	go a.authTokens.Run(ctx, time.Hour)

	router := route.SetupRoutes(a.manager, a.authTokens, a.config, a.logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 Exposure Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🔑 Auth: %v\n", a.config.AuthEnabled())
	fmt.Printf("📒 Ledger: %s\n", a.config.LedgerBackend)
	fmt.Printf("📁 Annotated images: %s\n", a.config.ImageDirectory)
	if a.labelerService != nil {
		fmt.Printf("🤖 AI Model: %s\n", a.config.ModelPath)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *App) close() {
	if err := a.feedbackStore.Close(); err != nil {
		a.logger.Error("Error closing feedback ledger: %v", err)
	}
	if a.labelerService != nil {
		a.labelerService.Close()
	}
}
