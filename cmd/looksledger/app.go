package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/looksia/looksledger/internal/db"
	"github.com/looksia/looksledger/internal/handlers"
	"github.com/looksia/looksledger/internal/logger"
	"github.com/looksia/looksledger/internal/repository/postgres"
	"github.com/looksia/looksledger/internal/service/analysis"
	"github.com/looksia/looksledger/internal/service/auth"
	"github.com/looksia/looksledger/internal/service/auth/tokenmanager"
	"github.com/looksia/looksledger/internal/service/credits"
	"github.com/looksia/looksledger/internal/service/purchase"
	"github.com/looksia/looksledger/internal/service/reward"
	"github.com/looksia/looksledger/internal/service/scorer"
	"github.com/looksia/looksledger/internal/service/spin"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	rewardEngine, err := reward.New(reward.DefaultTable(), nil)
	if err != nil {
		return nil, fmt.Errorf("error while creating reward engine. Err: %w", err)
	}

	scorerClient := scorer.NewClient(c.ScorerAddr, c.ScorerAPIKey, c.ScorerTimeout, log)

	creditsService := credits.NewService(storage)
	spinService := spin.NewService(storage, rewardEngine)
	analysisService := analysis.NewService(storage, scorerClient, log)
	purchaseService := purchase.NewService(storage)

	mux := handlers.NewRouter(
		authService,
		creditsService,
		spinService,
		analysisService,
		purchaseService,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
