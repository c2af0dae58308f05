package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/finmax/ledger/internal/api"
	"github.com/finmax/ledger/internal/config"
	"github.com/finmax/ledger/internal/db"
	"github.com/finmax/ledger/internal/engine"
	"github.com/finmax/ledger/internal/events"
	"github.com/finmax/ledger/internal/repository"
)

func main() {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	eng, err := engine.New(conn, logger, repository.Descriptors()...)
	if err != nil {
		logger.Fatal("failed to build write engine", zap.Error(err))
	}

	// Change events are optional: without a broker the ledger still records
	// everything, consumers just have to poll.
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Warn("change events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			eng.SetNotifier(publisher)
		}
	}

	server := api.NewServer(
		logger,
		eng,
		repository.NewUsers(eng, conn),
		repository.NewChanges(conn),
		repository.NewAccounts(eng),
		repository.NewMethods(eng),
		repository.NewCategories(eng),
		repository.NewPayees(eng),
		repository.NewSubscriptions(eng),
		repository.NewTransactions(eng),
		repository.NewIcons(eng),
	)

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      server.Router(cfg.HTTP.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
