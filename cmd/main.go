package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "snapgram/docs"
	"snapgram/internal/handlers"
	"snapgram/internal/logger"
	"snapgram/internal/repository"
	"snapgram/internal/repository/db"
	"snapgram/internal/server"
	"snapgram/internal/service"

	"github.com/spf13/viper"
)

const defaultSigningKey = "dev-only-signing-key"

func main() {
	// config first so the logger level can come from it
	cfgErr := loadConfig()

	log := logger.Get(logLevel())
	defer logger.Sync()

	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, signingKey(), log)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the expiry reaper: one eager pass, then fixed-interval passes
	go services.Reaper.Run(ctx, reapInterval())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "snapgram.db")
		dbPath = "snapgram.db"
	}
	return db.InitDB(dbPath)
}

// logLevel reads the configured level, defaulting to info.
func logLevel() string {
	if l := viper.GetString("log.level"); l != "" {
		return l
	}
	return logger.InfoLevel
}

// signingKey reads the JWT signing key, falling back to a dev default.
func signingKey() string {
	if k := viper.GetString("auth.signing_key"); k != "" {
		return k
	}
	return defaultSigningKey
}

// reapInterval reads the cleanup cadence; it only bounds how long an expired
// snap can outlive its TTL, so a missing value just uses the default.
func reapInterval() time.Duration {
	if d := viper.GetDuration("reaper.interval"); d > 0 {
		return d
	}
	return service.DefaultReapInterval
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines (reaper included; an in-flight pass is
	// undone by transaction rollback if the process exits mid-way)
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
