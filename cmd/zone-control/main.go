package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zone_control/internal/handlers"
	"zone_control/internal/hold"
	"zone_control/internal/logger"
	"zone_control/internal/metasync"
	"zone_control/internal/pes"
	"zone_control/internal/repository"
	"zone_control/internal/repository/db"
	"zone_control/internal/restore"
	"zone_control/internal/server"

	"github.com/spf13/viper"
)

const defaultRestoreTick = 1 * time.Minute

func main() {
	// init logger before config so config errors are reported properly
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	store := repository.NewStore(database)
	client := pes.NewClient(viper.GetString("pes.base_url"), viper.GetDuration("pes.timeout"))
	holds := hold.NewManager(store)
	engine := metasync.NewEngine(store, client, holds, log, viper.GetInt("sync.workers"))
	restorer := restore.NewRestorer(store, holds, client, log)
	apiHandler := handlers.NewHandler(engine, holds, store, client, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// periodic hold-restoration sweep
	go restorer.Run(ctx, restoreTick())

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func restoreTick() time.Duration {
	if d := viper.GetDuration("restore.tick"); d > 0 {
		return d
	}
	return defaultRestoreTick
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "zone_control.db")
		dbPath = "zone_control.db"
	}
	return db.InitDB(dbPath)
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

	// stop the restorer sweep
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
