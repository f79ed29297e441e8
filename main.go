package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/wfunc/cardserver/config"
	"github.com/wfunc/cardserver/logger"
	"github.com/wfunc/cardserver/monitor"
	"github.com/wfunc/cardserver/persistence"
	"github.com/wfunc/cardserver/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database (optional, stats are skipped without it)
	var db persistence.Database
	if cfg.Database.Enabled {
		switch cfg.Database.Driver {
		case "sql":
			db, err = persistence.NewPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		default:
			db, err = persistence.NewGormPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Log.Info("Database connection successful.")
	} else {
		logger.Log.Info("Database disabled, game stats will not be persisted.")
	}

	// Initialize monitor
	mon := monitor.NewMonitor("cardserver")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, db, mon)

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Log.Infof("Received signal %v, shutting down", sig)
		gameServer.Shutdown()
		os.Exit(0)
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
