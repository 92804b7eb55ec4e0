package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tasker/internal/config"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
	"tasker/internal/server"
	"tasker/internal/version"
)

func main() {
	// 0. Flags
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (default $"+constants.ConfigEnvVar+" or ~/"+constants.ConfigDir+"/"+constants.ConfigFile+")")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s %s\n", constants.AppDisplayName, version.Version)
		os.Exit(0)
	}

	// 1. Initialize logger at the default level until config is read
	log := logger.NewLogger(constants.DefaultLogLevel)
	log.Info("%s version %s starting", constants.AppDisplayName, version.Version)

	// 2. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.SetLevel(cfg.Log.Level)
	if cfg.Log.Dir != "" {
		if err := log.SetDir(cfg.Log.Dir); err != nil {
			log.Warn("Failed to enable file logging: %v", err)
		} else {
			log.Info("File logging enabled in %s", cfg.Log.Dir)
		}
	}
	defer log.Close()
	cfg.LogEffectiveValues(log)

	// 3. Open and migrate the database
	ctx := context.Background()
	if cfg.Database.Driver == constants.DriverSQLite {
		// The default SQLite file lives next to the config file.
		if err := config.EnsureConfigDir(); err != nil {
			log.Warn("Failed to create config directory: %v", err)
		}
	}
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, database.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		log.Error("DB: %v", err)
		os.Exit(1)
	}
	if cfg.Database.Migrate() {
		n, err := database.Migrate(ctx, db, cfg.Database.Driver)
		if err != nil {
			db.Close()
			log.Error("DB: migration failed: %v", err)
			os.Exit(1)
		}
		log.Info("DB: schema up to date (%d migration(s) applied)", n)
	}

	// 4. Wire the auth core and services
	app, err := server.NewApp(ctx, cfg, log, db)
	if err != nil {
		db.Close()
		log.Error("Failed to initialize application: %v", err)
		os.Exit(1)
	}

	// 5. Serve until SIGINT/SIGTERM
	srv, err := server.NewServer(app)
	if err != nil {
		app.Close()
		log.Error("Failed to create server: %v", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		log.Error("Server error: %v", err)
		os.Exit(1)
	}
}
