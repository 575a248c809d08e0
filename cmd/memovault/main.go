package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/cfarrelly/memovault/internal/analytics"
	"github.com/cfarrelly/memovault/internal/config"
	"github.com/cfarrelly/memovault/internal/importer"
	"github.com/cfarrelly/memovault/internal/review"
	"github.com/cfarrelly/memovault/internal/storage"
	"github.com/cfarrelly/memovault/internal/vault"
	"github.com/cfarrelly/memovault/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "memovault:", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.Default()

	flags := pflag.NewFlagSet("memovault", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to a YAML config file")
	flags.String("db_path", defaults.DBPath, "Path to the SQLite database file")
	flags.String("listen", defaults.Listen, "Address the web server listens on")
	flags.String("repos_dir", defaults.ReposDir, "Directory git sources are cloned into")
	flags.Int("page_size", defaults.PageSize, "Maximum cards loaded into a review session")
	flags.String("log_level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	addSource := flags.String("add-source", "", "Register a local directory or git URL as a source and exit")
	syncOnly := flags.Bool("sync", false, "Import from all sources and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	db.DuePageSize = cfg.PageSize
	slog.Info("database open", "path", cfg.DBPath)

	generator := review.NewGenerator(db)
	imp := importer.New(db, generator, cfg.ReposDir)

	if *addSource != "" {
		source, err := imp.AddSource(*addSource)
		if err != nil {
			return fmt.Errorf("adding source: %w", err)
		}
		slog.Info("source registered", "path", source.Path, "kind", source.Kind)
	}
	if *syncOnly || *addSource != "" {
		if err := imp.Run(); err != nil {
			return fmt.Errorf("importing: %w", err)
		}
		return nil
	}

	session := review.NewSession(db)
	vaultSvc := vault.NewService(db, generator)
	analyticsSvc := analytics.NewService(db)

	server := web.NewServer(db, vaultSvc, session, analyticsSvc, imp)
	slog.Info("listening", "addr", cfg.Listen)
	return http.ListenAndServe(cfg.Listen, server)
}
