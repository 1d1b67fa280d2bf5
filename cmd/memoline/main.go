package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/memoline/memoline/internal/config"
	"github.com/memoline/memoline/internal/importer"
	"github.com/memoline/memoline/internal/report"
	"github.com/memoline/memoline/internal/repository"
	"github.com/memoline/memoline/internal/storage"
	"github.com/memoline/memoline/internal/web"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("parsing flags failed", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("loading config failed", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	db, err := storage.Open(cfg.DB)
	if err != nil {
		logger.Error("opening database failed", "db", cfg.DB, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database opened", "db", cfg.DB)

	repo := repository.New(db)

	if len(cfg.Sources) > 0 {
		im := importer.New(repo, cfg.ReposDir)
		if err := im.EnsureReposDir(); err != nil {
			logger.Error("creating repos directory failed", "dir", cfg.ReposDir, "error", err)
			os.Exit(1)
		}
		if err := im.Run(cfg.Sources); err != nil {
			logger.Error("import failed", "error", err)
			os.Exit(1)
		}
	}
	if cfg.ImportOnly {
		return
	}

	server := web.NewServer(repo, report.New(repo), logger)
	logger.Info("serving", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
