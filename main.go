package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/landbid/auth"
	"github.com/danielhkuo/landbid/broadcast"
	"github.com/danielhkuo/landbid/cliparse"
	"github.com/danielhkuo/landbid/db"
	"github.com/danielhkuo/landbid/engine"
	"github.com/danielhkuo/landbid/metrics"
	"github.com/danielhkuo/landbid/middleware"
	"github.com/danielhkuo/landbid/router"
	"github.com/danielhkuo/landbid/seed"
	"github.com/danielhkuo/landbid/store"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	st := store.New(dbConn)

	// Seed an empty database from the catalog
	if cfg.CatalogPath != "" {
		cat, err := seed.Load(cfg.CatalogPath)
		if err != nil {
			slog.Error("catalog load failed", "error", err)
			os.Exit(1)
		}
		if _, err := seed.Bootstrap(ctx, st, cat, cfg.PasscodeSalt); err != nil {
			slog.Error("catalog seed failed", "error", err)
			os.Exit(1)
		}
	}

	verifier, err := auth.NewAdminVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		slog.Error("admin password setup failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	hub := broadcast.NewHub(cfg.SubscriberBuffer, cfg.ReconnectGrace, m)

	eng, err := engine.New(ctx, st, hub, engine.Options{SellCountdown: cfg.SellCountdown, Metrics: m})
	if err != nil {
		slog.Error("auction recovery failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(eng, hub, verifier, m, cfg)

	// Create server
	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Wait for Ctrl-C or a failed sibling
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}

func newLogger(cfg cliparse.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
