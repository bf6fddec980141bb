// apps/go-server/main.go
//
// Entry point for the forge server.
// Startup order: config → logging → catalog → database → HTTP.
// Shutdown: SIGINT/SIGTERM stops the listener (bounded by SHUTDOWN_TIMEOUT),
// the room sweeper and every room clock, then closes live rooms so their
// journals are flushed.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/forgerush/apps/go-server/internal/catalog"
	"github.com/robalobadob/forgerush/apps/go-server/internal/config"
	"github.com/robalobadob/forgerush/apps/go-server/internal/httpserver"
	"github.com/robalobadob/forgerush/apps/go-server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogFile, catalog.Options{FitPatterns: cfg.FitPatterns})
	if err != nil {
		return err
	}
	log.Info().
		Str("source", cat.Source).
		Str("digest", cat.Digest).
		Int("materials", cat.Materials.Len()).
		Int("recipes", cat.Recipes.Len()).
		Int("warnings", len(cat.Warnings)).
		Msg("catalog loaded")

	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rooms := store.NewMemoryStore()
	srv := httpserver.New(ctx, httpserver.Deps{Config: cfg, Catalog: cat, Rooms: rooms, DB: db})
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Bool("serverClock", cfg.ServerClock()).Msg("starting go-server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		store.RunSweeper(gctx, rooms, cfg.RoomTTL)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return hs.Shutdown(sctx)
	})

	err = g.Wait()
	// Everything counts as idle now; closing flushes journals.
	closed := rooms.Sweep(context.Background(), time.Now().Add(time.Hour))
	log.Info().Int("rooms", len(closed)).Msg("rooms closed")
	return err
}
