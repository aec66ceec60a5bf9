package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/kamleshbaheti/Smart-Interview/internal/adapters/http"
	wssignal "github.com/kamleshbaheti/Smart-Interview/internal/adapters/signal"
	"github.com/kamleshbaheti/Smart-Interview/internal/app"
	"github.com/kamleshbaheti/Smart-Interview/internal/config"
	"github.com/kamleshbaheti/Smart-Interview/internal/detect"
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
	"github.com/kamleshbaheti/Smart-Interview/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to create upload dir")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open store")
	}
	defer st.Close()

	var detector detect.Detector
	if cfg.DetectorURL != "" {
		detector = detect.NewHTTPDetector(cfg.DetectorURL)
		log.Info().Str("url", cfg.DetectorURL).Msg("frame analysis enabled")
	} else {
		detector = detect.Disabled()
		log.Warn().Msg("no detector_url configured, frame analysis disabled")
	}

	rooms := hub.New()
	registry := app.NewRegistry(st)
	pipeline := app.NewPipeline(registry, st, rooms)
	relay := app.NewRelay(rooms)
	gateway := app.NewGateway(pipeline, detector, cfg.DetectTimeout)

	handlers := &router.Handlers{
		Registry:  registry,
		Pipeline:  pipeline,
		Gateway:   gateway,
		Store:     st,
		UploadDir: cfg.UploadDir,
	}
	ws := wssignal.NewController(rooms, pipeline, relay, gateway, cfg.ReadLimit)

	r := router.SetupRouter(ctx, cfg, handlers, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("proctoring server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
