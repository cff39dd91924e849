package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	slogctx "github.com/veqryn/slog-context"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/config"
	apphttp "github.com/sopatech/hiddengems/internal/http"
	"github.com/sopatech/hiddengems/internal/infra"
	"github.com/sopatech/hiddengems/internal/metrics"
	"github.com/sopatech/hiddengems/internal/music"
	"github.com/sopatech/hiddengems/internal/session"
	"github.com/sopatech/hiddengems/internal/spotify"
)

func main() {
	// --- Logger and config ---
	logger := slog.New(slogctx.NewHandler(slog.NewJSONHandler(os.Stdout, nil), nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}
	config.LogConfigVars(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Session backend ---
	backend, closeBackend, err := session.Open(ctx, cfg.SessionBackendConfig())
	if err != nil {
		logger.Error("session backend init", "backend", cfg.SessionBackend, "err", err)
		os.Exit(1)
	}
	defer closeBackend()

	// --- Metrics ---
	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("register metrics", "err", err)
		os.Exit(1)
	}

	// --- Auth: exchanger, handler ---
	provider := cfg.Provider()
	exchanger := auth.NewExchanger(provider, infra.NewAPIClient(provider.TokenEndpoint, nil), recorder)
	authHandler := auth.NewHandler(provider, exchanger, backend, cfg.SessionTTL)

	// --- Music: Spotify client, service, handler ---
	spotifyClient := spotify.NewHTTPClient(infra.NewAPIClient(cfg.APIURL, nil), recorder)
	musicHandler := music.NewHandler(music.NewService(spotifyClient), spotifyClient)

	// --- Router and HTTP server ---
	r := apphttp.NewRouter(logger, authHandler, musicHandler, metrics.Handler(), apphttp.RouterConfig{
		Cookie:         cfg.Cookie(),
		AllowedOrigins: cfg.AllowedOrigins,
		StaticDir:      cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
