package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/openchami/fleet-parity/internal/api"
	"github.com/openchami/fleet-parity/internal/config"
	fleet_middleware "github.com/openchami/fleet-parity/pkg/middleware"
	"github.com/rs/zerolog/log"
)

func runServe(args []string, stderr io.Writer) error {
	flags := newCommonFlags("serve", stderr)
	listen := flags.fs.String("listen", "", "address to listen on")
	if err := flags.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	if flags.fs.Changed("listen") {
		cfg.Server.Listen = *listen
	}
	if err := setupLogging(cfg.Logging, stderr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(cfg, true)
	if err != nil {
		return err
	}
	j, err := openJournal(cfg)
	if err != nil {
		store.close(context.Background(), true)
		return err
	}
	if j != nil {
		j.StartPeriodicFlush()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if j != nil {
			if err := j.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Error stopping journal")
			}
		}
		store.close(shutdownCtx, true)
	}()

	p := &pipeline{cfg: cfg, storage: store, journal: j}
	export, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("initial run: %w", err)
	}
	state := api.NewState(export)

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           newRouter(cfg, store, state, p),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Msg("Serving fleet API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down fleet API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func newRouter(cfg *config.Config, store *hostStore, state *api.State, runner api.Runner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(fleet_middleware.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)

	var authMiddlewares []func(http.Handler) http.Handler
	if cfg.Server.JWTSecret != "" {
		tokenAuth := jwtauth.New("HS256", []byte(cfg.Server.JWTSecret), nil)
		authMiddlewares = append(authMiddlewares,
			jwtauth.Verifier(tokenAuth),
			fleet_middleware.RequireClaims(tokenAuth, cfg.Server.RequiredClaims))
	} else {
		log.Warn().Msg("No server.jwt_secret configured, POST /refresh is unauthenticated")
	}

	r.Mount("/", api.Routes(store, state, runner, authMiddlewares))

	chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		log.Debug().Str("method", method).Str("route", route).Int("middlewares", len(middlewares)).Msg("Route")
		return nil
	})
	return r
}
