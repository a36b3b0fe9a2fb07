// Command photo-proxy serves a paginated photo feed with favorites over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Sternrassler/photo-fetcher/pkg/config"
	"github.com/Sternrassler/photo-fetcher/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *configPath)
	stop()
	if err != nil {
		logger := logging.NewLogger("photo-proxy")
		logger.Fatal().Err(err).Msg("Photo proxy failed")
	}
}

// run loads the configuration and serves until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = cfg.Log.Pretty
	logCfg.Service = "photo-proxy"
	logging.Setup(logCfg)
	logger := logging.NewLogger("photo-proxy")

	b, err := openBackends(ctx, cfg.Store, cfg.API.PageSize)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	a, err := newApp(ctx, cfg, b, logger)
	if err != nil {
		return fmt.Errorf("create photo fetcher: %w", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: newRouter(a),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("base_url", cfg.API.BaseURL).
		Str("store", cfg.Store.Driver).
		Int("page_size", cfg.API.PageSize).
		Msg("Starting photo proxy")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
