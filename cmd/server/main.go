package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/agency-ops-api/internal/config"
	"github.com/yukikurage/agency-ops-api/internal/database"
	"github.com/yukikurage/agency-ops-api/internal/logging"
	"github.com/yukikurage/agency-ops-api/internal/server"
	"github.com/yukikurage/agency-ops-api/internal/services"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "agencyd",
	Short:        "Agency operations API server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date and exit",
	RunE:  runMigrate,
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize-statuses",
	Short: "Rewrite legacy task statuses to the current set and exit",
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, normalizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and connects to the database
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Connect(cfg, log); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := database.Migrate(cfg, log); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		return err
	}

	gin.SetMode(cfg.GinMode)

	opts := server.Options{
		DB:                  database.GetDB(),
		Logger:              log,
		DashboardPeriodDays: cfg.DashboardPeriodDays,
	}
	if cfg.OpenAIAPIKey != "" {
		opts.Suggester = services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Info("OPENAI_API_KEY not set, task suggestions disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	return database.Migrate(cfg, log)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	_, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	updated, err := database.NormalizeLegacyTaskStatuses(database.GetDB())
	if err != nil {
		return err
	}
	log.Info("normalized legacy task statuses", zap.Int64("rows", updated))
	return nil
}
