package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/internal/config"
	"github.com/takdim/inven-go/internal/core/container"
	"github.com/takdim/inven-go/internal/core/logger"
	"github.com/takdim/inven-go/internal/core/routes"
	"github.com/takdim/inven-go/internal/database"
	"github.com/takdim/inven-go/internal/database/migration"
	"github.com/takdim/inven-go/internal/session"
	"github.com/takdim/inven-go/pkg/security"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log := logger.NewLogger(cfg.Env)
			defer func() { _ = log.Sync() }()

			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.AutoMigrate {
		if err := migration.Up(cfg.DatabaseURL, cfg.MigrationsDir, false, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to the database")

	revoker, closeRevoker, err := newRevoker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRevoker()

	app := container.NewAppContainer(db, cfg, revoker, Version, log)
	server := &http.Server{
		Addr:              cfg.Host,
		Handler:           routes.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", cfg.Host), zap.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newRevoker uses redis when REDIS_URL is set and an in-memory store otherwise.
func newRevoker(ctx context.Context, cfg *config.Config, log *zap.Logger) (security.Revoker, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, session revocation is kept in memory")
		return session.NewMemoryRevoker(), func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisRevoker(client), func() { _ = client.Close() }, nil
}
