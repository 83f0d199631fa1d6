package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/authcore/internal/app"
	"github.com/dropDatabas3/authcore/internal/config"
	"github.com/dropDatabas3/authcore/internal/observability/logger"
	"github.com/dropDatabas3/authcore/internal/store/pg"
)

func main() {
	// .env es opcional: en producción todo llega por ENV real
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "authcore",
		Short:         "Servicio de autenticación y control de acceso",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "ruta del config YAML (env CONFIG_PATH)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgPath)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de postgres y termina",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cfgPath)
		},
	}

	root.AddCommand(serve, migrate)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "authcore"})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Close()

	if cfg.Flags.Migrate && application.PG != nil {
		if err := application.PG.RunMigrations(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		logger.L().Info("migrations applied")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return application.Server.Run(gctx)
	})
	g.Go(func() error {
		// barrido periódico de secret tokens expirados
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := application.Tokens.DeleteExpired(gctx)
				if err != nil {
					logger.L().Warn("token sweep failed", logger.Err(err))
					continue
				}
				if n > 0 {
					logger.L().Info("expired tokens swept", logger.Count(n))
				}
			}
		}
	})
	return g.Wait()
}

func runMigrate(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "authcore"})
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn requerido para migrar")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	logger.L().Info("migrations applied")
	return nil
}
