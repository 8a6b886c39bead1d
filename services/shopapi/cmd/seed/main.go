// Command seed fills the shop API catalog with generated demo products.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/services/shopapi/internal/config"
	"github.com/utafrali/storefront/services/shopapi/internal/seed"
	"github.com/utafrali/storefront/services/shopapi/migrations"
)

func main() {
	count := flag.Int("count", 1000, "number of products to generate")
	batch := flag.Int("batch", 500, "rows per INSERT statement")
	randSeed := flag.Int64("seed", 1, "random seed; the same seed yields the same catalog")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("shopapi-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL
	pgCfg.MaxConns = 2
	pgCfg.MinConns = 1

	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	start := time.Now()
	products := seed.Generate(*count, *randSeed)
	inserted, err := seed.Insert(ctx, pool, products, *batch, log)
	if err != nil {
		log.Error("seed failed", slog.Int64("inserted", inserted), slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seed complete",
		slog.Int("generated", len(products)),
		slog.Int64("inserted", inserted),
		slog.Duration("elapsed", time.Since(start)),
	)
}
