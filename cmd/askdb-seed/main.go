package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/migrations"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/seed"
	"github.com/askdb/askdb/internal/storage"
	s3store "github.com/askdb/askdb/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	dataset := flag.String("dataset", cfg.Seed.DatasetPath, "dataset location: local .csv/.parquet path or s3://bucket/key")
	migrate := flag.Bool("migrate", true, "apply schema migrations before loading")
	export := flag.String("export", "", "write the parsed dataset to this parquet file instead of loading it")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	location, err := storage.ParseLocation(*dataset)
	if err != nil {
		logger.Error("invalid dataset location", slog.Any("error", err))
		os.Exit(1)
	}

	source := seed.Source{OpenBucket: func(bucket string) (storage.ObjectReader, error) {
		return s3store.New(s3store.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
			Prefix:          cfg.ObjectStore.Prefix,
		})
	}}
	records, err := source.Read(ctx, location)
	if err != nil {
		logger.Error("failed to read dataset", slog.String("dataset", location.String()), slog.Any("error", err))
		os.Exit(1)
	}

	if *export != "" {
		payload, err := seed.EncodeParquet(records)
		if err != nil {
			logger.Error("failed to encode parquet", slog.Any("error", err))
			os.Exit(1)
		}
		if err := os.WriteFile(*export, payload, 0o644); err != nil {
			logger.Error("failed to write parquet export", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("dataset exported", slog.String("path", *export), slog.Int("rows", len(records)))
		return
	}

	db, _, err := database.Open(ctx, database.DBConfig{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: 1,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if *migrate {
		applied, err := migrations.NewRunner().Up(ctx, db, 0)
		if err != nil {
			logger.Error("migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema migrated", slog.Int("applied", applied))
	}

	count, err := seed.Load(ctx, db, records)
	if err != nil {
		logger.Error("failed to load dataset", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("dataset loaded", slog.String("dataset", location.String()), slog.Int("rows", count))
}
