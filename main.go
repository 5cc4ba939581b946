package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/fixture"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/mongodb"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	telem, err := telemetry.New(&cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	if err := run(cfg, telem); err != nil {
		telem.Logger.Error("Product catalog API stopped with error", slog.String("error", err.Error()))
		shutdownTelemetry(telem)
		os.Exit(1)
	}
	shutdownTelemetry(telem)
}

func run(cfg *config.Config, telem *telemetry.Telemetry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer := telem.Tracer()
	logger := telem.Logger

	logger.Info("Starting Product Catalog API",
		slog.String("store.driver", cfg.Store.Driver),
		slog.String("fixture.mode", cfg.Fixture.Mode),
	)

	store, closeStore, err := openStore(ctx, &cfg.Store, tracer, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	productService, err := newProductService(ctx, cfg, store, telem)
	if err != nil {
		return err
	}

	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// openStore connects the configured document store and returns its release func
func openStore(ctx context.Context, cfg *config.StoreConfig, tracer trace.Tracer, logger *slog.Logger) (domain.ProductStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMongo:
		db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to MongoDB",
			slog.String("database", cfg.MongoDatabase),
			slog.String("collection", cfg.MongoCollection),
		)
		release := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := db.Close(closeCtx); err != nil {
				logger.Error("Failed to disconnect MongoDB", slog.String("error", err.Error()))
			}
		}
		return mongodb.NewProductStore(db.Collection(cfg.MongoCollection), tracer, logger), release, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL")
		return postgres.NewProductStore(db.Pool, tracer, logger), db.Close, nil

	default:
		logger.Warn("Using in-memory product store, data is lost on restart")
		return memory.NewProductStore(tracer, logger), func() {}, nil
	}
}

// newProductService wires the fixture file according to the configured mode
func newProductService(ctx context.Context, cfg *config.Config, store domain.ProductStore, telem *telemetry.Telemetry) (*service.ProductService, error) {
	source, err := fixture.NewSource(cfg.Fixture.Path, fixture.S3Options{
		Endpoint:  cfg.Fixture.S3.Endpoint,
		Region:    cfg.Fixture.S3.Region,
		AccessKey: cfg.Fixture.S3.AccessKey,
		SecretKey: cfg.Fixture.S3.SecretKey,
	}, telem.Tracer(), telem.Logger)
	if err != nil {
		return nil, err
	}

	var fallback domain.FixtureSource
	if cfg.Fixture.Mode == config.FixtureFallback {
		fallback = source
	}

	svc := service.NewProductService(store, fallback, telem.Tracer(), telem.Meter(), telem.Logger)

	if cfg.Fixture.Mode == config.FixtureSeed {
		seeded, err := svc.SeedFromFixture(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("seed store from %s: %w", cfg.Fixture.Path, err)
		}
		telem.Logger.Info("Fixture seed finished",
			slog.String("path", cfg.Fixture.Path),
			slog.Int("inserted", seeded),
		)
	}

	return svc, nil
}

func shutdownTelemetry(telem *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telem.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
