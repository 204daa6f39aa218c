// File: stone-catalog-service/cmd/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stone-catalog-service/internal/api"
	"stone-catalog-service/internal/assets"
	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/config"
	"stone-catalog-service/internal/currency"
	"stone-catalog-service/internal/preference"
	"stone-catalog-service/internal/specs"
	"stone-catalog-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultAppName = "StoneCatalogService" // App name for logger
)

// pinger is anything the health check can probe.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s", cfg.AppEnv, cfg.LogLevel)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStartup()

	var closers []io.Closer
	probes := map[string]pinger{}

	// --- Database Connection (optional) ---
	var dbStore *store.PostgresStore
	var rateStore store.RateStorer
	if cfg.Postgres.Enabled() {
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize database connection: %v", err)
		}
		if err := db.PingContext(startupCtx); err != nil {
			logger.Fatalf("FATAL: Failed to ping database: %v", err)
		}
		dbStore = store.NewPostgresStore(db)
		if err := dbStore.EnsureSchema(startupCtx); err != nil {
			logger.Fatalf("FATAL: %v", err)
		}
		rateStore = dbStore
		closers = append(closers, dbStore)
		probes["database"] = dbStore
		logger.Println("INFO: Database connection established and schema ensured.")
	} else {
		logger.Println("WARN: POSTGRES_HOST not set, exchange rates will be cached in memory only.")
	}

	// --- Catalog ---
	specTable, err := loadSpecs(startupCtx, logger, cfg.Specs, dbStore)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load furniture specs: %v", err)
	}
	logger.Printf("INFO: Loaded %d furniture specs from %s", specTable.Len(), cfg.Specs.Source)

	source, err := newAssetSource(startupCtx, cfg.Assets)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize asset source: %v", err)
	}
	paths, err := source.ListPaths(startupCtx)
	if err != nil {
		logger.Fatalf("FATAL: Failed to list assets from %s: %v", cfg.Assets.Source, err)
	}

	var mapping *assets.Mapping
	if cfg.CDN.MappingFile != "" {
		if mapping, err = assets.LoadMapping(cfg.CDN.MappingFile); err != nil {
			logger.Printf("WARN: Ignoring CDN mapping, URLs will follow the naming convention: %v", err)
		}
	}
	resolver := assets.NewCDNResolver(cfg.CDN.CloudName, cfg.CDN.Folder, mapping)

	cat := catalog.New(paths, resolver, specTable)
	categories := cat.Categories()
	logger.Printf("INFO: Catalog built from %d asset paths: %d categories, %d products", len(paths), len(categories), len(cat.Products()))
	images := catalog.NewImageLoader(resolver, cfg.Assets.ImageDelay)

	// --- Currency ---
	httpClient := &http.Client{Timeout: cfg.Currency.FetchTimeout}
	rates := currency.NewRateService(
		rateStore,
		currency.NewAPIClient(httpClient, cfg.Currency.APIURL, cfg.Currency.APIKey),
		cfg.Currency.CacheTTL,
		currency.WithRetryAfter(cfg.Currency.RetryAfter),
		currency.WithFetchTimeout(cfg.Currency.FetchTimeout),
	)
	detector := currency.NewGeoDetector(&http.Client{Timeout: cfg.Currency.DetectTimeout}, cfg.Currency.GeoIPURL)

	var prefs currency.PreferenceStore
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore, err := preference.NewRedisStore(startupCtx, rdb, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
		if err != nil {
			logger.Fatalf("FATAL: Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		prefs = redisStore
		closers = append(closers, redisStore)
		probes["redis"] = redisStore
		logger.Printf("INFO: Visitor preferences stored in Redis at %s", cfg.Redis.Addr)
	} else {
		prefs = preference.NewMemoryStore(cfg.Redis.TTL)
		logger.Println("WARN: REDIS_ADDR not set, visitor preferences are kept in memory.")
	}
	currencyManager := currency.NewManager(prefs, detector, cfg.Currency.DetectTimeout)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(cat, rates, currencyManager, images)
	grpcAPIHandler := api.NewGRPCHandler(cat, rates)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, probes)
	httpAPIHandler.RegisterRoutes(httpRouter, cfg.HttpServer.SecureCookie)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(logger, grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen for gRPC on port %s: %v", cfg.GrpcServer.Port, err)
	}

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, closers, shutdownComplete)

	<-shutdownComplete // Block until graceful shutdown is complete
	logger.Println("INFO: Service shutdown sequence finished.")
}

// loadSpecs reads the furniture specification table from the configured
// source. An empty database table is seeded from the embedded rows.
func loadSpecs(ctx context.Context, logger *log.Logger, cfg config.SpecsConfig, dbStore *store.PostgresStore) (*specs.Table, error) {
	switch cfg.Source {
	case "file":
		return specs.LoadFile(cfg.File)
	case "postgres":
		table, err := specs.LoadStore(ctx, dbStore)
		if err != nil || table.Len() > 0 {
			return table, err
		}
		embedded, err := specs.Embedded()
		if err != nil {
			return nil, err
		}
		logger.Printf("INFO: Seeding %d furniture specs into the database", embedded.Len())
		if err := dbStore.UpsertFurnitureSpecs(ctx, embedded.Records()); err != nil {
			return nil, err
		}
		return embedded, nil
	default:
		return specs.Embedded()
	}
}

func newAssetSource(ctx context.Context, cfg config.AssetsConfig) (assets.Source, error) {
	if cfg.Source != "drive" {
		return assets.DirSource{Root: cfg.Root}, nil
	}
	var opts []option.ClientOption
	if cfg.DriveCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.DriveCredentialsFile))
	}
	return assets.NewDriveSource(ctx, cfg.DriveFolderID, opts...)
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger) // Chi's request logger
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second)) // Default timeout for requests
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, probes map[string]pinger) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		payload := map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    "disabled",
			"redis":       "disabled",
		}
		for name, p := range probes {
			payload[name] = "healthy"
			if err := p.Ping(ctx); err != nil {
				payload[name] = "unhealthy"
				logger.Printf("WARN: Health check %s ping failed: %v", name, err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		json.NewEncoder(w).Encode(payload)
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func setupGRPCServer(logger *log.Logger, grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer()

	api.RegisterCatalogServiceServer(s, grpcAPIHandler)
	logger.Printf("INFO: %s gRPC service registered.", api.CatalogServiceName)

	// Register gRPC Health Checking Protocol service.
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	logger.Println("INFO: gRPC health check service registered.")

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	closers []io.Closer,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	// Close backing stores (database pool, Redis client)
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Printf("WARN: Error closing %T: %v", c, err)
		}
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
