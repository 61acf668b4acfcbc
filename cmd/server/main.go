package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"propdocs/internal/cache"
	"propdocs/internal/config"
	"propdocs/internal/filetypes"
	"propdocs/internal/handler"
	"propdocs/internal/repository/memory"
	"propdocs/internal/repository/postgres"
	postgresDocsys "propdocs/internal/repository/postgres/docsystem"
	"propdocs/internal/seed"
	serviceDocsys "propdocs/internal/service/docsystem"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := filetypes.Load()
	if err != nil {
		log.Fatalf("Failed to load file type catalog: %v", err)
	}

	var (
		repos serviceDocsys.Repositories
		db    handler.Pinger
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()
		logger.Info("database connected", "max_conns", 25, "min_conns", 5)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		repos = serviceDocsys.Repositories{
			Nodes:     postgresDocsys.NewNodeRepository(repoConfig),
			Comments:  postgresDocsys.NewCommentRepository(repoConfig),
			Users:     postgresDocsys.NewUserRepository(repoConfig),
			TxManager: postgres.NewTransactionManager(pool, logger),
		}
		db = pool
	} else {
		if cfg.Environment == "prod" {
			log.Fatalf("DATABASE_URL is required in production")
		}
		store := memory.NewStore()
		repos = serviceDocsys.Repositories{
			Nodes:     store.Nodes(),
			Comments:  store.Comments(),
			Users:     store.Users(),
			TxManager: store.TxManager(),
		}
		if err := seed.NewSeeder(repos.Nodes, repos.Comments, repos.Users, catalog, logger).Seed(ctx); err != nil {
			log.Fatalf("Failed to seed in-memory store: %v", err)
		}
		logger.Warn("DATABASE_URL not set: serving a seeded in-memory store, changes are lost on exit")
	}

	listings, err := cache.New(ctx, cfg.RedisURL, cfg.ListingCacheTTL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer listings.Close()

	services := serviceDocsys.SetupServices(repos, listings, catalog, logger)
	logger.Info("services initialized", "listing_cache", cfg.RedisURL != "")

	router := handler.NewRouter(handler.RouterConfig{
		Nodes:    services.Nodes,
		Comments: services.Comments,
		Users:    services.Users,
		Catalog:  catalog,
		DB:       db,
		Logger:   logger,
	})

	// CORS - outermost so pre-flight requests never reach the API
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "X-User-ID", "X-User-Name", "X-User-Email"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
