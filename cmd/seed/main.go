package main

import (
	"context"
	"flag"
	"log"

	"propdocs/internal/config"
	"propdocs/internal/filetypes"
	"propdocs/internal/repository/postgres"
	postgresDocsys "propdocs/internal/repository/postgres/docsystem"
	"propdocs/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the sample portfolio")
	clearData := flag.Bool("clear-data", false, "Delete all nodes, comments and users (keep schema)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is not set")
	}

	logger, logCloser, err := config.NewLogger(cfg, "seed")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	switch {
	case *clearData:
		logger.Info("clearing data only", "environment", cfg.Environment, "prefix", cfg.TablePrefix)
	case *schemaOnly:
		logger.Info("setting up schema only", "environment", cfg.Environment, "prefix", cfg.TablePrefix)
	default:
		logger.Info("seeding database", "environment", cfg.Environment, "prefix", cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	if *clearData {
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared")
		return
	}

	catalog, err := filetypes.Load()
	if err != nil {
		log.Fatalf("Failed to load file type catalog: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	seeder := seed.NewSeeder(
		postgresDocsys.NewNodeRepository(repoConfig),
		postgresDocsys.NewCommentRepository(repoConfig),
		postgresDocsys.NewUserRepository(repoConfig),
		catalog,
		logger,
	)

	seeded, err := seeder.IsSeeded(ctx)
	if err != nil {
		log.Fatalf("Failed to inspect existing data: %v", err)
	}
	if seeded {
		logger.Info("sample portfolio already present; run with --clear-data first to reseed")
		return
	}

	// Seed atomically
	txManager := postgres.NewTransactionManager(pool, logger)
	if err := txManager.ExecTx(ctx, seeder.Seed); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	for _, p := range seed.Paths() {
		logger.Debug("seeded", "path", p)
	}
	logger.Info("seeding complete")
}
