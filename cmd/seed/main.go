package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pmnarchive/internal/config"
	"pmnarchive/internal/domain/models"
	archiveSvc "pmnarchive/internal/domain/services/archive"
	"pmnarchive/internal/repository/postgres"
	postgresArchive "pmnarchive/internal/repository/postgres/archive"
	serviceArchive "pmnarchive/internal/service/archive"
	"pmnarchive/internal/taxonomy"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	seedUser := flag.String("user", "00000000-0000-0000-0000-000000000001", "User id that owns the seeded records")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	// Load the category/status vocabulary
	taxonomyRegistry, err := taxonomy.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load taxonomy: %v", err)
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresArchive.NewFolderRepository(repoConfig)
	docRepo := postgresArchive.NewDocumentRepository(repoConfig)
	auditRepo := postgresArchive.NewAuditRepository(repoConfig)
	shareRepo := postgresArchive.NewShareRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	folderService := serviceArchive.NewFolderService(folderRepo, docRepo, auditRepo, txManager, taxonomyRegistry, logger)
	docService := serviceArchive.NewDocumentService(docRepo, folderRepo, shareRepo, taxonomyRegistry, logger)

	identity := models.Identity{
		ID:     *seedUser,
		Role:   models.RoleAdmin,
		Active: true,
	}

	// Seed the folder hierarchy
	log.Println("Seeding folders and documents...")

	folderIDs := map[string]*string{}
	for _, f := range seedFolders() {
		var parentID *string
		if f.parent != "" {
			parentID = folderIDs[f.parent]
		}
		folder, err := folderService.CreateFolder(ctx, identity, &archiveSvc.CreateFolderRequest{
			Name:     f.name,
			ParentID: parentID,
			Category: f.category,
		})
		if err != nil {
			log.Printf("Failed to create folder %q: %v", f.name, err)
			continue
		}
		id := folder.ID
		folderIDs[f.name] = &id
		log.Printf("Created folder %s (%s)", f.name, *folder.FolderNumber)
	}

	for _, d := range seedDocuments() {
		doc, err := docService.CreateDocument(ctx, identity, &archiveSvc.CreateDocumentRequest{
			Name:        d.name,
			FolderID:    folderIDs[d.folder],
			SizeBytes:   d.sizeBytes,
			ContentType: d.contentType,
			StorageKey:  "seed/" + d.name,
		})
		if err != nil {
			log.Printf("Failed to create document %q: %v", d.name, err)
			continue
		}
		log.Printf("Created document %s (ID: %s)", doc.Name, doc.ID)
	}

	log.Println("Seeding complete")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			created_by UUID NOT NULL,
			parent_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE RESTRICT,
			folder_number TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			last_moved_at TIMESTAMPTZ,
			last_moved_by UUID,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE RESTRICT,
			uploaded_by UUID NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			content_type TEXT NOT NULL DEFAULT '',
			storage_key TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createShares := `
		CREATE TABLE IF NOT EXISTS ` + tables.Shares + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			granted_by UUID NOT NULL,
			granted_to UUID NOT NULL,
			can_read BOOLEAN NOT NULL DEFAULT FALSE,
			can_write BOOLEAN NOT NULL DEFAULT FALSE,
			can_delete BOOLEAN NOT NULL DEFAULT FALSE,
			can_share BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(document_id, granted_to)
		)
	`
	if _, err := pool.Exec(ctx, createShares); err != nil {
		return err
	}

	createAudits := `
		CREATE TABLE IF NOT EXISTS ` + tables.MoveAudits + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL,
			folder_name TEXT NOT NULL,
			old_parent_id UUID,
			new_parent_id UUID,
			owner_id UUID NOT NULL,
			moved_by UUID NOT NULL,
			moved_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createAudits); err != nil {
		return err
	}

	createPreferences := `
		CREATE TABLE IF NOT EXISTS ` + tables.Preferences + ` (
			user_id UUID PRIMARY KEY,
			preferences JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createPreferences); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_parent ON ` + tables.Folders + `(parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_number ON ` + tables.Folders + `(folder_number) WHERE folder_number IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_folder ON ` + tables.Documents + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `move_audits_folder ON ` + tables.MoveAudits + `(folder_id, moved_at DESC)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Shares,
		tables.MoveAudits,
		tables.Documents,
		tables.Folders,
		tables.Preferences,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  Dropped %s", table)
	}

	return nil
}

type seedFolder struct {
	name     string
	parent   string
	category string
}

type seedDoc struct {
	name        string
	folder      string
	sizeBytes   int64
	contentType string
}

func seedFolders() []seedFolder {
	return []seedFolder{
		{name: "Board", category: "governance"},
		{name: "Meeting Minutes", parent: "Board", category: "governance"},
		{name: "Policies", parent: "Board", category: "governance"},
		{name: "Finance", category: "finance"},
		{name: "Annual Reports", parent: "Finance", category: "finance"},
		{name: "Invoices", parent: "Finance", category: "finance"},
		{name: "Projects", category: "projects"},
		{name: "Field Work 2025", parent: "Projects", category: "projects"},
		{name: "Correspondence", category: "correspondence"},
	}
}

func seedDocuments() []seedDoc {
	return []seedDoc{
		{name: "minutes-2025-06.pdf", folder: "Meeting Minutes", sizeBytes: 184320, contentType: "application/pdf"},
		{name: "minutes-2025-07.pdf", folder: "Meeting Minutes", sizeBytes: 201442, contentType: "application/pdf"},
		{name: "privacy-policy.docx", folder: "Policies", sizeBytes: 48211, contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "annual-report-2024.pdf", folder: "Annual Reports", sizeBytes: 1204433, contentType: "application/pdf"},
		{name: "invoice-0042.pdf", folder: "Invoices", sizeBytes: 33280, contentType: "application/pdf"},
		{name: "survey-results.xlsx", folder: "Field Work 2025", sizeBytes: 95744, contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{name: "welcome-letter.pdf", folder: "Correspondence", sizeBytes: 20480, contentType: "application/pdf"},
	}
}
