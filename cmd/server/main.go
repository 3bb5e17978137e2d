package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/rs/cors"

	"pmnarchive/internal/auth"
	"pmnarchive/internal/config"
	"pmnarchive/internal/handler"
	"pmnarchive/internal/middleware"
	"pmnarchive/internal/repository/postgres"
	postgresArchive "pmnarchive/internal/repository/postgres/archive"
	"pmnarchive/internal/service"
	serviceArchive "pmnarchive/internal/service/archive"
	"pmnarchive/internal/taxonomy"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging: colored console output in dev, JSON in
	// prod for log aggregation
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logger *slog.Logger
	if cfg.Environment == "dev" {
		logger = slog.New(tint.NewHandler(colorable.NewColorable(os.Stdout), &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier against the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Load the category/status vocabulary
	taxonomyRegistry, err := taxonomy.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load taxonomy: %v", err)
	}

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresArchive.NewFolderRepository(repoConfig)
	docRepo := postgresArchive.NewDocumentRepository(repoConfig)
	auditRepo := postgresArchive.NewAuditRepository(repoConfig)
	shareRepo := postgresArchive.NewShareRepository(repoConfig)
	userPrefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	folderService := serviceArchive.NewFolderService(folderRepo, docRepo, auditRepo, txManager, taxonomyRegistry, logger)
	docService := serviceArchive.NewDocumentService(docRepo, folderRepo, shareRepo, taxonomyRegistry, logger)
	shareService := serviceArchive.NewShareService(shareRepo, docRepo, logger)
	treeService := serviceArchive.NewTreeService(folderRepo, docRepo, logger)
	userPrefsService := service.NewUserPreferencesService(userPrefsRepo, logger)

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	docHandler := handler.NewDocumentHandler(docService, logger)
	shareHandler := handler.NewShareHandler(shareService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	userPrefsHandler := handler.NewUserPreferencesHandler(userPrefsService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Tree endpoint (polled by clients for reconciliation)
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders", folderHandler.GetContents)
	mux.HandleFunc("POST /api/folders/reorder", folderHandler.Reorder) // Must come before {id} route
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", folderHandler.GetContents)
	mux.HandleFunc("GET /api/folders/{id}/audit", folderHandler.ListAudit)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", docHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Share routes
	mux.HandleFunc("POST /api/documents/{id}/shares", shareHandler.CreateShare)
	mux.HandleFunc("GET /api/documents/{id}/shares", shareHandler.ListShares)
	mux.HandleFunc("DELETE /api/shares/{id}", shareHandler.RevokeShare)

	// User preferences routes
	mux.HandleFunc("GET /api/users/me/preferences", userPrefsHandler.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", userPrefsHandler.UpdatePreferences)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → RateLimit → Routes
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	defer rateLimiter.Close()

	httpHandler = rateLimiter.Middleware(httpHandler)
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
