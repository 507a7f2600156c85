package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gtrusler/lexpertchatai-sub000/docs"
	"github.com/gtrusler/lexpertchatai-sub000/internal/config"
	"github.com/gtrusler/lexpertchatai-sub000/internal/database"
	"github.com/gtrusler/lexpertchatai-sub000/internal/database/migration"
	handlers "github.com/gtrusler/lexpertchatai-sub000/internal/http/handler"
	"github.com/gtrusler/lexpertchatai-sub000/internal/http/middleware"
	"github.com/gtrusler/lexpertchatai-sub000/internal/otel"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository/postgres"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
	"github.com/gtrusler/lexpertchatai-sub000/internal/storage"
)

// @title LexPert Document Engine API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Existence guard: create any missing tables and indexes, tolerating
	// concurrent instances racing on the same DDL.
	migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := migration.EnsureMigrated(migrateCtx, db, loc, cfg.Database.Host); err != nil {
		cancel()
		log.Fatalf("failed to ensure schema: %v", err)
	}
	cancel()

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	bucketCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := objStore.EnsureBucket(bucketCtx); err != nil {
		cancel()
		log.Fatalf("failed to ensure bucket: %v", err)
	}
	cancel()

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	chatRepo := postgres.NewChatPostgres(db)
	tagRepo := postgres.NewTagPostgres(db)
	tplRepo := postgres.NewTemplatePostgres(db)

	engineOpts := service.DocumentServiceOptions{
		CallTimeout:  time.Duration(cfg.Engine.CallTimeoutSec) * time.Second,
		SignedURLTTL: time.Duration(cfg.Engine.SignedURLTTLSec) * time.Second,
	}
	docSvc := service.NewDocumentService(objStore, docRepo, chatRepo, engineOpts)
	tagSvc := service.NewTagService(tagRepo, engineOpts.CallTimeout)
	tplSvc := service.NewTemplateService(tplRepo, engineOpts.CallTimeout)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, tagSvc, tplSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
