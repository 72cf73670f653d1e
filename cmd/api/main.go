package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/genesis-melodies-search-api/internal/config"
	"github.com/genesis-melodies-search-api/internal/handlers"
	"github.com/genesis-melodies-search-api/internal/middleware"
	"github.com/genesis-melodies-search-api/internal/repository"
	"github.com/genesis-melodies-search-api/internal/repository/postgres"
	"github.com/genesis-melodies-search-api/internal/repository/qdrant"
	"github.com/genesis-melodies-search-api/internal/services"
	"github.com/genesis-melodies-search-api/pkg/schema/db"
	pkgservices "github.com/genesis-melodies-search-api/pkg/schema/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := config.GetConfig()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSMiddleware())

	// Initialize PostgreSQL (verse table, and the pgvector backend if selected)
	ctx := context.Background()
	if err := db.InitPostgres(ctx); err != nil {
		log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	log.Println("Database initialization complete")

	pgDB := db.GetPostgres()
	verseRepo := postgres.NewVerseRepository(pgDB)
	resolver := services.NewVerseResolver(verseRepo)

	// Track Qdrant repositories for cleanup on shutdown
	var qdrantRepos []*qdrant.VectorSearchRepository

	buildBackend := func(name string) repository.VectorSearchRepository {
		switch name {
		case "qdrant":
			log.Println("Using Qdrant vector backend")
			repo, err := qdrant.NewVectorSearchRepository(qdrant.Config{
				Host:   cfg.QdrantHost,
				Port:   cfg.QdrantPort,
				APIKey: cfg.QdrantAPIKey,
				UseTLS: cfg.QdrantUseTLS,
			})
			if err != nil {
				log.Fatalf("Failed to create Qdrant vector repository: %v", err)
			}
			qdrantRepos = append(qdrantRepos, repo)
			return repo
		default:
			log.Println("Using pgvector backend")
			return postgres.NewVectorSearchRepository(pgDB)
		}
	}

	primary := buildBackend(cfg.VectorBackend)

	var fallback repository.VectorSearchRepository
	if cfg.VectorFallbackBackend != "" && cfg.VectorFallbackBackend != cfg.VectorBackend {
		log.Printf("Fallback vector backend: %s", cfg.VectorFallbackBackend)
		fallback = buildBackend(cfg.VectorFallbackBackend)
	}

	embeddingsSvc := pkgservices.GetEmbeddingsService()
	searchSvc := services.NewSearchService(primary, fallback, resolver, embeddingsSvc)

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix)

	// Register handlers
	healthHandler := handlers.NewHealthHandler()
	healthHandler.RegisterRoutes(api)

	searchHandler := handlers.NewSearchHandler(searchSvc)
	searchHandler.RegisterRoutes(api)

	// Root health check
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Starting %s v%s on %s", cfg.APITitle, cfg.APIVersion, addr)
		if err := e.Start(addr); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	if err := db.ClosePostgres(); err != nil {
		log.Printf("Error closing PostgreSQL: %v", err)
	}

	for _, repo := range qdrantRepos {
		if err := repo.Close(); err != nil {
			log.Printf("Error closing Qdrant client: %v", err)
		}
	}

	log.Println("Server stopped")
}
