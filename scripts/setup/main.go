// setup.go
//
// Creates the PostgreSQL schema (verse table plus the pgvector-backed
// records table) and the Qdrant collections for every legal
// (model, record_level) combination.
//
// Environment variables:
//   POSTGRES_URI   - PostgreSQL connection string
//   QDRANT_HOST    - Qdrant host (default: localhost)
//   QDRANT_PORT    - Qdrant gRPC port (default: 6334)
//   QDRANT_API_KEY - Qdrant API key (optional)
//
// Usage:
//   go run scripts/setup/main.go [-postgres] [-qdrant]

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/qdrant/go-client/qdrant"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/services"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS verses (
	chapter      INT  NOT NULL,
	verse        INT  NOT NULL,
	english_text TEXT NOT NULL DEFAULT '',
	hebrew_text  TEXT NOT NULL DEFAULT '',
	strongs      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (chapter, verse)
);

CREATE TABLE IF NOT EXISTS records (
	id             TEXT  NOT NULL,
	collection_key TEXT  NOT NULL,
	record_level   TEXT  NOT NULL,
	title          TEXT  NOT NULL DEFAULT '',
	english_text   TEXT  NOT NULL DEFAULT '',
	hebrew_text    TEXT  NOT NULL DEFAULT '',
	strongs        TEXT  NOT NULL DEFAULT '',
	verses         JSONB NOT NULL DEFAULT '[]',
	embedding      vector,
	PRIMARY KEY (collection_key, id)
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records (collection_key);
`

func main() {
	setupPostgres := flag.Bool("postgres", false, "Create the PostgreSQL schema")
	setupQdrant := flag.Bool("qdrant", false, "Create the Qdrant collections")
	flag.Parse()

	if !*setupPostgres && !*setupQdrant {
		log.Fatal("Nothing to do: pass -postgres and/or -qdrant")
	}

	godotenv.Load()
	ctx := context.Background()

	if *setupPostgres {
		postgresURI := os.Getenv("POSTGRES_URI")
		if postgresURI == "" {
			log.Fatal("POSTGRES_URI environment variable is required")
		}

		db, err := sqlx.ConnectContext(ctx, "postgres", postgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if _, err := db.ExecContext(ctx, schema); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		log.Println("PostgreSQL schema created")
	}

	if *setupQdrant {
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:   envOrDefault("QDRANT_HOST", "localhost"),
			Port:   envIntOrDefault("QDRANT_PORT", 6334),
			APIKey: os.Getenv("QDRANT_API_KEY"),
			UseTLS: os.Getenv("QDRANT_API_KEY") != "",
		})
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer client.Close()

		for level, permitted := range services.Combinations() {
			for _, model := range permitted {
				if err := ensureCollection(ctx, client, model, level); err != nil {
					log.Fatalf("Failed to create collection %s: %v", models.CollectionKey(model, level), err)
				}
			}
		}
		log.Println("Qdrant collections created")
	}
}

// ensureCollection creates the cosine-distance collection for one
// (model, record level) pair if it does not already exist
func ensureCollection(ctx context.Context, client *qdrant.Client, model models.ModelName, level models.RecordLevel) error {
	key := models.CollectionKey(model, level)

	exists, err := client.CollectionExists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("Collection %s already exists", key)
		return nil
	}

	log.Printf("Creating collection %s (dim=%d)", key, model.Dimensions())
	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: key,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(model.Dimensions()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
