// upsert.go
//
// Offline batch indexer. Reads the chunked record definitions for a record
// level from JSON ({level}_records.json), embeds each record's text with
// every model permitted at that level, and writes the embeddings to both
// backends: the pgvector records table and the Qdrant collections.
//
// Records are immutable once indexed; re-running the script overwrites the
// existing rows and points in place.
//
// Environment variables:
//   POSTGRES_URI           - PostgreSQL connection string
//   EMBEDDING_PROVIDER     - "custom" (default) or "vertex"
//   EMBEDDING_SERVICE_URL  - base URL of the custom embedding service
//   QDRANT_HOST/QDRANT_PORT/QDRANT_API_KEY
//
// Usage:
//   go run scripts/upsert/main.go -records-dir data/records [-record-level pericope]

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/genesis-melodies-search-api/internal/models"
	qdrantrepo "github.com/genesis-melodies-search-api/internal/repository/qdrant"
	"github.com/genesis-melodies-search-api/internal/services"
	pkgservices "github.com/genesis-melodies-search-api/pkg/schema/services"
)

const embedBatchSize = 32

// pointNamespace seeds deterministic point IDs so re-indexing a record
// overwrites its existing point instead of duplicating it
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("genesis-melodies/records"))

func main() {
	recordsDir := flag.String("records-dir", "data/records", "Directory containing {level}_records.json files")
	recordLevel := flag.String("record-level", "", "Single record level to index (default: all)")
	flag.Parse()

	godotenv.Load()
	ctx := context.Background()

	postgresURI := os.Getenv("POSTGRES_URI")
	if postgresURI == "" {
		log.Fatal("POSTGRES_URI environment variable is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", postgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	qdrant, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host:   envOrDefault("QDRANT_HOST", "localhost"),
		Port:   envIntOrDefault("QDRANT_PORT", 6334),
		APIKey: os.Getenv("QDRANT_API_KEY"),
		UseTLS: os.Getenv("QDRANT_API_KEY") != "",
	})
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer qdrant.Close()

	embeddings := pkgservices.GetEmbeddingsService()

	levels := services.ValidRecordLevels()
	if *recordLevel != "" {
		levels = []models.RecordLevel{models.RecordLevel(*recordLevel)}
	}

	for _, level := range levels {
		permitted := services.ValidModelsFor(level)
		if permitted == nil {
			log.Fatalf("Unknown record level: %s", level)
		}

		records, err := loadRecords(*recordsDir, level)
		if err != nil {
			log.Fatalf("Failed to load %s records: %v", level, err)
		}
		log.Printf("Loaded %d %s records", len(records), level)

		for _, model := range permitted {
			if err := indexCollection(ctx, db, qdrant, embeddings, model, level, records); err != nil {
				log.Fatalf("Failed to index %s: %v", models.CollectionKey(model, level), err)
			}
		}
	}

	log.Println("Upsert complete")
}

// loadRecords reads the chunk definitions for one record level
func loadRecords(dir string, level models.RecordLevel) ([]models.Record, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_records.json", level))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// indexCollection embeds every record with one model and upserts the result
// into both backends
func indexCollection(
	ctx context.Context,
	db *sqlx.DB,
	qdrant *qdrantclient.Client,
	embeddings *pkgservices.EmbeddingsService,
	model models.ModelName,
	level models.RecordLevel,
	records []models.Record,
) error {
	key := models.CollectionKey(model, level)
	log.Printf("Indexing %s (%d records)", key, len(records))

	for start := 0; start < len(records); start += embedBatchSize {
		end := min(start+embedBatchSize, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Text
			if model.Language() == models.LanguageHebrew {
				texts[i] = rec.Hebrew
			}
		}

		vectors, err := embeddings.EmbedDocuments(ctx, string(model), texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vectors), len(batch))
		}

		if err := upsertPostgres(ctx, db, key, level, batch, vectors); err != nil {
			return err
		}
		if err := upsertQdrant(ctx, qdrant, key, batch, vectors); err != nil {
			return err
		}
	}
	return nil
}

func upsertPostgres(ctx context.Context, db *sqlx.DB, key string, level models.RecordLevel, batch []models.Record, vectors [][]float64) error {
	for i, rec := range batch {
		versesJSON, err := json.Marshal(rec.Verses)
		if err != nil {
			return fmt.Errorf("encode verses for record %s: %w", rec.ID, err)
		}

		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO records (id, collection_key, record_level, title, english_text, hebrew_text, strongs, verses, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (collection_key, id) DO UPDATE SET
				title = EXCLUDED.title,
				english_text = EXCLUDED.english_text,
				hebrew_text = EXCLUDED.hebrew_text,
				strongs = EXCLUDED.strongs,
				verses = EXCLUDED.verses,
				embedding = EXCLUDED.embedding
		`, rec.ID, key, string(level), rec.Title, rec.Text, rec.Hebrew, rec.Strongs, versesJSON, pgvector.NewVector(vec))
		if err != nil {
			return fmt.Errorf("upsert record %s into %s: %w", rec.ID, key, err)
		}
	}
	return nil
}

func upsertQdrant(ctx context.Context, client *qdrantclient.Client, key string, batch []models.Record, vectors [][]float64) error {
	points := make([]*qdrantclient.PointStruct, len(batch))
	for i, rec := range batch {
		payload, err := qdrantrepo.PointPayload(rec)
		if err != nil {
			return err
		}

		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}

		pointID := uuid.NewSHA1(pointNamespace, []byte(key+"/"+rec.ID))
		points[i] = &qdrantclient.PointStruct{
			Id:      qdrantclient.NewID(pointID.String()),
			Vectors: qdrantclient.NewVectors(vec...),
			Payload: payload,
		}
	}

	_, err := client.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: key,
		Points:         points,
		Wait:           qdrantclient.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), key, err)
	}
	return nil
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
