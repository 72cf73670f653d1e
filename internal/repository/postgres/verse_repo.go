package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/repository"
)

// VerseRepository implements repository.VerseRepository over the verses table
type VerseRepository struct {
	db *sqlx.DB
}

// NewVerseRepository creates a PostgreSQL verse lookup repository
func NewVerseRepository(db *sqlx.DB) repository.VerseRepository {
	return &VerseRepository{db: db}
}

// AllVerses returns the full verse-text table in canonical order
func (r *VerseRepository) AllVerses(ctx context.Context) ([]models.VerseText, error) {
	var verses []models.VerseText
	err := r.db.SelectContext(ctx, &verses, `
		SELECT chapter, verse, english_text, hebrew_text, strongs
		FROM verses
		ORDER BY chapter, verse
	`)
	if err != nil {
		return nil, fmt.Errorf("load verse table: %w", err)
	}
	return verses, nil
}
