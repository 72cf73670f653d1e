package services

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/genesis-melodies-search-api/internal/models"
	"github.com/genesis-melodies-search-api/internal/repository"
)

// VerseResolver maps verse references to canonical search text. The verse
// table is immutable, so it is loaded from the repository once per process
// and reused across requests.
type VerseResolver struct {
	repo repository.VerseRepository

	once    sync.Once
	loadErr error
	lookup  map[models.VerseRef]models.VerseText
}

// NewVerseResolver creates a resolver over the given verse table
func NewVerseResolver(repo repository.VerseRepository) *VerseResolver {
	return &VerseResolver{repo: repo}
}

func (r *VerseResolver) load(ctx context.Context) error {
	r.once.Do(func() {
		verses, err := r.repo.AllVerses(ctx)
		if err != nil {
			r.loadErr = err
			return
		}
		r.lookup = make(map[models.VerseRef]models.VerseText, len(verses))
		for _, v := range verses {
			r.lookup[models.VerseRef{Chapter: v.Chapter, Verse: v.Verse}] = v
		}
	})
	return r.loadErr
}

// Resolve concatenates the texts of the given refs in ascending
// (chapter, verse) order, joined by single spaces. Duplicate refs are
// collapsed. Refs with no entry in the verse table are skipped with a
// warning; a ref set that resolves to nothing returns an empty string and
// the caller decides whether that is an error.
func (r *VerseResolver) Resolve(ctx context.Context, refs []models.VerseRef, lang models.Language) (string, error) {
	if err := r.load(ctx); err != nil {
		return "", err
	}

	var texts []string
	for _, ref := range models.NormalizeRefs(refs) {
		verse, ok := r.lookup[ref]
		if !ok {
			log.Printf("Warning: no text for verse %d:%d, skipping", ref.Chapter, ref.Verse)
			continue
		}
		text := verse.English
		if lang == models.LanguageHebrew {
			text = verse.Hebrew
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, " "), nil
}
