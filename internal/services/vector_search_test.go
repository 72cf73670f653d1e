package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesis-melodies-search-api/internal/models"
)

type stubEmbedder struct {
	calls     int
	vec       []float64
	err       error
	lastModel string
	lastText  string
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, model, text string) ([]float64, error) {
	s.calls++
	s.lastModel = model
	s.lastText = text
	return s.vec, s.err
}

type stubVectorRepo struct {
	name     string
	hits     []models.SearchResult
	err      error
	calls    int
	lastKey  string
	lastTopK int
}

func (s *stubVectorRepo) Backend() string { return s.name }

func (s *stubVectorRepo) Query(ctx context.Context, collectionKey string, embedding []float64, topK int) ([]models.SearchResult, error) {
	s.calls++
	s.lastKey = collectionKey
	s.lastTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func newTestService(repo, fallback *stubVectorRepo, embedder *stubEmbedder) *SearchService {
	resolver := NewVerseResolver(testVerseRepo())
	// A typed nil in the interface would defeat the nil check in query.
	if fallback == nil {
		return NewSearchService(repo, nil, resolver, embedder)
	}
	return NewSearchService(repo, fallback, resolver, embedder)
}

func someHits() []models.SearchResult {
	return []models.SearchResult{
		{ID: "pericope_02", Title: "Wild and Waste", Text: "b", Hebrew: "ב", Score: 0.71,
			Verses: []models.VerseRef{{Chapter: 1, Verse: 2}}},
		{ID: "pericope_01", Title: "In the Beginning", Text: "a", Hebrew: "א", Score: 0.93,
			Verses: []models.VerseRef{{Chapter: 1, Verse: 1}}},
		{ID: "pericope_03", Title: "The Human of Dust", Text: "c", Hebrew: "ג", Score: 0.64,
			Verses: []models.VerseRef{{Chapter: 2, Verse: 7}}},
	}
}

func searchRequest() models.SearchRequest {
	return models.SearchRequest{
		ModelName:   models.ModelHebrewST,
		RecordLevel: models.RecordLevelPericope,
		Verses:      []models.VerseRef{{Chapter: 1, Verse: 1}, {Chapter: 1, Verse: 2}},
		TopK:        10,
	}
}

func TestSearchPipeline(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector", hits: someHits()}
	embedder := &stubEmbedder{vec: []float64{0.1, 0.2}}
	svc := newTestService(repo, nil, embedder)

	resp, err := svc.Search(context.Background(), searchRequest())
	require.NoError(t, err)

	// Hebrew model embeds the Hebrew text
	assert.Equal(t, "hebrew_st", embedder.lastModel)
	assert.Equal(t, "בראשית ברא אלהים והארץ היתה תהו ובהו", embedder.lastText)

	// Query is scoped to the (model, record_level) collection
	assert.Equal(t, "hebrew_st_pericope", repo.lastKey)
	assert.Equal(t, 10, repo.lastTopK)

	// English rendering is echoed regardless of the embedded language
	require.NotNil(t, resp.EnglishSearchText)
	assert.Equal(t, "In the beginning God created the skies and the land And the land was wild and waste", *resp.EnglishSearchText)

	// Results come back sorted descending by similarity
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "pericope_01", resp.Results[0].ID)
	assert.Equal(t, "pericope_02", resp.Results[1].ID)
	assert.Equal(t, "pericope_03", resp.Results[2].ID)
	assert.True(t, resp.Results[0].Score >= resp.Results[1].Score)
}

func TestSearchTruncatesToTopK(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector", hits: someHits()}
	svc := newTestService(repo, nil, &stubEmbedder{vec: []float64{0.1}})

	req := searchRequest()
	req.TopK = 2

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "pericope_01", resp.Results[0].ID)
}

func TestSearchOmitsVerseRangeAtVerseLevel(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector", hits: someHits()}
	svc := newTestService(repo, nil, &stubEmbedder{vec: []float64{0.1}})

	req := searchRequest()
	req.RecordLevel = models.RecordLevelVerse

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	for _, result := range resp.Results {
		assert.Nil(t, result.Verses)
	}
}

func TestSearchEmptyVersesNeverReachesEmbedder(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector"}
	embedder := &stubEmbedder{vec: []float64{0.1}}
	svc := newTestService(repo, nil, embedder)

	req := searchRequest()
	req.Verses = nil

	_, err := svc.Search(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrEmptyQuery)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, repo.calls)
}

func TestSearchUnresolvableVersesNeverReachEmbedder(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector"}
	embedder := &stubEmbedder{vec: []float64{0.1}}
	svc := newTestService(repo, nil, embedder)

	req := searchRequest()
	req.Verses = []models.VerseRef{{Chapter: 99, Verse: 99}}

	_, err := svc.Search(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrEmptyQuery)
	assert.Zero(t, embedder.calls)
}

func TestSearchIncompatiblePairFailsFast(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector"}
	embedder := &stubEmbedder{vec: []float64{0.1}}
	svc := newTestService(repo, nil, embedder)

	req := searchRequest()
	req.ModelName = models.ModelBERiT // berit is not built at pericope level

	_, err := svc.Search(context.Background(), req)
	var incompatible *models.IncompatibleModelError
	require.True(t, errors.As(err, &incompatible))
	assert.Zero(t, embedder.calls)
	assert.Zero(t, repo.calls)
}

func TestSearchWrapsEmbedderFailure(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector"}
	embedder := &stubEmbedder{err: errors.New("rate limited")}
	svc := newTestService(repo, nil, embedder)

	_, err := svc.Search(context.Background(), searchRequest())
	var unavailable *models.EmbeddingUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, models.ModelHebrewST, unavailable.Model)
	assert.Zero(t, repo.calls)
}

func TestSearchFallsBackWhenPrimaryUnavailable(t *testing.T) {
	primary := &stubVectorRepo{name: "qdrant", err: &models.BackendUnavailableError{Backend: "qdrant", Err: errors.New("dial timeout")}}
	fallback := &stubVectorRepo{name: "pgvector", hits: someHits()}
	svc := newTestService(primary, fallback, &stubEmbedder{vec: []float64{0.1}})

	resp, err := svc.Search(context.Background(), searchRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "hebrew_st_pericope", fallback.lastKey)
	assert.Len(t, resp.Results, 3)
}

func TestSearchNoFallbackConfigured(t *testing.T) {
	primary := &stubVectorRepo{name: "qdrant", err: &models.BackendUnavailableError{Backend: "qdrant", Err: errors.New("dial timeout")}}
	svc := newTestService(primary, nil, &stubEmbedder{vec: []float64{0.1}})

	_, err := svc.Search(context.Background(), searchRequest())
	var unavailable *models.BackendUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "qdrant", unavailable.Backend)
}

func TestSearchDoesNotFallBackOnOtherErrors(t *testing.T) {
	primary := &stubVectorRepo{name: "pgvector", err: errors.New("scan record hit: bad column")}
	fallback := &stubVectorRepo{name: "qdrant", hits: someHits()}
	svc := newTestService(primary, fallback, &stubEmbedder{vec: []float64{0.1}})

	_, err := svc.Search(context.Background(), searchRequest())
	require.Error(t, err)
	assert.Zero(t, fallback.calls)
}

func TestSearchDefaultsTopK(t *testing.T) {
	repo := &stubVectorRepo{name: "pgvector", hits: someHits()}
	svc := newTestService(repo, nil, &stubEmbedder{vec: []float64{0.1}})

	req := searchRequest()
	req.TopK = 0

	_, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, defaultTopK, repo.lastTopK)
}
