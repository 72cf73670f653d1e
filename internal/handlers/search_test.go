package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesis-melodies-search-api/internal/models"
)

type stubSearcher struct {
	resp    *models.SearchResponse
	err     error
	lastReq models.SearchRequest
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	s.calls++
	s.lastReq = req
	return s.resp, s.err
}

func doSearch(t *testing.T, searcher *stubSearcher, params url.Values) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/search?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := NewSearchHandler(searcher).Search(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func validParams() url.Values {
	return url.Values{
		"model_name":    {"english_st"},
		"record_level":  {"verse"},
		"search_verses": {`[{"chapter":1,"verse":1}]`},
		"top_k":         {"5"},
	}
}

func TestSearchHappyPath(t *testing.T) {
	text := "In the beginning"
	searcher := &stubSearcher{resp: &models.SearchResponse{
		EnglishSearchText: &text,
		Results: []models.SearchResult{
			{ID: "verse_01_01", Title: "Genesis 1:1", Text: "In the beginning", Score: 0.97},
		},
	}}

	rec := doSearch(t, searcher, validParams())
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.SearchRequest{
		ModelName:   models.ModelEnglishST,
		RecordLevel: models.RecordLevelVerse,
		Verses:      []models.VerseRef{{Chapter: 1, Verse: 1}},
		TopK:        5,
	}, searcher.lastReq)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.EnglishSearchText)
	assert.Equal(t, "In the beginning", *resp.EnglishSearchText)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 0.97, resp.Results[0].Score)
	assert.NotEmpty(t, resp.Results[0].Text)
}

func TestSearchDefaultsModelLevelAndTopK(t *testing.T) {
	searcher := &stubSearcher{resp: &models.SearchResponse{Results: []models.SearchResult{}}}

	params := url.Values{"search_verses": {`[{"chapter":12,"verse":1}]`}}
	rec := doSearch(t, searcher, params)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ModelHebrewST, searcher.lastReq.ModelName)
	assert.Equal(t, models.RecordLevelPericope, searcher.lastReq.RecordLevel)
	assert.Equal(t, 10, searcher.lastReq.TopK)
}

func TestSearchRejectsUnknownModel(t *testing.T) {
	searcher := &stubSearcher{}
	params := validParams()
	params.Set("model_name", "gpt4")

	rec := doSearch(t, searcher, params)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "model_name")
	assert.Zero(t, searcher.calls)
}

func TestSearchRejectsBadTopK(t *testing.T) {
	for _, bad := range []string{"abc", "0", "-3", "51"} {
		searcher := &stubSearcher{}
		params := validParams()
		params.Set("top_k", bad)

		rec := doSearch(t, searcher, params)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "top_k=%s", bad)
		assert.Contains(t, rec.Body.String(), "top_k")
		assert.Zero(t, searcher.calls)
	}
}

func TestSearchRejectsMalformedVerses(t *testing.T) {
	for _, bad := range []string{"not json", `{"chapter":1}`, `[{"chapter":0,"verse":1}]`, `[{"chapter":1}]`} {
		searcher := &stubSearcher{}
		params := validParams()
		params.Set("search_verses", bad)

		rec := doSearch(t, searcher, params)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "search_verses=%s", bad)
		assert.Contains(t, rec.Body.String(), "search_verses")
		assert.Zero(t, searcher.calls)
	}
}

func TestSearchMapsPipelineErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"empty query", models.ErrEmptyQuery, http.StatusBadRequest},
		{"incompatible model", &models.IncompatibleModelError{
			ModelName: models.ModelBERiT, RecordLevel: models.RecordLevelPericope,
			ValidModels: []models.ModelName{models.ModelHebrewST},
		}, http.StatusBadRequest},
		{"embedding unavailable", &models.EmbeddingUnavailableError{
			Model: models.ModelEnglishST, Err: errors.New("rate limited"),
		}, http.StatusBadGateway},
		{"backend unavailable", &models.BackendUnavailableError{
			Backend: "qdrant", Err: errors.New("dial timeout"),
		}, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doSearch(t, &stubSearcher{err: tc.err}, validParams())
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
