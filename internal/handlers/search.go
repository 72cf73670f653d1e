package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/genesis-melodies-search-api/internal/models"
)

const (
	defaultModelName   = models.ModelHebrewST
	defaultRecordLevel = models.RecordLevelPericope
	defaultTopK        = 10
	maxTopK            = 50
)

// Searcher runs one search request through the pipeline
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

// SearchHandler handles the search endpoint
type SearchHandler struct {
	search Searcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search Searcher) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles GET /search - semantic passage search by verse selection
func (h *SearchHandler) Search(c echo.Context) error {
	req, err := parseSearchRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.search.Search(c.Request().Context(), *req)
	if err != nil {
		return searchError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// parseSearchRequest converts the dynamic query string into a typed
// SearchRequest, rejecting unknown or malformed values at the boundary
func parseSearchRequest(c echo.Context) (*models.SearchRequest, error) {
	modelName := models.ModelName(queryOrDefault(c, "model_name", string(defaultModelName)))
	if !modelName.Known() {
		return nil, &models.ValidationError{
			Field:   "model_name",
			Message: "must be one of: hebrew_st, berit, english_st",
		}
	}

	recordLevel := models.RecordLevel(queryOrDefault(c, "record_level", string(defaultRecordLevel)))

	topK := defaultTopK
	if raw := c.QueryParam("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &models.ValidationError{Field: "top_k", Message: "must be a valid integer"}
		}
		if parsed < 1 || parsed > maxTopK {
			return nil, &models.ValidationError{Field: "top_k", Message: "must be between 1 and 50"}
		}
		topK = parsed
	}

	verses, err := parseSearchVerses(queryOrDefault(c, "search_verses", "[]"))
	if err != nil {
		return nil, err
	}

	return &models.SearchRequest{
		ModelName:   modelName,
		RecordLevel: recordLevel,
		Verses:      verses,
		TopK:        topK,
	}, nil
}

// parseSearchVerses decodes the search_verses query parameter, a JSON array
// of {"chapter": int, "verse": int} objects
func parseSearchVerses(raw string) ([]models.VerseRef, error) {
	var refs []models.VerseRef
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, &models.ValidationError{
			Field:   "search_verses",
			Message: "must be a JSON array of {chapter, verse} objects",
		}
	}
	for _, ref := range refs {
		if ref.Chapter < 1 || ref.Verse < 1 {
			return nil, &models.ValidationError{
				Field:   "search_verses",
				Message: "each verse must have positive 'chapter' and 'verse' fields",
			}
		}
	}
	return refs, nil
}

// searchError maps pipeline errors onto HTTP status codes: validation
// failures are 4xx, upstream unavailability is surfaced verbatim as 502/503
func searchError(err error) error {
	var (
		embErr     *models.EmbeddingUnavailableError
		backendErr *models.BackendUnavailableError
	)
	switch {
	case models.IsValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &embErr):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &backendErr):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Search failed: "+err.Error())
	}
}

func queryOrDefault(c echo.Context, name, fallback string) string {
	if v := c.QueryParam(name); v != "" {
		return v
	}
	return fallback
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}
