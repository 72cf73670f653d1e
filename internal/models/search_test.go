package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRefs(t *testing.T) {
	in := []VerseRef{
		{Chapter: 2, Verse: 7},
		{Chapter: 1, Verse: 1},
		{Chapter: 2, Verse: 7},
		{Chapter: 1, Verse: 31},
		{Chapter: 1, Verse: 2},
	}
	inCopy := append([]VerseRef(nil), in...)

	out := NormalizeRefs(in)
	assert.Equal(t, []VerseRef{
		{Chapter: 1, Verse: 1},
		{Chapter: 1, Verse: 2},
		{Chapter: 1, Verse: 31},
		{Chapter: 2, Verse: 7},
	}, out)

	// Input is left untouched
	assert.Equal(t, inCopy, in)
}

func TestNormalizeRefsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeRefs(nil))
}

func TestModelLanguage(t *testing.T) {
	assert.Equal(t, LanguageHebrew, ModelHebrewST.Language())
	assert.Equal(t, LanguageHebrew, ModelBERiT.Language())
	assert.Equal(t, LanguageEnglish, ModelEnglishST.Language())
}

func TestModelDimensions(t *testing.T) {
	assert.Equal(t, 768, ModelHebrewST.Dimensions())
	assert.Equal(t, 256, ModelBERiT.Dimensions())
	assert.Equal(t, 768, ModelEnglishST.Dimensions())
}

func TestModelKnown(t *testing.T) {
	for _, m := range AllModels {
		assert.True(t, m.Known())
	}
	assert.False(t, ModelName("ada-002").Known())
}

func TestCollectionKey(t *testing.T) {
	assert.Equal(t, "hebrew_st_pericope", CollectionKey(ModelHebrewST, RecordLevelPericope))
	assert.Equal(t, "berit_agentic_berit", CollectionKey(ModelBERiT, RecordLevelAgenticBERiT))
}

func TestSearchResponseJSONShape(t *testing.T) {
	text := "In the beginning"
	resp := SearchResponse{
		EnglishSearchText: &text,
		Results: []SearchResult{
			{ID: "p1", Title: "Creation", Text: "a", Hebrew: "א", Score: 0.9,
				Verses: []VerseRef{{Chapter: 1, Verse: 1}}},
			{ID: "v1", Title: "Genesis 1:1", Text: "b", Hebrew: "ב", Score: 0.8},
		},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "In the beginning", decoded["english_search_text"])

	results := decoded["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Contains(t, first, "verses")
	// Results without a verse range omit the field entirely
	second := results[1].(map[string]any)
	assert.NotContains(t, second, "verses")
}

func TestSearchResponseNullSearchText(t *testing.T) {
	data, err := json.Marshal(SearchResponse{Results: []SearchResult{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"english_search_text":null,"results":[]}`, string(data))
}
