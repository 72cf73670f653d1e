package models

import "sort"

// ModelName identifies an embedding model
type ModelName string

const (
	ModelHebrewST  ModelName = "hebrew_st"
	ModelBERiT     ModelName = "berit"
	ModelEnglishST ModelName = "english_st"
)

// Language identifies which text field a model embeds
type Language string

const (
	LanguageHebrew  Language = "hebrew"
	LanguageEnglish Language = "english"
)

// AllModels lists every known embedding model
var AllModels = []ModelName{ModelHebrewST, ModelBERiT, ModelEnglishST}

// Language returns the text field the model was trained on
func (m ModelName) Language() Language {
	if m == ModelEnglishST {
		return LanguageEnglish
	}
	return LanguageHebrew
}

// Dimensions returns the fixed embedding dimensionality of the model
func (m ModelName) Dimensions() int {
	if m == ModelBERiT {
		return 256
	}
	return 768
}

// Known reports whether m is a recognized model name
func (m ModelName) Known() bool {
	for _, known := range AllModels {
		if m == known {
			return true
		}
	}
	return false
}

// RecordLevel is the text-chunking granularity a vector collection was built at
type RecordLevel string

const (
	RecordLevelPericope        RecordLevel = "pericope"
	RecordLevelVerse           RecordLevel = "verse"
	RecordLevelAgenticBERiT    RecordLevel = "agentic_berit"
	RecordLevelAgenticHebrewST RecordLevel = "agentic_hebrew_st"
	RecordLevelAgenticEnglish  RecordLevel = "agentic_english_st"
)

// VerseRef identifies a single verse by chapter and verse number.
// Value type; equality is by value.
type VerseRef struct {
	Chapter int `json:"chapter" db:"chapter"`
	Verse   int `json:"verse" db:"verse"`
}

// Less orders refs ascending by (chapter, verse)
func (r VerseRef) Less(other VerseRef) bool {
	if r.Chapter != other.Chapter {
		return r.Chapter < other.Chapter
	}
	return r.Verse < other.Verse
}

// NormalizeRefs returns refs deduplicated and sorted ascending by
// (chapter, verse). The input slice is not modified.
func NormalizeRefs(refs []VerseRef) []VerseRef {
	seen := make(map[VerseRef]bool, len(refs))
	out := make([]VerseRef, 0, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// VerseText is one row of the verse lookup table
type VerseText struct {
	Chapter int    `db:"chapter"`
	Verse   int    `db:"verse"`
	English string `db:"english_text"`
	Hebrew  string `db:"hebrew_text"`
	Strongs string `db:"strongs"`
}

// SearchRequest is a fully parsed and typed search query
type SearchRequest struct {
	ModelName   ModelName
	RecordLevel RecordLevel
	Verses      []VerseRef
	TopK        int
}

// SearchResult is one scored hit, uniform across vector backends.
// Score is cosine similarity: higher is more similar. Verses is omitted
// at the verse record level where a range adds nothing.
type SearchResult struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Text    string     `json:"text"`
	Hebrew  string     `json:"hebrew"`
	Strongs string     `json:"strongs"`
	Verses  []VerseRef `json:"verses,omitempty"`
	Score   float64    `json:"score"`
}

// SearchResponse is the wire shape returned by the search endpoint
type SearchResponse struct {
	EnglishSearchText *string        `json:"english_search_text"`
	Results           []SearchResult `json:"results"`
}

// Record is one precomputed chunk of scripture text as stored offline.
// Records are generated once by the batch indexer and are read-only at
// query time.
type Record struct {
	ID      string     `json:"id" db:"id"`
	Title   string     `json:"title" db:"title"`
	Text    string     `json:"text" db:"english_text"`
	Hebrew  string     `json:"hebrew" db:"hebrew_text"`
	Strongs string     `json:"strongs" db:"strongs"`
	Verses  []VerseRef `json:"verses"`
}

// CollectionKey names the vector collection holding embeddings for one
// (model, record level) pair, e.g. "hebrew_st_pericope".
func CollectionKey(model ModelName, level RecordLevel) string {
	return string(model) + "_" + string(level)
}
