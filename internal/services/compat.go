package services

import "github.com/genesis-melodies-search-api/internal/models"

// compatibilityMatrix maps each record level to the models whose collections
// were actually built at that granularity. Anything outside the matrix is
// rejected before resolution or embedding work begins.
var compatibilityMatrix = map[models.RecordLevel][]models.ModelName{
	models.RecordLevelPericope:        {models.ModelHebrewST, models.ModelEnglishST},
	models.RecordLevelVerse:           {models.ModelHebrewST, models.ModelBERiT, models.ModelEnglishST},
	models.RecordLevelAgenticBERiT:    {models.ModelBERiT, models.ModelHebrewST, models.ModelEnglishST},
	models.RecordLevelAgenticHebrewST: {models.ModelHebrewST, models.ModelEnglishST},
	models.RecordLevelAgenticEnglish:  {models.ModelHebrewST, models.ModelEnglishST},
}

// recordLevelOrder keeps error messages deterministic
var recordLevelOrder = []models.RecordLevel{
	models.RecordLevelPericope,
	models.RecordLevelVerse,
	models.RecordLevelAgenticBERiT,
	models.RecordLevelAgenticHebrewST,
	models.RecordLevelAgenticEnglish,
}

// ValidRecordLevels returns every record level the matrix knows about
func ValidRecordLevels() []models.RecordLevel {
	out := make([]models.RecordLevel, len(recordLevelOrder))
	copy(out, recordLevelOrder)
	return out
}

// ValidModelsFor returns the models permitted at the given record level,
// or nil if the level is unknown
func ValidModelsFor(level models.RecordLevel) []models.ModelName {
	permitted, ok := compatibilityMatrix[level]
	if !ok {
		return nil
	}
	out := make([]models.ModelName, len(permitted))
	copy(out, permitted)
	return out
}

// ValidateCombination checks a (model, record level) pair against the
// compatibility matrix. Pure; no side effects.
func ValidateCombination(model models.ModelName, level models.RecordLevel) error {
	permitted, ok := compatibilityMatrix[level]
	if !ok {
		return &models.InvalidRecordLevelError{
			RecordLevel: level,
			ValidLevels: ValidRecordLevels(),
		}
	}
	for _, m := range permitted {
		if m == model {
			return nil
		}
	}
	return &models.IncompatibleModelError{
		ModelName:   model,
		RecordLevel: level,
		ValidModels: ValidModelsFor(level),
	}
}

// Combinations returns every legal (model, record level) pair, used by the
// offline indexer to enumerate the collections to build.
func Combinations() map[models.RecordLevel][]models.ModelName {
	out := make(map[models.RecordLevel][]models.ModelName, len(compatibilityMatrix))
	for level := range compatibilityMatrix {
		out[level] = ValidModelsFor(level)
	}
	return out
}
