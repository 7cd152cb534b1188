package scoring

import (
	"errors"
	"math"
	"strings"
)

// ErrUnsupportedLanguage is returned when no frequency table exists for a language
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Weights for combining the two difficulty signals
const (
	rarityWeight     = 0.7
	structuralWeight = 0.3

	// MinScore and MaxScore bound every result
	MinScore = 1
	MaxScore = 100
)

//go:generate mockgen -package=mocks -destination=mocks/mock_scorer.go github.com/phrasebox/phrasebox/internal/scoring Scorer

// Scorer computes a difficulty score for a phrase
type Scorer interface {
	// Score returns a deterministic difficulty in [1,100] for the given content
	Score(content, language string) (int, error)
}

// Config for the difficulty scorer
type Config struct {
	// Optional additional language tables, merged over the built-in set
	ExtraTables map[string]*LanguageTable
}

// scorer implements the Scorer interface using fixed per-language tables
type scorer struct {
	tables map[string]*LanguageTable
}

// New creates a new difficulty scorer
func New(cfg *Config) *scorer {
	tables := make(map[string]*LanguageTable, len(builtinTables))
	for lang, table := range builtinTables {
		tables[lang] = table
	}

	if cfg != nil {
		for lang, table := range cfg.ExtraTables {
			tables[lang] = table
		}
	}

	return &scorer{
		tables: tables,
	}
}

// Score computes the difficulty of content in the given language.
// The result depends only on the inputs and the fixed language table,
// so identical inputs always produce identical scores.
func (s *scorer) Score(content, language string) (int, error) {
	table, ok := s.tables[strings.ToLower(language)]
	if !ok {
		return 0, ErrUnsupportedLanguage
	}

	normalized := normalize(content, table)
	if len(normalized) == 0 {
		return MinScore, nil
	}

	raw := rarityWeight*letterRarity(normalized, table) +
		structuralWeight*structuralComplexity(normalized)

	return table.calibrate(raw), nil
}

// normalize lowercases the content and strips every rune outside the
// language's alphabet
func normalize(content string, table *LanguageTable) []rune {
	lowered := strings.ToLower(content)
	normalized := make([]rune, 0, len(lowered))

	for _, r := range lowered {
		if _, ok := table.Frequencies[r]; ok {
			normalized = append(normalized, r)
		}
	}

	return normalized
}

// letterRarity is the mean of 1/frequency over the normalized runes
func letterRarity(runes []rune, table *LanguageTable) float64 {
	var sum float64
	for _, r := range runes {
		sum += 1 / table.Frequencies[r]
	}
	return sum / float64(len(runes))
}

// structuralComplexity is the ratio of distinct adjacent-letter pairs to
// total adjacent-letter pairs, 0 for single-rune input
func structuralComplexity(runes []rune) float64 {
	if len(runes) < 2 {
		return 0
	}

	total := len(runes) - 1
	distinct := make(map[[2]rune]struct{}, total)
	for i := 0; i < total; i++ {
		distinct[[2]rune{runes[i], runes[i+1]}] = struct{}{}
	}

	return float64(len(distinct)) / float64(total)
}

// calibrate maps a raw combined value onto [1,100] using the table's fixed
// log-linear calibration window
func (t *LanguageTable) calibrate(raw float64) int {
	if raw <= t.CalibrationLow {
		return MinScore
	}
	if raw >= t.CalibrationHigh {
		return MaxScore
	}

	span := math.Log(t.CalibrationHigh) - math.Log(t.CalibrationLow)
	position := math.Log(raw) - math.Log(t.CalibrationLow)
	score := MinScore + int(math.Round(position/span*float64(MaxScore-MinScore)))

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
