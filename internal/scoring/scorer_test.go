package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ScorerTestSuite struct {
	suite.Suite
	scorer Scorer
}

func (s *ScorerTestSuite) SetupTest() {
	s.scorer = New(nil)
}

func TestScorerTestSuite(t *testing.T) {
	suite.Run(t, new(ScorerTestSuite))
}

func (s *ScorerTestSuite) TestScoreIsDeterministic() {
	first, err := s.scorer.Score("the quick brown fox", "en")
	s.Require().NoError(err)

	for i := 0; i < 10; i++ {
		again, err := s.scorer.Score("the quick brown fox", "en")
		s.Require().NoError(err)
		s.Equal(first, again)
	}
}

func (s *ScorerTestSuite) TestScoreStaysWithinBounds() {
	inputs := []string{
		"e",
		"zzzzzz",
		"the quick brown fox jumps over the lazy dog",
		"qqqqxxxxzzzzjjjj",
		"a",
		"eeeeeeeeeeeeeeeeeeee",
		"jazzy quixotic vexing puzzle",
	}

	for _, input := range inputs {
		score, err := s.scorer.Score(input, "en")
		s.Require().NoError(err)
		s.GreaterOrEqual(score, MinScore, "input %q", input)
		s.LessOrEqual(score, MaxScore, "input %q", input)
	}
}

func (s *ScorerTestSuite) TestRareLettersScoreHigher() {
	common, err := s.scorer.Score("teet tea ate", "en")
	s.Require().NoError(err)

	rare, err := s.scorer.Score("jazz quiz zyx", "en")
	s.Require().NoError(err)

	s.Greater(rare, common)
}

func (s *ScorerTestSuite) TestEmptyContentGetsMinimumScore() {
	score, err := s.scorer.Score("", "en")
	s.Require().NoError(err)
	s.Equal(MinScore, score)
}

func (s *ScorerTestSuite) TestNonAlphabetContentGetsMinimumScore() {
	// Digits and punctuation all normalize away
	score, err := s.scorer.Score("123 !!! ???", "en")
	s.Require().NoError(err)
	s.Equal(MinScore, score)
}

func (s *ScorerTestSuite) TestNormalizationIgnoresCaseAndPunctuation() {
	plain, err := s.scorer.Score("hello world", "en")
	s.Require().NoError(err)

	noisy, err := s.scorer.Score("  HeLLo, WoRLD!  ", "en")
	s.Require().NoError(err)

	s.Equal(plain, noisy)
}

func (s *ScorerTestSuite) TestUnsupportedLanguage() {
	_, err := s.scorer.Score("bonjour", "fr")
	s.Require().ErrorIs(err, ErrUnsupportedLanguage)
}

func (s *ScorerTestSuite) TestLanguageCodeIsCaseInsensitive() {
	lower, err := s.scorer.Score("hallo welt", "de")
	s.Require().NoError(err)

	upper, err := s.scorer.Score("hallo welt", "DE")
	s.Require().NoError(err)

	s.Equal(lower, upper)
}

func (s *ScorerTestSuite) TestAccentedAlphabetsAreSupported() {
	score, err := s.scorer.Score("mañana niño", "es")
	s.Require().NoError(err)
	s.GreaterOrEqual(score, MinScore)
	s.LessOrEqual(score, MaxScore)
}

func (s *ScorerTestSuite) TestRepetitionScoresLowerThanVariety() {
	repeated, err := s.scorer.Score("ababababab", "en")
	s.Require().NoError(err)

	varied, err := s.scorer.Score("abqjzkxvwy", "en")
	s.Require().NoError(err)

	s.Greater(varied, repeated)
}

func (s *ScorerTestSuite) TestExtraTablesOverrideBuiltins() {
	scorer := New(&Config{
		ExtraTables: map[string]*LanguageTable{
			"xx": {
				Frequencies:     map[rune]float64{'a': 0.5, 'b': 0.5},
				CalibrationLow:  1,
				CalibrationHigh: 10,
			},
		},
	})

	score, err := scorer.Score("abba", "xx")
	s.Require().NoError(err)
	s.GreaterOrEqual(score, MinScore)
	s.LessOrEqual(score, MaxScore)
}
