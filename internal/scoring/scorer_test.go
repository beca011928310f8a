// internal/scoring/scorer_test.go
package scoring

import (
	"testing"

	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestScorer(t *testing.T) *Scorer {
	return NewScorer(logger.NewTestLogger(t))
}

// ==========================
// Skills Score Tests
// ==========================

func TestScorer_ScoreSkills(t *testing.T) {
	tests := []struct {
		name            string
		candidateSkills []string
		requiredSkills  []string
		expectedScore   float64
		expectedMatched []string
		expectedMissing []string
	}{
		{
			name:            "all matched",
			candidateSkills: []string{"go", "sql", "docker"},
			requiredSkills:  []string{"go", "sql"},
			expectedScore:   100,
			expectedMatched: []string{"go", "sql"},
		},
		{
			name:            "half matched",
			candidateSkills: []string{"go"},
			requiredSkills:  []string{"go", "kubernetes"},
			expectedScore:   50,
			expectedMatched: []string{"go"},
			expectedMissing: []string{"kubernetes"},
		},
		{
			name:            "none matched",
			candidateSkills: []string{"php"},
			requiredSkills:  []string{"go", "rust"},
			expectedScore:   0,
			expectedMissing: []string{"go", "rust"},
		},
		{
			name:            "no required skills is vacuous full score",
			candidateSkills: []string{"go"},
			requiredSkills:  nil,
			expectedScore:   100,
		},
		{
			name:            "case insensitive",
			candidateSkills: []string{"Go", "PostgreSQL"},
			requiredSkills:  []string{"go", "postgresql"},
			expectedScore:   100,
			expectedMatched: []string{"go", "postgresql"},
		},
		{
			name:            "empty candidate skills",
			candidateSkills: nil,
			requiredSkills:  []string{"go"},
			expectedScore:   0,
			expectedMissing: []string{"go"},
		},
	}

	s := newTestScorer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.ScoreSkills(tt.candidateSkills, tt.requiredSkills)
			assert.InDelta(t, tt.expectedScore, result.Score, 0.01)
			assert.Equal(t, tt.expectedMatched, result.Matched)
			assert.Equal(t, tt.expectedMissing, result.Missing)
		})
	}
}

func TestScorer_ScoreSkills_PostingOrderPreserved(t *testing.T) {
	s := newTestScorer(t)

	result := s.ScoreSkills(
		[]string{"sql", "go"},
		[]string{"go", "rust", "sql", "zig"},
	)

	assert.Equal(t, []string{"go", "sql"}, result.Matched)
	assert.Equal(t, []string{"rust", "zig"}, result.Missing)
}

// ==========================
// Experience Score Tests
// ==========================

func TestScorer_ScoreExperience(t *testing.T) {
	tests := []struct {
		name     string
		years    float64
		level    string
		expected float64
	}{
		{"mid in band", 4, "mid", 100},
		{"mid at lower edge", 3, "mid", 100},
		{"mid at upper edge", 6, "mid", 100},
		{"mid two years short", 1, "mid", 60},
		{"mid three years over", 9, "mid", 85},
		{"entry zero years", 0, "entry", 100},
		{"senior far below", 0, "senior", 0},
		{"senior slightly below", 5, "senior", 80},
		{"lead deep overshoot floors at 70", 40, "lead", 70},
		{"principal in band", 12, "principal", 100},
		{"unknown level accepts anything", 2, "architect", 100},
		{"unknown level empty string", 0, "", 100},
		{"fractional years", 2.5, "mid", 90},
	}

	s := newTestScorer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.ScoreExperience(tt.years, tt.level), 0.01)
		})
	}
}

func TestScorer_ScoreExperience_LevelCaseInsensitive(t *testing.T) {
	s := newTestScorer(t)
	assert.Equal(t, s.ScoreExperience(4, "mid"), s.ScoreExperience(4, " MID "))
}

// ==========================
// Text Similarity Tests
// ==========================

func TestScorer_ScoreTextSimilarity(t *testing.T) {
	s := newTestScorer(t)

	t.Run("identical text scores full", func(t *testing.T) {
		text := "golang backend engineer building distributed systems"
		assert.InDelta(t, 100, s.ScoreTextSimilarity(text, text), 0.01)
	})

	t.Run("disjoint text scores zero", func(t *testing.T) {
		score := s.ScoreTextSimilarity(
			"golang kubernetes microservices",
			"watercolor painting pottery gardening",
		)
		assert.InDelta(t, 0, score, 0.01)
	})

	t.Run("overlapping text scores between", func(t *testing.T) {
		score := s.ScoreTextSimilarity(
			"golang backend engineer with postgres experience",
			"backend engineer, postgres and redis, mostly python",
		)
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 100.0)
	})

	t.Run("empty text falls back to neutral", func(t *testing.T) {
		assert.Equal(t, neutralTextScore, s.ScoreTextSimilarity("", "resume text here"))
		assert.Equal(t, neutralTextScore, s.ScoreTextSimilarity("posting text", ""))
	})

	t.Run("stopword-only text falls back to neutral", func(t *testing.T) {
		assert.Equal(t, neutralTextScore, s.ScoreTextSimilarity("the and of", "is was were"))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := "golang services on kubernetes"
		b := "python data pipelines on kubernetes"
		assert.InDelta(t, s.ScoreTextSimilarity(a, b), s.ScoreTextSimilarity(b, a), 0.0001)
	})
}

// ==========================
// Overall Score Tests
// ==========================

func TestScorer_Score(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		sub      models.SubScores
		expected float64
	}{
		{
			name: "all full",
			sub: models.SubScores{
				SkillsMatch: 100, ExperienceMatch: 100, TextSimilarity: 100, AIScore: 100,
			},
			expected: 100,
		},
		{
			name:     "all zero",
			sub:      models.SubScores{},
			expected: 0,
		},
		{
			name: "mixed weights applied",
			sub: models.SubScores{
				SkillsMatch: 80, ExperienceMatch: 60, TextSimilarity: 40, AIScore: 50,
			},
			// 80*0.35 + 60*0.25 + 40*0.20 + 50*0.20 = 28 + 15 + 8 + 10 = 61
			expected: 61,
		},
		{
			name: "education carries no weight",
			sub: models.SubScores{
				SkillsMatch: 50, ExperienceMatch: 50, TextSimilarity: 50, AIScore: 50,
				EducationMatch: 100,
			},
			expected: 50,
		},
		{
			name: "rounded to two decimals",
			sub: models.SubScores{
				SkillsMatch: 33.333, ExperienceMatch: 66.667, TextSimilarity: 10, AIScore: 20,
			},
			// 11.66655 + 16.66675 + 2 + 4 = 34.3333 → 34.33
			expected: 34.33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Score(tt.sub), 0.001)
		})
	}
}
