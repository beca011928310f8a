// Package scoring computes the weighted match score between a candidate and
// a job posting.
package scoring

import (
	"math"
	"strings"

	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"
)

// Component weights. Education is reported but carries no weight until the
// dedicated education scorer replaces the AI-derived placeholder.
const (
	weightSkills     = 0.35
	weightExperience = 0.25
	weightText       = 0.20
	weightAI         = 0.20

	// Fallback when similarity can't be computed (empty or degenerate text).
	neutralTextScore = 50.0
)

// experienceBand is the expected years range for a seniority level.
type experienceBand struct {
	min float64
	max float64
}

var experienceBands = map[string]experienceBand{
	"entry":     {0, 2},
	"junior":    {1, 3},
	"mid":       {3, 6},
	"senior":    {6, 10},
	"lead":      {8, 15},
	"principal": {10, 20},
}

// Scorer computes sub-scores and the weighted overall score.
type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// SkillsResult is the outcome of comparing candidate skills to a posting's
// required skills.
type SkillsResult struct {
	Score   float64
	Matched []string
	Missing []string
}

// ScoreSkills compares candidate skills against the posting's required
// skills. Matching is case-insensitive; matched and missing lists preserve
// the posting's declaration order. A posting with no required skills scores
// 100 vacuously.
func (s *Scorer) ScoreSkills(candidateSkills, requiredSkills []string) SkillsResult {
	if len(requiredSkills) == 0 {
		return SkillsResult{Score: 100}
	}

	have := make(map[string]bool, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[strings.ToLower(strings.TrimSpace(skill))] = true
	}

	result := SkillsResult{}
	for _, required := range requiredSkills {
		if have[strings.ToLower(strings.TrimSpace(required))] {
			result.Matched = append(result.Matched, required)
		} else {
			result.Missing = append(result.Missing, required)
		}
	}

	result.Score = float64(len(result.Matched)) / float64(len(requiredSkills)) * 100
	return result
}

// ScoreExperience rates candidate years against the posting's seniority
// band. Inside the band scores 100. Each missing year below the minimum
// costs 20 points (floor 0); each excess year above the maximum costs 5
// points (floor 70) since overqualification is a much weaker signal than
// underqualification. Unknown levels accept any experience.
func (s *Scorer) ScoreExperience(years float64, experienceLevel string) float64 {
	band, ok := experienceBands[strings.ToLower(strings.TrimSpace(experienceLevel))]
	if !ok {
		band = experienceBand{0, 100}
	}

	switch {
	case years >= band.min && years <= band.max:
		return 100
	case years < band.min:
		gap := band.min - years
		return math.Max(0, 100-gap*20)
	default:
		excess := years - band.max
		return math.Max(70, 100-excess*5)
	}
}

// ScoreTextSimilarity computes TF-IDF cosine similarity between the posting
// text and the resume text, scaled to [0, 100]. Degenerate input falls back
// to a neutral 50.
func (s *Scorer) ScoreTextSimilarity(postingText, resumeText string) float64 {
	sim, ok := textSimilarity(postingText, resumeText)
	if !ok {
		s.logger.Debug("text similarity unavailable, using neutral score", nil)
		return neutralTextScore
	}
	return sim
}

// Score combines all sub-scores into the final ranking score, rounded to two
// decimals.
func (s *Scorer) Score(sub models.SubScores) float64 {
	overall := weightSkills*sub.SkillsMatch +
		weightExperience*sub.ExperienceMatch +
		weightText*sub.TextSimilarity +
		weightAI*sub.AIScore

	return round2(overall)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
