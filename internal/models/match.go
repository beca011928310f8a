// internal/models/match.go
package models

import "time"

// SubScores are the weighted components behind an overall match score.
// All values are percentages in [0, 100].
type SubScores struct {
	SkillsMatch     float64 `json:"skillsMatch" db:"skills_match"`
	ExperienceMatch float64 `json:"experienceMatch" db:"experience_match"`
	TextSimilarity  float64 `json:"textSimilarity" db:"text_similarity"`
	AIScore         float64 `json:"aiScore" db:"ai_score"`
	EducationMatch  float64 `json:"educationMatch" db:"education_match"`
}

// AIAnalysis is the model-produced assessment of a candidate against a posting.
// Degraded marks results that fell back to defaults because the model call failed.
type AIAnalysis struct {
	SkillsMatch     int      `json:"skillsMatch"`
	ExperienceMatch int      `json:"experienceMatch"`
	EducationMatch  int      `json:"educationMatch"`
	OverallFit      int      `json:"overallFit"`
	Strengths       []string `json:"strengths,omitempty"`
	Gaps            []string `json:"gaps,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Degraded        bool     `json:"degraded"`
	DegradedReason  string   `json:"degradedReason,omitempty"`
}

// RankedMatch is one candidate's scored result for a posting.
type RankedMatch struct {
	ID             string     `json:"id" db:"id"`
	PostingID      string     `json:"postingId" db:"posting_id"`
	CandidateID    string     `json:"candidateId" db:"candidate_id"`
	CandidateName  string     `json:"candidateName" db:"candidate_name"`
	CandidateEmail string     `json:"candidateEmail" db:"candidate_email"`
	OverallScore   float64    `json:"overallScore" db:"overall_score"`
	SubScores      SubScores  `json:"subScores"`
	MatchedSkills  []string   `json:"matchedSkills" db:"matched_skills"`
	MissingSkills  []string   `json:"missingSkills" db:"missing_skills"`
	AIAnalysis     AIAnalysis `json:"aiAnalysis"`
	// Report is the rendered per-candidate summary, stored alongside the
	// scores so downstream consumers get it without re-rendering.
	Report    string    `json:"report" db:"report"`
	AppliedAt time.Time `json:"appliedAt" db:"applied_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MatchRunResult summarizes one batch run over a posting. MaxCandidates is
// the shortlist cap that applied to the run (the posting's own value, or
// the service default).
type MatchRunResult struct {
	PostingID       string        `json:"postingId"`
	PostingTitle    string        `json:"postingTitle"`
	TotalApplicants int           `json:"totalApplicants"`
	Scored          int           `json:"scored"`
	Skipped         int           `json:"skipped"`
	Failed          int           `json:"failed"`
	MaxCandidates   int           `json:"maxCandidates"`
	Matches         []RankedMatch `json:"matches"`
	StartedAt       time.Time     `json:"startedAt"`
	CompletedAt     time.Time     `json:"completedAt"`
}
