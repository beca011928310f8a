// internal/workers/matching/rank-applicants/models.go
package rankapplicants

import "time"

type Input struct {
	PostingID string `json:"postingId"`
	Trigger   string `json:"trigger,omitempty"` // manual (default) or scheduled
}

type Output struct {
	PostingID       string         `json:"postingId"`
	TotalApplicants int            `json:"totalApplicants"`
	Scored          int            `json:"scored"`
	Skipped         int            `json:"skipped"`
	Failed          int            `json:"failed"`
	TopCandidates   []TopCandidate `json:"topCandidates"`
	CompletedAt     time.Time      `json:"completedAt"`
}

type TopCandidate struct {
	CandidateID   string  `json:"candidateId"`
	CandidateName string  `json:"candidateName"`
	OverallScore  float64 `json:"overallScore"`
}
