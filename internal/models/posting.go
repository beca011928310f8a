// internal/models/posting.go
package models

import "time"

// Posting lifecycle statuses.
const (
	PostingStatusActive    = "active"
	PostingStatusClosed    = "closed"
	PostingStatusProcessed = "processed"
)

type JobPosting struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	CompanyName     string     `json:"companyName" db:"company_name"`
	Description     string     `json:"description" db:"description"`
	RequiredSkills  []string   `json:"requiredSkills" db:"required_skills"`
	PreferredSkills []string   `json:"preferredSkills,omitempty" db:"preferred_skills"`
	ExperienceLevel string     `json:"experienceLevel" db:"experience_level"`
	// MaxCandidates caps the notified shortlist for this posting; zero
	// means the service default applies.
	MaxCandidates int        `json:"maxCandidates,omitempty" db:"max_candidates"`
	Status        string     `json:"status" db:"status"`
	RecruiterID     string     `json:"recruiterId" db:"recruiter_id"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
}

type Recruiter struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

// Application links a candidate to a posting they applied for.
type Application struct {
	ID          string    `json:"id" db:"id"`
	PostingID   string    `json:"postingId" db:"posting_id"`
	CandidateID string    `json:"candidateId" db:"candidate_id"`
	Status      string    `json:"status" db:"status"`
	AppliedAt   time.Time `json:"appliedAt" db:"applied_at"`
}
