// internal/workers/matching/rank-applicants/config.go
package rankapplicants

import "time"

// defaultMaxCandidates bounds the shortlist in the job output when the run
// result carries no cap of its own.
const defaultMaxCandidates = 5

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// A full run walks every applicant, so the budget is generous.
		Timeout: 10 * time.Minute,
	}
}
