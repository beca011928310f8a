// internal/matching/report.go
package matching

import (
	"fmt"
	"strings"

	"talentmatch-workers/internal/models"
)

// renderCandidateReport builds the fixed-format text summary stored on each
// ranked match. Downstream consumers treat it as an opaque string.
func renderCandidateReport(posting *models.JobPosting, m *models.RankedMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Match Report: %s\n", m.CandidateName)
	fmt.Fprintf(&b, "Position: %s at %s\n", posting.Title, posting.CompanyName)
	fmt.Fprintf(&b, "Overall match: %.2f/100\n\n", m.OverallScore)

	b.WriteString("Scores:\n")
	fmt.Fprintf(&b, "  Skills:          %.2f\n", m.SubScores.SkillsMatch)
	fmt.Fprintf(&b, "  Experience:      %.2f\n", m.SubScores.ExperienceMatch)
	fmt.Fprintf(&b, "  Text similarity: %.2f\n", m.SubScores.TextSimilarity)
	fmt.Fprintf(&b, "  AI assessment:   %.2f\n", m.SubScores.AIScore)
	fmt.Fprintf(&b, "  Education:       %.2f\n", m.SubScores.EducationMatch)

	if len(m.MatchedSkills) > 0 {
		fmt.Fprintf(&b, "\nMatched skills: %s\n", strings.Join(m.MatchedSkills, ", "))
	}
	if len(m.MissingSkills) > 0 {
		fmt.Fprintf(&b, "Missing skills: %s\n", strings.Join(m.MissingSkills, ", "))
	}

	if m.AIAnalysis.Degraded {
		b.WriteString("\nAI analysis was unavailable for this candidate.\n")
		return b.String()
	}

	writeBulletSection(&b, "Strengths", m.AIAnalysis.Strengths)
	writeBulletSection(&b, "Gaps", m.AIAnalysis.Gaps)
	writeBulletSection(&b, "Recommendations", m.AIAnalysis.Recommendations)

	return b.String()
}

func writeBulletSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
