// internal/ai/parse.go
package ai

import (
	"regexp"
	"strconv"
	"strings"

	"talentmatch-workers/internal/models"
)

var (
	scoreLabelPattern  = regexp.MustCompile(`(?m)^\s*([A-Z_]+):\s*(\d+)`)
	bulletPattern      = regexp.MustCompile(`(?m)^\s*-\s*(.+)$`)
	sectionHeadPattern = regexp.MustCompile(`(?m)^\s*([A-Z_]+):`)
)

// parseMatchResponse extracts the labeled scores and bullet sections from the
// model's formatted reply. Missing scores default to 0; values are clamped to
// [0, 100]. A reply that matches nothing still yields a usable zero analysis.
func parseMatchResponse(raw string) models.AIAnalysis {
	scores := extractScores(raw)
	sections := splitSections(raw)

	return models.AIAnalysis{
		SkillsMatch:     scores["SKILLS_MATCH"],
		ExperienceMatch: scores["EXPERIENCE_MATCH"],
		EducationMatch:  scores["EDUCATION_MATCH"],
		OverallFit:      scores["OVERALL_FIT"],
		Strengths:       extractBullets(sections["STRENGTHS"]),
		Gaps:            extractBullets(sections["GAPS"]),
		Recommendations: extractBullets(sections["RECOMMENDATIONS"]),
	}
}

func parseStructureResponse(raw string) ResumeStructure {
	sections := splitSections(raw)

	return ResumeStructure{
		Summary:          sectionText(sections["SUMMARY"]),
		Experience:       sectionText(sections["EXPERIENCE"]),
		Education:        sectionText(sections["EDUCATION"]),
		Certifications:   sectionText(sections["CERTIFICATIONS"]),
		Projects:         sectionText(sections["PROJECTS"]),
		AdditionalSkills: splitSkillList(sections["ADDITIONAL_SKILLS"]),
	}
}

func extractScores(raw string) map[string]int {
	scores := make(map[string]int)
	for _, match := range scoreLabelPattern.FindAllStringSubmatch(raw, -1) {
		value, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		scores[match[1]] = clampScore(value)
	}
	return scores
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// splitSections maps each LABEL: heading to the text between it and the next
// heading.
func splitSections(raw string) map[string]string {
	heads := sectionHeadPattern.FindAllStringSubmatchIndex(raw, -1)
	sections := make(map[string]string, len(heads))
	for i, head := range heads {
		label := raw[head[2]:head[3]]
		start := head[1]
		end := len(raw)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		sections[label] = strings.TrimSpace(raw[start:end])
	}
	return sections
}

func extractBullets(section string) []string {
	var items []string
	for _, match := range bulletPattern.FindAllStringSubmatch(section, -1) {
		item := strings.TrimSpace(match[1])
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func sectionText(section string) string {
	section = strings.TrimSpace(section)
	if strings.EqualFold(section, "none") {
		return ""
	}
	return section
}

func splitSkillList(section string) []string {
	section = sectionText(section)
	if section == "" {
		return nil
	}
	parts := strings.Split(section, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if skill := strings.TrimSpace(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	if len(skills) == 0 {
		return nil
	}
	return skills
}
