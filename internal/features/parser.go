// Package features parses structured candidate fields out of raw resume text.
package features

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"
)

// UnknownCandidateName is used when no plausible name is found near the top
// of the resume.
const UnknownCandidateName = "Unknown Candidate"

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Tried in order; the first match wins.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\d{10}`),
	}

	// Tried broadest-last: explicit "N years of experience" phrasings, the
	// "experience ... N years" form with intervening words, then a bare
	// "N+ years" mention anywhere.
	experiencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\s*(?:of\s*)?(?:experience|exp)`),
		regexp.MustCompile(`(?i)(?:experience|exp)\b[^\n]*?(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`),
	}
)

// Parser extracts candidate features from resume text using a fixed skill
// vocabulary. The vocabulary is injectable for tests and per-deployment
// tuning.
type Parser struct {
	vocabulary    []string
	skillPatterns []*regexp.Regexp
	logger        logger.Logger
}

func NewParser(vocabulary []string, log logger.Logger) *Parser {
	if len(vocabulary) == 0 {
		vocabulary = DefaultSkillVocabulary
	}

	patterns := make([]*regexp.Regexp, len(vocabulary))
	for i, skill := range vocabulary {
		patterns[i] = regexp.MustCompile(`(?i)` + boundedPattern(skill))
	}

	return &Parser{
		vocabulary:    vocabulary,
		skillPatterns: patterns,
		logger:        log,
	}
}

// Parse extracts all candidate features from resume text. Missing fields
// degrade to zero values; parsing never fails.
func (p *Parser) Parse(text string) models.CandidateFeatures {
	f := models.CandidateFeatures{
		Name:            p.ExtractName(text),
		Email:           p.ExtractEmail(text),
		Phone:           p.ExtractPhone(text),
		Skills:          p.ExtractSkills(text),
		ExperienceYears: p.ExtractExperienceYears(text),
		RawText:         text,
	}

	p.logger.Debug("parsed resume features", map[string]interface{}{
		"name":            f.Name,
		"skillCount":      len(f.Skills),
		"experienceYears": f.ExperienceYears,
	})

	return f
}

// boundedPattern quotes a skill and anchors it on word boundaries. `\b` only
// works next to word characters, so skills like "c++" or "c#" get explicit
// lookaround-free guards instead.
func boundedPattern(skill string) string {
	quoted := regexp.QuoteMeta(skill)

	runes := []rune(skill)
	first, last := runes[0], runes[len(runes)-1]

	prefix := `\b`
	if !isWordRune(first) {
		prefix = ``
	}
	suffix := `\b`
	if !isWordRune(last) {
		suffix = `($|[^+#./\w])`
	}

	return prefix + quoted + suffix
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ExtractEmail returns the first email address in the text, or "".
func (p *Parser) ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPhone returns the first phone number matched by any known pattern,
// or "".
func (p *Parser) ExtractPhone(text string) string {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

// ExtractName scans the first five lines for something that looks like a
// person's name: 2 to 4 purely alphabetic words on a line of plausible
// length. Resumes that open with addresses or headlines fall through to
// UnknownCandidateName.
func (p *Parser) ExtractName(text string) string {
	lines := strings.Split(text, "\n")
	limit := 5
	if len(lines) < limit {
		limit = len(lines)
	}

	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) <= 3 || len(line) >= 50 {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}

		if allAlphabetic(words) {
			return line
		}
	}

	return UnknownCandidateName
}

func allAlphabetic(words []string) bool {
	for _, word := range words {
		for _, r := range word {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// ExtractSkills returns every vocabulary skill mentioned in the text, in
// vocabulary order.
func (p *Parser) ExtractSkills(text string) []string {
	var found []string
	for i, pattern := range p.skillPatterns {
		if pattern.MatchString(text) {
			found = append(found, p.vocabulary[i])
		}
	}
	return found
}

// ExtractExperienceYears returns the largest number of years claimed in any
// "N years of experience" phrasing, or 0 when none is found.
func (p *Parser) ExtractExperienceYears(text string) float64 {
	var max float64
	for _, pattern := range experiencePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			years, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}
			if years > max {
				max = years
			}
		}
	}
	return max
}

// MergeSkills unions extra skill names (e.g. from AI resume structuring)
// into an existing skill list, preserving the original order and appending
// unseen skills in their given order. Comparison is case-insensitive.
func MergeSkills(base []string, extra []string) []string {
	seen := make(map[string]bool, len(base))
	merged := make([]string, 0, len(base)+len(extra))
	for _, s := range base {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, s)
	}
	for _, s := range extra {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, strings.TrimSpace(s))
	}
	return merged
}
