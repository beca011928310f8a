// Package ai analyzes candidate resumes against job postings with Gemini.
// Every analysis call degrades gracefully: a model failure yields a
// zero-scored result flagged Degraded instead of an error, so a batch run
// over many candidates never stalls on the model.
package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"
)

const (
	maxJobDescriptionChars = 1000
	maxResumeChars         = 1500
	maxStructureChars      = 2000
)

// contentGenerator is the narrow surface of Generator the client needs.
// Tests substitute fakes.
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Client turns posting/resume pairs into structured analyses.
type Client struct {
	generator contentGenerator
	logger    logger.Logger
}

func NewClient(generator contentGenerator, log logger.Logger) *Client {
	return &Client{generator: generator, logger: log}
}

// ResumeStructure is the model's sectioned summary of a resume.
type ResumeStructure struct {
	Summary          string   `json:"summary"`
	Experience       string   `json:"experience"`
	Education        string   `json:"education"`
	Certifications   string   `json:"certifications"`
	Projects         string   `json:"projects"`
	AdditionalSkills []string `json:"additionalSkills"`
}

// AnalyzeResumeMatch asks the model to rate a candidate against a posting.
// On any model failure the returned analysis is marked Degraded and carries
// all-zero scores, so a dead model contributes nothing to the overall score;
// the error is logged, never propagated.
func (c *Client) AnalyzeResumeMatch(ctx context.Context, jobDescription, resumeText string, requiredSkills, preferredSkills []string) models.AIAnalysis {
	prompt := buildMatchPrompt(jobDescription, resumeText, requiredSkills, preferredSkills)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		stdErr := classifyModelError(err)
		c.logger.Warn("ai analysis degraded", map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": err.Error(),
		})
		return degradedAnalysis(stdErr)
	}

	analysis := parseMatchResponse(raw)

	c.logger.Debug("ai analysis complete", map[string]interface{}{
		"overallFit":  analysis.OverallFit,
		"skillsMatch": analysis.SkillsMatch,
	})

	return analysis
}

// StructureResume asks the model to break resume text into labeled sections.
// Degrades to an empty structure on model failure.
func (c *Client) StructureResume(ctx context.Context, resumeText string) ResumeStructure {
	prompt := buildStructurePrompt(resumeText)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		c.logger.Warn("resume structuring degraded", map[string]interface{}{
			"error": err.Error(),
		})
		return ResumeStructure{}
	}

	return parseStructureResponse(raw)
}

func buildMatchPrompt(jobDescription, resumeText string, requiredSkills, preferredSkills []string) string {
	return fmt.Sprintf(`You are an expert technical recruiter. Analyze how well this candidate's resume matches the job posting.

JOB DESCRIPTION:
%s

REQUIRED SKILLS: %s
PREFERRED SKILLS: %s

RESUME:
%s

Respond using EXACTLY this format:

SKILLS_MATCH: <0-100>
EXPERIENCE_MATCH: <0-100>
EDUCATION_MATCH: <0-100>
OVERALL_FIT: <0-100>

STRENGTHS:
- <strength>

GAPS:
- <gap>

RECOMMENDATIONS:
- <recommendation>`,
		truncate(jobDescription, maxJobDescriptionChars),
		strings.Join(requiredSkills, ", "),
		strings.Join(preferredSkills, ", "),
		truncate(resumeText, maxResumeChars),
	)
}

func buildStructurePrompt(resumeText string) string {
	return fmt.Sprintf(`Extract the following sections from this resume. If a section is absent write "None".

RESUME:
%s

Respond using EXACTLY this format:

SUMMARY: <one-paragraph professional summary>
EXPERIENCE: <work history summary>
EDUCATION: <education summary>
CERTIFICATIONS: <certifications if any>
PROJECTS: <notable projects if any>
ADDITIONAL_SKILLS: <comma-separated skills mentioned in the resume>`,
		truncate(resumeText, maxStructureChars),
	)
}

// classifyModelError maps a generator failure onto the standard taxonomy:
// deadline expiry is a timeout, everything else counts as the model being
// unavailable.
func classifyModelError(err error) *errors.StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewModelTimeoutError()
	}
	return errors.NewModelUnavailableError(err)
}

// degradedAnalysis carries zero scores so the AI component contributes
// nothing to the weighted overall when the model is down.
func degradedAnalysis(stdErr *errors.StandardError) models.AIAnalysis {
	return models.AIAnalysis{
		Degraded:       true,
		DegradedReason: fmt.Sprintf("Analysis unavailable: %s", stdErr.Details),
	}
}

// truncate cuts on a rune boundary so a budget landing inside a multi-byte
// character never sends invalid UTF-8 into the prompt.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
