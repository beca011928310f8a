// Package matching runs the end-to-end ranking pipeline for a posting:
// fetch applicants, pull and extract resumes, parse features, call the AI
// analyst, score, persist the rebuilt ranking, then fan out notifications
// and search indexing. One candidate failing never aborts the run.
package matching

import (
	"context"
	"sort"
	"strings"
	"time"

	"talentmatch-workers/internal/ai"
	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/common/metrics"
	"talentmatch-workers/internal/extractor"
	"talentmatch-workers/internal/features"
	"talentmatch-workers/internal/models"
	"talentmatch-workers/internal/notify"
	"talentmatch-workers/internal/scoring"
)

// matchStore is the slice of the persistence layer the pipeline needs.
type matchStore interface {
	GetPosting(ctx context.Context, postingID string) (*models.JobPosting, error)
	GetRecruiter(ctx context.Context, recruiterID string) (*models.Recruiter, error)
	ListApplications(ctx context.Context, postingID string) ([]models.Application, error)
	GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error)
	GetLatestResume(ctx context.Context, candidateID string) (*models.ResumeDocument, error)
	GetResumeBytes(ctx context.Context, doc *models.ResumeDocument) ([]byte, error)
	RebuildMatches(ctx context.Context, postingID string, matches []models.RankedMatch) error
	UpdatePostingStatus(ctx context.Context, postingID, status string) error
}

type resumeAnalyzer interface {
	AnalyzeResumeMatch(ctx context.Context, jobDescription, resumeText string, requiredSkills, preferredSkills []string) models.AIAnalysis
	StructureResume(ctx context.Context, resumeText string) ai.ResumeStructure
}

type reportSender interface {
	SendMatchReport(ctx context.Context, recruiter *models.Recruiter, posting *models.JobPosting, result *models.MatchRunResult, matches []models.RankedMatch) error
	SendTopMatchNotice(ctx context.Context, posting *models.JobPosting, match *models.RankedMatch) error
}

type eventSender interface {
	PublishRunCompleted(ctx context.Context, eventType string, result *models.MatchRunResult) error
}

type matchIndexer interface {
	IndexMatches(ctx context.Context, posting *models.JobPosting, matches []models.RankedMatch) error
}

type Config struct {
	MaxCandidates    int
	CandidateTimeout time.Duration
}

type Orchestrator struct {
	store     matchStore
	extractor extractor.Extractor
	parser    *features.Parser
	analyzer  resumeAnalyzer
	scorer    *scoring.Scorer
	lock      *RunLock
	email     reportSender
	events    eventSender
	indexer   matchIndexer
	config    Config
	logger    logger.Logger
}

type Dependencies struct {
	Store     matchStore
	Extractor extractor.Extractor
	Parser    *features.Parser
	Analyzer  resumeAnalyzer
	Scorer    *scoring.Scorer
	Lock      *RunLock
	Email     reportSender
	Events    eventSender
	Indexer   matchIndexer
	Logger    logger.Logger
}

func NewOrchestrator(deps Dependencies, config Config) *Orchestrator {
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 5
	}
	if config.CandidateTimeout <= 0 {
		config.CandidateTimeout = 90 * time.Second
	}
	return &Orchestrator{
		store:     deps.Store,
		extractor: deps.Extractor,
		parser:    deps.Parser,
		analyzer:  deps.Analyzer,
		scorer:    deps.Scorer,
		lock:      deps.Lock,
		email:     deps.Email,
		events:    deps.Events,
		indexer:   deps.Indexer,
		config:    config,
		logger:    deps.Logger,
	}
}

// RunMatch executes a full ranking run for a posting. The stored ranking is
// rebuilt from scratch on every run, so reruns after new applications or
// resume updates always reflect the latest state.
func (o *Orchestrator) RunMatch(ctx context.Context, postingID, trigger string) (*models.MatchRunResult, error) {
	acquired, err := o.lock.Acquire(ctx, postingID)
	if err != nil {
		return nil, errors.NewExternalServiceError("redis", err)
	}
	if !acquired {
		return nil, errors.NewRunInProgressError(postingID)
	}
	defer func() {
		if err := o.lock.Release(context.WithoutCancel(ctx), postingID); err != nil {
			o.logger.Warn("failed to release run lock", map[string]interface{}{
				"postingId": postingID,
				"error":     err.Error(),
			})
		}
	}()

	startedAt := time.Now().UTC()
	timer := time.Now()

	posting, err := o.store.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	applications, err := o.store.ListApplications(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if len(applications) == 0 {
		return nil, errors.NewNoApplicantsError(postingID)
	}

	o.logger.Info("matching run started", map[string]interface{}{
		"postingId":  postingID,
		"trigger":    trigger,
		"applicants": len(applications),
	})

	result := &models.MatchRunResult{
		PostingID:       postingID,
		PostingTitle:    posting.Title,
		TotalApplicants: len(applications),
		MaxCandidates:   o.shortlistSize(posting),
		StartedAt:       startedAt,
	}

	var matches []models.RankedMatch
	for _, app := range applications {
		match, outcome := o.scoreCandidate(ctx, posting, app)
		metrics.MatchCandidatesScored.WithLabelValues(outcome).Inc()

		switch outcome {
		case outcomeScored:
			matches = append(matches, *match)
			result.Scored++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	sortMatches(matches)

	if err := o.store.RebuildMatches(ctx, postingID, matches); err != nil {
		return nil, err
	}

	result.Matches = matches
	result.CompletedAt = time.Now().UTC()
	metrics.MatchRunDuration.WithLabelValues(trigger).Observe(time.Since(timer).Seconds())

	o.fanOut(ctx, posting, result)

	o.logger.Info("matching run completed", map[string]interface{}{
		"postingId": postingID,
		"scored":    result.Scored,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})

	return result, nil
}

const (
	outcomeScored  = "scored"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// scoreCandidate processes one applicant under its own deadline. Candidates
// without a readable resume are skipped silently; everything else that goes
// wrong is counted as a failure and the run moves on.
func (o *Orchestrator) scoreCandidate(parent context.Context, posting *models.JobPosting, app models.Application) (*models.RankedMatch, string) {
	ctx, cancel := context.WithTimeout(parent, o.config.CandidateTimeout)
	defer cancel()

	candidate, err := o.store.GetCandidate(ctx, app.CandidateID)
	if err != nil {
		o.logCandidateFailure(app.CandidateID, "candidate lookup failed", err)
		return nil, outcomeFailed
	}

	doc, err := o.store.GetLatestResume(ctx, app.CandidateID)
	if err != nil {
		o.logCandidateFailure(app.CandidateID, "resume lookup failed", err)
		return nil, outcomeFailed
	}
	if doc == nil {
		o.logger.Debug("candidate has no resume on file, skipping", map[string]interface{}{
			"candidateId": app.CandidateID,
		})
		return nil, outcomeSkipped
	}

	data, err := o.store.GetResumeBytes(ctx, doc)
	if err != nil {
		o.logCandidateFailure(app.CandidateID, "resume download failed", err)
		return nil, outcomeFailed
	}

	text, err := o.extractor.ExtractText(ctx, data, doc.FileName)
	if err != nil {
		o.logCandidateFailure(app.CandidateID, "resume extraction failed",
			errors.NewExtractionFailedError(err.Error()))
		return nil, outcomeFailed
	}
	if strings.TrimSpace(text) == "" {
		o.logger.Debug("resume extracted to empty text, skipping", map[string]interface{}{
			"candidateId": app.CandidateID,
		})
		return nil, outcomeSkipped
	}

	feats := o.parser.Parse(text)
	structure := o.analyzer.StructureResume(ctx, text)
	candidateSkills := features.MergeSkills(feats.Skills, structure.AdditionalSkills)

	analysis := o.analyzer.AnalyzeResumeMatch(ctx, posting.Description, text, posting.RequiredSkills, posting.PreferredSkills)
	if analysis.Degraded {
		metrics.MatchAIDegraded.Inc()
	}

	skillsResult := o.scorer.ScoreSkills(candidateSkills, posting.RequiredSkills)
	sub := models.SubScores{
		SkillsMatch:     skillsResult.Score,
		ExperienceMatch: o.scorer.ScoreExperience(feats.ExperienceYears, posting.ExperienceLevel),
		TextSimilarity:  o.scorer.ScoreTextSimilarity(postingSimilarityText(posting), candidateSimilarityText(structure.Summary, text, candidateSkills)),
		AIScore:         float64(analysis.OverallFit),
		EducationMatch:  float64(analysis.EducationMatch),
	}

	if ctx.Err() != nil {
		o.logCandidateFailure(app.CandidateID, "candidate processing timed out", ctx.Err())
		return nil, outcomeFailed
	}

	name := candidate.Name
	if name == "" {
		name = feats.Name
	}
	email := candidate.Email
	if email == "" {
		email = feats.Email
	}

	match := &models.RankedMatch{
		PostingID:      posting.ID,
		CandidateID:    candidate.ID,
		CandidateName:  name,
		CandidateEmail: email,
		OverallScore:   o.scorer.Score(sub),
		SubScores:      sub,
		MatchedSkills:  skillsResult.Matched,
		MissingSkills:  skillsResult.Missing,
		AIAnalysis:     analysis,
		AppliedAt:      app.AppliedAt,
		CreatedAt:      time.Now().UTC(),
	}
	match.Report = renderCandidateReport(posting, match)

	return match, outcomeScored
}

// candidateSimilarityText builds the candidate side of the similarity
// comparison: the structured summary plus skills, falling back to the full
// extracted text when structuring produced no summary.
func candidateSimilarityText(summary, fullText string, skills []string) string {
	base := strings.TrimSpace(summary)
	if base == "" {
		base = fullText
	}
	if len(skills) == 0 {
		return base
	}
	return base + " " + strings.Join(skills, " ")
}

// postingSimilarityText pairs the description with the posting's skill
// lists so required terminology weighs into the comparison.
func postingSimilarityText(posting *models.JobPosting) string {
	parts := []string{posting.Description}
	if len(posting.RequiredSkills) > 0 {
		parts = append(parts, strings.Join(posting.RequiredSkills, " "))
	}
	if len(posting.PreferredSkills) > 0 {
		parts = append(parts, strings.Join(posting.PreferredSkills, " "))
	}
	return strings.Join(parts, " ")
}

// shortlistSize is the posting's own cap when set, else the service default.
func (o *Orchestrator) shortlistSize(posting *models.JobPosting) int {
	if posting.MaxCandidates > 0 {
		return posting.MaxCandidates
	}
	return o.config.MaxCandidates
}

func (o *Orchestrator) logCandidateFailure(candidateID, msg string, err error) {
	o.logger.Warn(msg, map[string]interface{}{
		"candidateId": candidateID,
		"error":       err.Error(),
	})
}

// sortMatches orders best score first. Ties go to whoever applied earlier,
// then to the lexically smaller candidate id so output is deterministic.
func sortMatches(matches []models.RankedMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].OverallScore != matches[j].OverallScore {
			return matches[i].OverallScore > matches[j].OverallScore
		}
		if !matches[i].AppliedAt.Equal(matches[j].AppliedAt) {
			return matches[i].AppliedAt.Before(matches[j].AppliedAt)
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
}

// fanOut delivers the recruiter report, the top-candidate notices, the
// run event and the search index update. None of these can fail the run;
// problems are logged and dropped.
func (o *Orchestrator) fanOut(ctx context.Context, posting *models.JobPosting, result *models.MatchRunResult) {
	top := result.Matches
	if cap := o.shortlistSize(posting); len(top) > cap {
		top = top[:cap]
	}

	recruiter, err := o.store.GetRecruiter(ctx, posting.RecruiterID)
	if err != nil {
		o.logger.Warn("recruiter lookup failed, skipping report email", map[string]interface{}{
			"postingId": posting.ID,
			"error":     err.Error(),
		})
	} else if o.email != nil {
		if err := o.email.SendMatchReport(ctx, recruiter, posting, result, top); err != nil {
			o.logger.Warn("match report email failed", map[string]interface{}{
				"postingId": posting.ID,
				"error":     err.Error(),
			})
		}
	}

	if o.email != nil {
		for i := range top {
			m := &top[i]
			if m.CandidateEmail == "" {
				continue
			}
			if err := o.email.SendTopMatchNotice(ctx, posting, m); err != nil {
				o.logger.Warn("top match notice failed", map[string]interface{}{
					"postingId":   posting.ID,
					"candidateId": m.CandidateID,
					"error":       err.Error(),
				})
			}
		}
	}

	if o.events != nil {
		if err := o.events.PublishRunCompleted(ctx, notify.EventMatchingCompleted, result); err != nil {
			o.logger.Warn("run event publish failed", map[string]interface{}{
				"postingId": posting.ID,
				"error":     err.Error(),
			})
		}
	}

	if o.indexer != nil {
		if err := o.indexer.IndexMatches(ctx, posting, result.Matches); err != nil {
			o.logger.Warn("match indexing failed", map[string]interface{}{
				"postingId": posting.ID,
				"error":     err.Error(),
			})
		}
	}
}

// ProcessExpiredPosting finalizes a posting whose expiry has passed. When a
// ranking could be produced, the posting moves to processed and the
// recruiter gets the report; with no applicants or no usable resumes it
// simply closes.
func (o *Orchestrator) ProcessExpiredPosting(ctx context.Context, postingID string) (string, *models.MatchRunResult, error) {
	posting, err := o.store.GetPosting(ctx, postingID)
	if err != nil {
		return "", nil, err
	}
	if posting.Status != models.PostingStatusActive {
		// Already finalized by an earlier run.
		return posting.Status, nil, nil
	}

	result, err := o.RunMatch(ctx, postingID, "expiry")
	if err != nil {
		var stdErr *errors.StandardError
		if errors.AsStandardError(err, &stdErr) && stdErr.Code == errors.ErrCodeNoApplicants {
			if err := o.store.UpdatePostingStatus(ctx, postingID, models.PostingStatusClosed); err != nil {
				return "", nil, err
			}
			o.publishPostingProcessed(ctx, postingID, nil)
			return models.PostingStatusClosed, nil, nil
		}
		return "", nil, err
	}

	status := models.PostingStatusProcessed
	if result.Scored == 0 {
		status = models.PostingStatusClosed
	}
	if err := o.store.UpdatePostingStatus(ctx, postingID, status); err != nil {
		return "", nil, err
	}
	o.publishPostingProcessed(ctx, postingID, result)

	return status, result, nil
}

// publishPostingProcessed announces that expiry handling finalized a
// posting. A nil result means the posting closed without a run.
func (o *Orchestrator) publishPostingProcessed(ctx context.Context, postingID string, result *models.MatchRunResult) {
	if o.events == nil {
		return
	}
	if result == nil {
		result = &models.MatchRunResult{PostingID: postingID, CompletedAt: time.Now().UTC()}
	}
	if err := o.events.PublishRunCompleted(ctx, notify.EventPostingProcessed, result); err != nil {
		o.logger.Warn("posting processed event publish failed", map[string]interface{}{
			"postingId": postingID,
			"error":     err.Error(),
		})
	}
}
