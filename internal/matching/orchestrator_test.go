// internal/matching/orchestrator_test.go
package matching

import (
	"context"
	"fmt"
	"testing"
	"time"

	"talentmatch-workers/internal/ai"
	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/features"
	"talentmatch-workers/internal/models"
	"talentmatch-workers/internal/scoring"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// FAKES
// ==========================

type fakeStore struct {
	posting       *models.JobPosting
	postingErr    error
	recruiter     *models.Recruiter
	applications  []models.Application
	candidates    map[string]*models.Candidate
	resumes       map[string]*models.ResumeDocument
	resumeBytes   map[string][]byte
	rebuilt       []models.RankedMatch
	rebuildCalled bool
	rebuildErr    error
	statusUpdates []string
}

func (f *fakeStore) GetPosting(_ context.Context, postingID string) (*models.JobPosting, error) {
	if f.postingErr != nil {
		return nil, f.postingErr
	}
	if f.posting == nil {
		return nil, errors.NewPostingNotFoundError(postingID)
	}
	return f.posting, nil
}

func (f *fakeStore) GetRecruiter(_ context.Context, recruiterID string) (*models.Recruiter, error) {
	if f.recruiter == nil {
		return nil, errors.NewResourceNotFoundError("postgres", "recruiter "+recruiterID+" not found")
	}
	return f.recruiter, nil
}

func (f *fakeStore) ListApplications(_ context.Context, _ string) ([]models.Application, error) {
	return f.applications, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, candidateID string) (*models.Candidate, error) {
	c, ok := f.candidates[candidateID]
	if !ok {
		return nil, errors.NewResourceNotFoundError("postgres", "candidate "+candidateID+" not found")
	}
	return c, nil
}

func (f *fakeStore) GetLatestResume(_ context.Context, candidateID string) (*models.ResumeDocument, error) {
	return f.resumes[candidateID], nil
}

func (f *fakeStore) GetResumeBytes(_ context.Context, doc *models.ResumeDocument) ([]byte, error) {
	data, ok := f.resumeBytes[doc.CandidateID]
	if !ok {
		return nil, errors.NewResumeFetchFailedError(doc.CandidateID, assert.AnError)
	}
	return data, nil
}

func (f *fakeStore) RebuildMatches(_ context.Context, _ string, matches []models.RankedMatch) error {
	if f.rebuildErr != nil {
		return f.rebuildErr
	}
	f.rebuildCalled = true
	f.rebuilt = matches
	return nil
}

func (f *fakeStore) UpdatePostingStatus(_ context.Context, _ string, status string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

// fakeTextExtractor treats resume bytes as already-extracted text, and
// fails on request for a designated candidate file.
type fakeTextExtractor struct {
	failFiles map[string]bool
}

func (f *fakeTextExtractor) ExtractText(_ context.Context, data []byte, fileName string) (string, error) {
	if f.failFiles[fileName] {
		return "", errors.NewExtractionFailedError("unreadable document")
	}
	return string(data), nil
}

type fakeAnalyzer struct {
	analysis models.AIAnalysis
	skills   []string
}

func (f *fakeAnalyzer) AnalyzeResumeMatch(_ context.Context, _, _ string, _, _ []string) models.AIAnalysis {
	return f.analysis
}

func (f *fakeAnalyzer) StructureResume(_ context.Context, _ string) ai.ResumeStructure {
	return ai.ResumeStructure{AdditionalSkills: f.skills}
}

type fakeReporter struct {
	sentMatches []models.RankedMatch
	sentResult  *models.MatchRunResult
	noticed     []string
	err         error
	noticeErr   error
}

func (f *fakeReporter) SendMatchReport(_ context.Context, _ *models.Recruiter, _ *models.JobPosting, result *models.MatchRunResult, matches []models.RankedMatch) error {
	f.sentMatches = matches
	f.sentResult = result
	return f.err
}

func (f *fakeReporter) SendTopMatchNotice(_ context.Context, _ *models.JobPosting, match *models.RankedMatch) error {
	f.noticed = append(f.noticed, match.CandidateEmail)
	return f.noticeErr
}

type fakeEvents struct {
	published []string
}

func (f *fakeEvents) PublishRunCompleted(_ context.Context, eventType string, _ *models.MatchRunResult) error {
	f.published = append(f.published, eventType)
	return nil
}

type fakeIndexer struct {
	indexed []models.RankedMatch
}

func (f *fakeIndexer) IndexMatches(_ context.Context, _ *models.JobPosting, matches []models.RankedMatch) error {
	f.indexed = matches
	return nil
}

// ==========================
// TEST SETUP
// ==========================

type testHarness struct {
	orchestrator *Orchestrator
	store        *fakeStore
	reporter     *fakeReporter
	events       *fakeEvents
	indexer      *fakeIndexer
	redis        *miniredis.Miniredis
}

func newHarness(t *testing.T, store *fakeStore, analyzer *fakeAnalyzer, config Config) *testHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	log := logger.NewTestLogger(t)
	reporter := &fakeReporter{}
	events := &fakeEvents{}
	indexer := &fakeIndexer{}

	orchestrator := NewOrchestrator(Dependencies{
		Store:     store,
		Extractor: &fakeTextExtractor{},
		Parser:    features.NewParser(features.DefaultSkillVocabulary, log),
		Analyzer:  analyzer,
		Scorer:    scoring.NewScorer(log),
		Lock:      NewRunLock(redisClient, 10*time.Minute),
		Email:     reporter,
		Events:    events,
		Indexer:   indexer,
		Logger:    log,
	}, config)

	return &testHarness{
		orchestrator: orchestrator,
		store:        store,
		reporter:     reporter,
		events:       events,
		indexer:      indexer,
		redis:        mr,
	}
}

func activePosting() *models.JobPosting {
	return &models.JobPosting{
		ID:              "posting-1",
		Title:           "Backend Engineer",
		CompanyName:     "Acme",
		Description:     "We build Go services backed by PostgreSQL and Redis on Kubernetes.",
		RequiredSkills:  []string{"go", "postgresql"},
		PreferredSkills: []string{"kubernetes"},
		ExperienceLevel: "mid",
		Status:          models.PostingStatusActive,
		RecruiterID:     "recruiter-1",
	}
}

func storeWithApplicants(applicants int) *fakeStore {
	store := &fakeStore{
		posting:     activePosting(),
		recruiter:   &models.Recruiter{ID: "recruiter-1", Name: "Sam Lee", Email: "sam@acme.example"},
		candidates:  map[string]*models.Candidate{},
		resumes:     map[string]*models.ResumeDocument{},
		resumeBytes: map[string][]byte{},
	}
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < applicants; i++ {
		id := fmt.Sprintf("cand-%d", i+1)
		store.applications = append(store.applications, models.Application{
			ID:          fmt.Sprintf("app-%d", i+1),
			PostingID:   "posting-1",
			CandidateID: id,
			AppliedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		store.candidates[id] = &models.Candidate{ID: id, Name: fmt.Sprintf("Candidate %d", i+1), Email: id + "@example.com"}
		store.resumes[id] = &models.ResumeDocument{ID: "resume-" + id, CandidateID: id, ObjectKey: id + "/resume.txt", FileName: "resume.txt"}
		store.resumeBytes[id] = []byte("Experienced engineer with 4 years of experience in Go and PostgreSQL.")
	}
	return store
}

func workingAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		analysis: models.AIAnalysis{
			SkillsMatch:     80,
			ExperienceMatch: 70,
			EducationMatch:  75,
			OverallFit:      72,
		},
	}
}

// ==========================
// RUN MATCH
// ==========================

func TestRunMatch_RanksAllUsableCandidates(t *testing.T) {
	store := storeWithApplicants(3)
	h := newHarness(t, store, workingAnalyzer(), Config{MaxCandidates: 5})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalApplicants)
	assert.Equal(t, 3, result.Scored)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Matches, 3)

	for _, m := range result.Matches {
		assert.Greater(t, m.OverallScore, 0.0)
		assert.Contains(t, m.MatchedSkills, "go")
		assert.Contains(t, m.MatchedSkills, "postgresql")
		assert.Equal(t, 100.0, m.SubScores.SkillsMatch)
		assert.Equal(t, 100.0, m.SubScores.ExperienceMatch) // 4 years inside mid band
		assert.Contains(t, m.Report, m.CandidateName)
		assert.Contains(t, m.Report, "Matched skills: ")
	}

	assert.True(t, store.rebuildCalled)
	assert.Len(t, store.rebuilt, 3)
	require.NotNil(t, h.reporter.sentResult)
	assert.Len(t, h.reporter.sentMatches, 3)
	assert.Len(t, h.reporter.noticed, 3)
	assert.Contains(t, h.reporter.noticed, "cand-1@example.com")
	assert.Equal(t, []string{"matching.completed"}, h.events.published)
	assert.Len(t, h.indexer.indexed, 3)
}

func TestRunMatch_SkipsAndFailuresDoNotAbortRun(t *testing.T) {
	store := storeWithApplicants(4)
	// cand-2 never uploaded a resume, cand-3's file cannot be extracted,
	// cand-4's record is gone.
	delete(store.resumes, "cand-2")
	store.resumes["cand-3"].FileName = "broken.pdf"
	delete(store.candidates, "cand-4")

	h := newHarness(t, store, workingAnalyzer(), Config{})
	h.orchestrator.extractor = &fakeTextExtractor{failFiles: map[string]bool{"broken.pdf": true}}

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "cand-1", result.Matches[0].CandidateID)
}

func TestRunMatch_EmptyResumeTextSkips(t *testing.T) {
	store := storeWithApplicants(2)
	store.resumeBytes["cand-2"] = []byte("   \n\t ")

	h := newHarness(t, store, workingAnalyzer(), Config{})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Scored)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunMatch_NoApplicants(t *testing.T) {
	store := &fakeStore{posting: activePosting()}
	h := newHarness(t, store, workingAnalyzer(), Config{})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	assert.Nil(t, result)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNoApplicants, stdErr.Code)
}

func TestRunMatch_PostingNotFound(t *testing.T) {
	store := &fakeStore{}
	h := newHarness(t, store, workingAnalyzer(), Config{})

	_, err := h.orchestrator.RunMatch(context.Background(), "missing", "manual")

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodePostingNotFound, stdErr.Code)
}

func TestRunMatch_LockHeldByAnotherRun(t *testing.T) {
	store := storeWithApplicants(1)
	h := newHarness(t, store, workingAnalyzer(), Config{})
	require.NoError(t, h.redis.Set("matchrun:lock:posting-1", "held"))

	_, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeRunInProgress, stdErr.Code)
	assert.False(t, store.rebuildCalled)
}

func TestRunMatch_ReleasesLockWhenDone(t *testing.T) {
	store := storeWithApplicants(1)
	h := newHarness(t, store, workingAnalyzer(), Config{})

	_, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")
	require.NoError(t, err)

	// A second run must be able to take the lock again.
	_, err = h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")
	require.NoError(t, err)
}

// A degraded analysis still ranks the candidate, but the AI component must
// contribute nothing to the overall score.
func TestRunMatch_DegradedAnalysisStillRanks(t *testing.T) {
	store := storeWithApplicants(2)
	analyzer := &fakeAnalyzer{
		analysis: models.AIAnalysis{
			Degraded:       true,
			DegradedReason: "Analysis unavailable: model timeout",
		},
	}
	h := newHarness(t, store, analyzer, Config{})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Scored)
	for _, m := range result.Matches {
		assert.True(t, m.AIAnalysis.Degraded)
		assert.Equal(t, 0.0, m.SubScores.AIScore)
		assert.Equal(t, 0.0, m.SubScores.EducationMatch)
		// Skills, experience and text similarity still score the candidate.
		assert.Greater(t, m.OverallScore, 0.0)
	}
}

func TestRunMatch_RebuildFailurePropagates(t *testing.T) {
	store := storeWithApplicants(1)
	store.rebuildErr = errors.NewMatchRebuildFailedError("posting-1", assert.AnError)
	h := newHarness(t, store, workingAnalyzer(), Config{})

	_, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeMatchRebuildFailed, stdErr.Code)
}

func TestRunMatch_ReportTrimmedToMaxCandidates(t *testing.T) {
	store := storeWithApplicants(7)
	h := newHarness(t, store, workingAnalyzer(), Config{MaxCandidates: 3})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Len(t, result.Matches, 7)
	assert.Equal(t, 3, result.MaxCandidates)
	assert.Len(t, h.reporter.sentMatches, 3)
	assert.Len(t, h.reporter.noticed, 3)
	// The full ranking is still persisted and indexed.
	assert.Len(t, store.rebuilt, 7)
	assert.Len(t, h.indexer.indexed, 7)
}

// A posting's own max_candidates beats the service default.
func TestRunMatch_PostingMaxCandidatesOverridesDefault(t *testing.T) {
	store := storeWithApplicants(5)
	store.posting.MaxCandidates = 2
	h := newHarness(t, store, workingAnalyzer(), Config{MaxCandidates: 4})

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 2, result.MaxCandidates)
	assert.Len(t, h.reporter.sentMatches, 2)
	assert.Len(t, h.reporter.noticed, 2)
	assert.Len(t, store.rebuilt, 5)
}

// Notice failures never fail the run.
func TestRunMatch_NoticeFailureDoesNotFailRun(t *testing.T) {
	store := storeWithApplicants(2)
	h := newHarness(t, store, workingAnalyzer(), Config{})
	h.reporter.noticeErr = assert.AnError

	result, err := h.orchestrator.RunMatch(context.Background(), "posting-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Scored)
}

// ==========================
// ORDERING
// ==========================

func TestSortMatches_TieBreaks(t *testing.T) {
	early := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(3 * time.Hour)

	matches := []models.RankedMatch{
		{CandidateID: "cand-c", OverallScore: 70, AppliedAt: late},
		{CandidateID: "cand-b", OverallScore: 70, AppliedAt: early},
		{CandidateID: "cand-a", OverallScore: 70, AppliedAt: late},
		{CandidateID: "cand-d", OverallScore: 90, AppliedAt: late},
	}

	sortMatches(matches)

	ids := []string{matches[0].CandidateID, matches[1].CandidateID, matches[2].CandidateID, matches[3].CandidateID}
	assert.Equal(t, []string{"cand-d", "cand-b", "cand-a", "cand-c"}, ids)
}

// ==========================
// SIMILARITY INPUTS
// ==========================

func TestCandidateSimilarityText(t *testing.T) {
	skills := []string{"go", "postgresql"}

	t.Run("summary plus skills when structured", func(t *testing.T) {
		doc := candidateSimilarityText("Backend engineer building Go services.", "full raw resume text", skills)
		assert.Equal(t, "Backend engineer building Go services. go postgresql", doc)
	})

	t.Run("falls back to full text without a summary", func(t *testing.T) {
		doc := candidateSimilarityText("  ", "full raw resume text", skills)
		assert.Equal(t, "full raw resume text go postgresql", doc)
	})

	t.Run("no skills", func(t *testing.T) {
		doc := candidateSimilarityText("Summary.", "raw", nil)
		assert.Equal(t, "Summary.", doc)
	})
}

func TestPostingSimilarityText(t *testing.T) {
	doc := postingSimilarityText(activePosting())
	assert.Contains(t, doc, "We build Go services")
	assert.Contains(t, doc, "go postgresql")
	assert.Contains(t, doc, "kubernetes")
}

// ==========================
// CANDIDATE REPORT
// ==========================

func TestRenderCandidateReport(t *testing.T) {
	posting := activePosting()
	match := &models.RankedMatch{
		CandidateName: "Jordan Smith",
		OverallScore:  78.25,
		SubScores: models.SubScores{
			SkillsMatch:     100,
			ExperienceMatch: 80,
			TextSimilarity:  41.5,
			AIScore:         70,
			EducationMatch:  75,
		},
		MatchedSkills: []string{"go", "postgresql"},
		MissingSkills: []string{"kubernetes"},
		AIAnalysis: models.AIAnalysis{
			Strengths:       []string{"Strong Go background"},
			Gaps:            []string{"No Kubernetes exposure"},
			Recommendations: []string{"Pair with the platform team"},
		},
	}

	report := renderCandidateReport(posting, match)

	assert.Contains(t, report, "Match Report: Jordan Smith")
	assert.Contains(t, report, "Position: Backend Engineer at Acme")
	assert.Contains(t, report, "Overall match: 78.25/100")
	assert.Contains(t, report, "Matched skills: go, postgresql")
	assert.Contains(t, report, "Missing skills: kubernetes")
	assert.Contains(t, report, "- Strong Go background")
	assert.Contains(t, report, "- No Kubernetes exposure")
	assert.Contains(t, report, "- Pair with the platform team")
}

func TestRenderCandidateReport_Degraded(t *testing.T) {
	match := &models.RankedMatch{
		CandidateName: "Jordan Smith",
		AIAnalysis:    models.AIAnalysis{Degraded: true},
	}

	report := renderCandidateReport(activePosting(), match)

	assert.Contains(t, report, "AI analysis was unavailable")
	assert.NotContains(t, report, "Strengths:")
}

// ==========================
// EXPIRED POSTINGS
// ==========================

func TestProcessExpiredPosting_WithRankedCandidates(t *testing.T) {
	store := storeWithApplicants(2)
	h := newHarness(t, store, workingAnalyzer(), Config{})

	status, result, err := h.orchestrator.ProcessExpiredPosting(context.Background(), "posting-1")

	require.NoError(t, err)
	assert.Equal(t, models.PostingStatusProcessed, status)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Scored)
	assert.Equal(t, []string{models.PostingStatusProcessed}, store.statusUpdates)
	require.NotNil(t, h.reporter.sentResult)
	assert.Len(t, h.reporter.noticed, 2)
	assert.Equal(t, []string{"matching.completed", "posting.processed"}, h.events.published)
}

func TestProcessExpiredPosting_NoApplicantsCloses(t *testing.T) {
	store := &fakeStore{posting: activePosting()}
	h := newHarness(t, store, workingAnalyzer(), Config{})

	status, result, err := h.orchestrator.ProcessExpiredPosting(context.Background(), "posting-1")

	require.NoError(t, err)
	assert.Equal(t, models.PostingStatusClosed, status)
	assert.Nil(t, result)
	assert.Equal(t, []string{models.PostingStatusClosed}, store.statusUpdates)
	assert.Equal(t, []string{"posting.processed"}, h.events.published)
}

func TestProcessExpiredPosting_NoUsableResumesCloses(t *testing.T) {
	store := storeWithApplicants(2)
	delete(store.resumes, "cand-1")
	delete(store.resumes, "cand-2")
	h := newHarness(t, store, workingAnalyzer(), Config{})

	status, result, err := h.orchestrator.ProcessExpiredPosting(context.Background(), "posting-1")

	require.NoError(t, err)
	assert.Equal(t, models.PostingStatusClosed, status)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Scored)
	assert.Equal(t, 2, result.Skipped)
}

func TestProcessExpiredPosting_AlreadyFinalized(t *testing.T) {
	store := storeWithApplicants(1)
	store.posting.Status = models.PostingStatusProcessed
	h := newHarness(t, store, workingAnalyzer(), Config{})

	status, result, err := h.orchestrator.ProcessExpiredPosting(context.Background(), "posting-1")

	require.NoError(t, err)
	assert.Equal(t, models.PostingStatusProcessed, status)
	assert.Nil(t, result)
	assert.Empty(t, store.statusUpdates)
}
