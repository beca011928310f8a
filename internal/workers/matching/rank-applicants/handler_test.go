// internal/workers/matching/rank-applicants/handler_test.go
package rankapplicants

import (
	"context"
	"fmt"
	"testing"
	"time"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeRunner struct {
	result      *models.MatchRunResult
	err         error
	lastPosting string
	lastTrigger string
}

func (f *fakeRunner) RunMatch(_ context.Context, postingID, trigger string) (*models.MatchRunResult, error) {
	f.lastPosting = postingID
	f.lastTrigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func runResult(matchCount int) *models.MatchRunResult {
	result := &models.MatchRunResult{
		PostingID:       "posting-1",
		PostingTitle:    "Backend Engineer",
		TotalApplicants: matchCount + 1,
		Scored:          matchCount,
		Skipped:         1,
		CompletedAt:     time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC),
	}
	for i := 0; i < matchCount; i++ {
		result.Matches = append(result.Matches, models.RankedMatch{
			CandidateID:   fmt.Sprintf("cand-%d", i+1),
			CandidateName: fmt.Sprintf("Candidate %d", i+1),
			OverallScore:  float64(90 - i),
		})
	}
	return result
}

func newTestHandler(t *testing.T, runner *fakeRunner) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), runner, logger.NewTestLogger(t))
}

// ==========================
// Execute
// ==========================

func TestExecute_MapsRunResult(t *testing.T) {
	runner := &fakeRunner{result: runResult(3)}
	h := newTestHandler(t, runner)

	output, err := h.Execute(context.Background(), &Input{PostingID: "posting-1"})

	require.NoError(t, err)
	assert.Equal(t, "posting-1", output.PostingID)
	assert.Equal(t, 3, output.Scored)
	assert.Equal(t, 1, output.Skipped)
	require.Len(t, output.TopCandidates, 3)
	assert.Equal(t, "cand-1", output.TopCandidates[0].CandidateID)
	assert.Equal(t, 90.0, output.TopCandidates[0].OverallScore)
}

func TestExecute_TopCandidatesCappedAtFive(t *testing.T) {
	runner := &fakeRunner{result: runResult(8)}
	h := newTestHandler(t, runner)

	output, err := h.Execute(context.Background(), &Input{PostingID: "posting-1"})

	require.NoError(t, err)
	assert.Equal(t, 8, output.Scored)
	assert.Len(t, output.TopCandidates, 5)
}

func TestExecute_TopCandidatesHonorPostingCap(t *testing.T) {
	result := runResult(8)
	result.MaxCandidates = 3
	runner := &fakeRunner{result: result}
	h := newTestHandler(t, runner)

	output, err := h.Execute(context.Background(), &Input{PostingID: "posting-1"})

	require.NoError(t, err)
	assert.Equal(t, 8, output.Scored)
	require.Len(t, output.TopCandidates, 3)
	assert.Equal(t, "cand-1", output.TopCandidates[0].CandidateID)
}

func TestExecute_DefaultsTriggerToManual(t *testing.T) {
	runner := &fakeRunner{result: runResult(1)}
	h := newTestHandler(t, runner)

	_, err := h.Execute(context.Background(), &Input{PostingID: "posting-1"})

	require.NoError(t, err)
	assert.Equal(t, "manual", runner.lastTrigger)
}

func TestExecute_PassesThroughTrigger(t *testing.T) {
	runner := &fakeRunner{result: runResult(1)}
	h := newTestHandler(t, runner)

	_, err := h.Execute(context.Background(), &Input{PostingID: "posting-1", Trigger: "scheduled"})

	require.NoError(t, err)
	assert.Equal(t, "scheduled", runner.lastTrigger)
}

func TestExecute_RunErrorPropagates(t *testing.T) {
	runner := &fakeRunner{err: errors.NewRunInProgressError("posting-1")}
	h := newTestHandler(t, runner)

	output, err := h.Execute(context.Background(), &Input{PostingID: "posting-1"})

	assert.Nil(t, output)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeRunInProgress, stdErr.Code)
}

// ==========================
// Input Validation
// ==========================

func TestValidateVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantValid bool
	}{
		{
			name:      "valid with posting id only",
			variables: `{"postingId": "posting-1"}`,
			wantValid: true,
		},
		{
			name:      "valid with scheduled trigger",
			variables: `{"postingId": "posting-1", "trigger": "scheduled"}`,
			wantValid: true,
		},
		{
			name:      "missing posting id",
			variables: `{"trigger": "manual"}`,
			wantValid: false,
		},
		{
			name:      "empty posting id",
			variables: `{"postingId": ""}`,
			wantValid: false,
		},
		{
			name:      "unknown trigger value",
			variables: `{"postingId": "posting-1", "trigger": "cron"}`,
			wantValid: false,
		},
		{
			name:      "not json",
			variables: `posting-1`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := validateVariables(tt.variables)
			assert.Equal(t, tt.wantValid, ok)
			if !tt.wantValid {
				assert.NotEmpty(t, msg)
			}
		})
	}
}
