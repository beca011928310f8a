// internal/notify/notify_test.go
package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// FAKES
// ==========================

type fakeSender struct {
	lastInput *ses.SendEmailInput
	err       error
}

func (f *fakeSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakePublisher struct {
	lastInput *sns.PublishInput
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func testFixtures() (*models.Recruiter, *models.JobPosting, *models.MatchRunResult) {
	recruiter := &models.Recruiter{ID: "recruiter-1", Name: "Sam Lee", Email: "sam@acme.example"}
	posting := &models.JobPosting{ID: "posting-1", Title: "Backend Engineer", CompanyName: "Acme"}
	result := &models.MatchRunResult{
		PostingID:       "posting-1",
		PostingTitle:    "Backend Engineer",
		TotalApplicants: 4,
		Scored:          3,
		Skipped:         1,
		CompletedAt:     time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC),
	}
	return recruiter, posting, result
}

// ==========================
// EMAIL REPORTS
// ==========================

func TestSendMatchReport_IncludesRankedCandidates(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", true, logger.NewTestLogger(t))
	recruiter, posting, result := testFixtures()

	matches := []models.RankedMatch{
		{
			CandidateName:  "Jordan Smith",
			CandidateEmail: "jordan@example.com",
			OverallScore:   82.5,
			MatchedSkills:  []string{"go", "postgresql"},
			MissingSkills:  []string{"kubernetes"},
		},
		{
			CandidateName:  "Riley Chen",
			CandidateEmail: "riley@example.com",
			OverallScore:   64,
			AIAnalysis:     models.AIAnalysis{Degraded: true},
		},
	}

	err := n.SendMatchReport(context.Background(), recruiter, posting, result, matches)

	require.NoError(t, err)
	require.NotNil(t, sender.lastInput)
	assert.Equal(t, "noreply@talentmatch.example", *sender.lastInput.Source)
	assert.Equal(t, []string{"sam@acme.example"}, sender.lastInput.Destination.ToAddresses)

	body := *sender.lastInput.Message.Body.Text.Data
	assert.Contains(t, body, "Hello Sam Lee")
	assert.Contains(t, body, "1. Jordan Smith (jordan@example.com) - 82.50/100")
	assert.Contains(t, body, "Matched skills: go, postgresql")
	assert.Contains(t, body, "Missing skills: kubernetes")
	assert.Contains(t, body, "2. Riley Chen")
	assert.Contains(t, body, "AI analysis was unavailable")
	assert.Contains(t, body, "scored: 3, skipped: 1, failed: 0")
}

func TestSendMatchReport_NoMatches(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", true, logger.NewTestLogger(t))
	recruiter, posting, result := testFixtures()

	err := n.SendMatchReport(context.Background(), recruiter, posting, result, nil)

	require.NoError(t, err)
	body := *sender.lastInput.Message.Body.Text.Data
	assert.Contains(t, body, "No candidates could be ranked")
}

func TestSendMatchReport_Disabled(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", false, logger.NewTestLogger(t))
	recruiter, posting, result := testFixtures()

	err := n.SendMatchReport(context.Background(), recruiter, posting, result, nil)

	require.NoError(t, err)
	assert.Nil(t, sender.lastInput)
}

func TestSendMatchReport_SendFailure(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", true, logger.NewTestLogger(t))
	recruiter, posting, result := testFixtures()

	err := n.SendMatchReport(context.Background(), recruiter, posting, result, nil)

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// TOP MATCH NOTICES
// ==========================

func topMatch() *models.RankedMatch {
	return &models.RankedMatch{
		CandidateID:    "cand-1",
		CandidateName:  "Jordan Smith",
		CandidateEmail: "jordan@example.com",
		OverallScore:   82.5,
		MatchedSkills:  []string{"go", "postgresql"},
	}
}

func TestSendTopMatchNotice_EmailsCandidate(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", true, logger.NewTestLogger(t))
	_, posting, _ := testFixtures()

	err := n.SendTopMatchNotice(context.Background(), posting, topMatch())

	require.NoError(t, err)
	require.NotNil(t, sender.lastInput)
	assert.Equal(t, []string{"jordan@example.com"}, sender.lastInput.Destination.ToAddresses)
	assert.Equal(t, "You're a top match for Backend Engineer at Acme", *sender.lastInput.Message.Subject.Data)

	body := *sender.lastInput.Message.Body.Text.Data
	assert.Contains(t, body, "Hello Jordan Smith")
	assert.Contains(t, body, "top match for \"Backend Engineer\" at Acme")
	assert.Contains(t, body, "overall match score is 82.50/100")
	assert.Contains(t, body, "Skills that stood out: go, postgresql")
}

func TestSendTopMatchNotice_Disabled(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", false, logger.NewTestLogger(t))
	_, posting, _ := testFixtures()

	require.NoError(t, n.SendTopMatchNotice(context.Background(), posting, topMatch()))
	assert.Nil(t, sender.lastInput)
}

func TestSendTopMatchNotice_SendFailure(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	n := NewEmailNotifier(sender, "noreply@talentmatch.example", true, logger.NewTestLogger(t))
	_, posting, _ := testFixtures()

	err := n.SendTopMatchNotice(context.Background(), posting, topMatch())

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// RUN EVENTS
// ==========================

func TestPublishRunCompleted(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewEventNotifier(publisher, "arn:aws:sns:us-east-1:123456789012:matching-events", true, logger.NewTestLogger(t))
	_, _, result := testFixtures()

	err := n.PublishRunCompleted(context.Background(), EventMatchingCompleted, result)

	require.NoError(t, err)
	require.NotNil(t, publisher.lastInput)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:matching-events", *publisher.lastInput.TopicArn)
	assert.Equal(t, EventMatchingCompleted, *publisher.lastInput.MessageAttributes["eventType"].StringValue)

	var event MatchingEvent
	require.NoError(t, json.Unmarshal([]byte(*publisher.lastInput.Message), &event))
	assert.Equal(t, "matching.completed", event.Event)
	assert.Equal(t, "posting-1", event.PostingID)
	assert.Equal(t, 3, event.Scored)
	assert.Equal(t, 1, event.Skipped)
}

func TestPublishRunCompleted_Disabled(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewEventNotifier(publisher, "", false, logger.NewTestLogger(t))
	_, _, result := testFixtures()

	require.NoError(t, n.PublishRunCompleted(context.Background(), EventMatchingCompleted, result))
	assert.Nil(t, publisher.lastInput)
}

func TestPublishRunCompleted_PublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: assert.AnError}
	n := NewEventNotifier(publisher, "arn:topic", true, logger.NewTestLogger(t))
	_, _, result := testFixtures()

	err := n.PublishRunCompleted(context.Background(), EventMatchingCompleted, result)

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, stdErr.Code)
}
