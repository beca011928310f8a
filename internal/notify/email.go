// Package notify delivers match emails over SES (the recruiter report and
// the top-candidate notices) and publishes run lifecycle events to SNS.
// Both channels are optional and fail soft: a matching run never fails
// because a notification did.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type emailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type EmailNotifier struct {
	sender    emailSender
	fromEmail string
	enabled   bool
	logger    logger.Logger
}

func NewEmailNotifier(sender emailSender, fromEmail string, enabled bool, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		fromEmail: fromEmail,
		enabled:   enabled,
		logger:    log,
	}
}

// SendMatchReport emails the recruiter the ranked shortlist for a completed
// matching run. The matches slice must already be sorted best first and
// trimmed to the shortlist size.
func (n *EmailNotifier) SendMatchReport(ctx context.Context, recruiter *models.Recruiter, posting *models.JobPosting, result *models.MatchRunResult, matches []models.RankedMatch) error {
	if !n.enabled {
		n.logger.Debug("email notifications disabled, skipping match report", map[string]interface{}{
			"postingId": posting.ID,
		})
		return nil
	}

	subject := fmt.Sprintf("Match results for %s (%d candidates ranked)", posting.Title, result.Scored)
	body := buildMatchReportBody(recruiter, posting, result, matches)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{recruiter.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	}

	output, err := n.sender.SendEmail(ctx, input)
	if err != nil {
		return errors.NewNotificationSendFailedError(recruiter.Email, err)
	}

	messageID := ""
	if output != nil && output.MessageId != nil {
		messageID = *output.MessageId
	}
	n.logger.Info("match report emailed", map[string]interface{}{
		"postingId": posting.ID,
		"recruiter": recruiter.Email,
		"messageId": messageID,
	})

	return nil
}

// SendTopMatchNotice tells one shortlisted candidate they ranked among the
// top matches for a posting.
func (n *EmailNotifier) SendTopMatchNotice(ctx context.Context, posting *models.JobPosting, match *models.RankedMatch) error {
	if !n.enabled {
		n.logger.Debug("email notifications disabled, skipping top match notice", map[string]interface{}{
			"postingId":   posting.ID,
			"candidateId": match.CandidateID,
		})
		return nil
	}

	subject := fmt.Sprintf("You're a top match for %s at %s", posting.Title, posting.CompanyName)
	body := buildTopMatchNoticeBody(posting, match)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{match.CandidateEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	}

	output, err := n.sender.SendEmail(ctx, input)
	if err != nil {
		return errors.NewNotificationSendFailedError(match.CandidateEmail, err)
	}

	messageID := ""
	if output != nil && output.MessageId != nil {
		messageID = *output.MessageId
	}
	n.logger.Info("top match notice emailed", map[string]interface{}{
		"postingId":   posting.ID,
		"candidateId": match.CandidateID,
		"messageId":   messageID,
	})

	return nil
}

func buildTopMatchNoticeBody(posting *models.JobPosting, match *models.RankedMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", match.CandidateName)
	fmt.Fprintf(&b, "Good news - you've been selected as a top match for \"%s\" at %s.\n\n",
		posting.Title, posting.CompanyName)
	fmt.Fprintf(&b, "Your overall match score is %.2f/100.\n", match.OverallScore)
	if len(match.MatchedSkills) > 0 {
		fmt.Fprintf(&b, "Skills that stood out: %s\n", strings.Join(match.MatchedSkills, ", "))
	}
	b.WriteString("\nThe recruiting team has received your profile and may reach out with next steps.\n")
	b.WriteString("\nThis is an automated message from the talent matching service.\n")

	return b.String()
}

func buildMatchReportBody(recruiter *models.Recruiter, posting *models.JobPosting, result *models.MatchRunResult, matches []models.RankedMatch) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", recruiter.Name)
	fmt.Fprintf(&b, "Matching has completed for your posting \"%s\" at %s.\n\n", posting.Title, posting.CompanyName)
	fmt.Fprintf(&b, "Applicants reviewed: %d (scored: %d, skipped: %d, failed: %d)\n\n",
		result.TotalApplicants, result.Scored, result.Skipped, result.Failed)

	if len(matches) == 0 {
		b.WriteString("No candidates could be ranked for this posting. ")
		b.WriteString("This usually means no applicant had a readable resume on file.\n")
	} else {
		fmt.Fprintf(&b, "Top %d candidates:\n\n", len(matches))
		for i, m := range matches {
			fmt.Fprintf(&b, "%d. %s (%s) - %.2f/100\n", i+1, m.CandidateName, m.CandidateEmail, m.OverallScore)
			if len(m.MatchedSkills) > 0 {
				fmt.Fprintf(&b, "   Matched skills: %s\n", strings.Join(m.MatchedSkills, ", "))
			}
			if len(m.MissingSkills) > 0 {
				fmt.Fprintf(&b, "   Missing skills: %s\n", strings.Join(m.MissingSkills, ", "))
			}
			if m.AIAnalysis.Degraded {
				b.WriteString("   Note: AI analysis was unavailable for this candidate.\n")
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "Run completed at %s.\n", result.CompletedAt.Format(time.RFC1123))
	b.WriteString("\nThis is an automated message from the talent matching service.\n")

	return b.String()
}
