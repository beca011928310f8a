// internal/notify/events.go
package notify

import (
	"context"
	"encoding/json"
	"time"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type eventPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

const (
	EventMatchingCompleted = "matching.completed"
	EventPostingProcessed  = "posting.processed"
)

// MatchingEvent is the wire format published after a run finishes.
type MatchingEvent struct {
	Event           string    `json:"event"`
	PostingID       string    `json:"postingId"`
	PostingTitle    string    `json:"postingTitle"`
	TotalApplicants int       `json:"totalApplicants"`
	Scored          int       `json:"scored"`
	Skipped         int       `json:"skipped"`
	Failed          int       `json:"failed"`
	CompletedAt     time.Time `json:"completedAt"`
}

type EventNotifier struct {
	publisher eventPublisher
	topicARN  string
	enabled   bool
	logger    logger.Logger
}

func NewEventNotifier(publisher eventPublisher, topicARN string, enabled bool, log logger.Logger) *EventNotifier {
	return &EventNotifier{
		publisher: publisher,
		topicARN:  topicARN,
		enabled:   enabled,
		logger:    log,
	}
}

// PublishRunCompleted announces a finished matching run on the configured
// SNS topic so downstream consumers (analytics, dashboards) can react.
func (n *EventNotifier) PublishRunCompleted(ctx context.Context, eventType string, result *models.MatchRunResult) error {
	if !n.enabled {
		return nil
	}

	event := MatchingEvent{
		Event:           eventType,
		PostingID:       result.PostingID,
		PostingTitle:    result.PostingTitle,
		TotalApplicants: result.TotalApplicants,
		Scored:          result.Scored,
		Skipped:         result.Skipped,
		Failed:          result.Failed,
		CompletedAt:     result.CompletedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.NewNotificationSendFailedError("sns", err)
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	}

	if _, err := n.publisher.Publish(ctx, input); err != nil {
		return errors.NewNotificationSendFailedError("sns", err)
	}

	n.logger.Info("run event published", map[string]interface{}{
		"event":     eventType,
		"postingId": result.PostingID,
	})

	return nil
}
