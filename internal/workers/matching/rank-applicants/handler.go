// internal/workers/matching/rank-applicants/handler.go
package rankapplicants

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/common/metrics"
	"talentmatch-workers/internal/models"
)

const (
	TaskType = "rank-applicants"

	defaultTrigger = "manual"
)

// matchRunner is the slice of the matching pipeline this worker drives.
type matchRunner interface {
	RunMatch(ctx context.Context, postingID, trigger string) (*models.MatchRunResult, error)
}

type Handler struct {
	config *Config
	runner matchRunner
	logger logger.Logger
}

func NewHandler(config *Config, runner matchRunner, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		runner: runner,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
	start := time.Now()

	if msg, ok := validateVariables(job.Variables); !ok {
		h.throwBusinessError(client, job, errors.NewMalformedInputError(msg))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.throwBusinessError(client, job, errors.NewMalformedInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	trigger := input.Trigger
	if trigger == "" {
		trigger = defaultTrigger
	}

	result, err := h.runner.RunMatch(ctx, input.PostingID, trigger)
	if err != nil {
		return nil, err
	}

	// The shortlist cap is the posting's own max_candidates when set, else
	// the service default carried on the run result.
	limit := result.MaxCandidates
	if limit <= 0 {
		limit = defaultMaxCandidates
	}

	top := make([]TopCandidate, 0, len(result.Matches))
	for i, m := range result.Matches {
		if i >= limit {
			break
		}
		top = append(top, TopCandidate{
			CandidateID:   m.CandidateID,
			CandidateName: m.CandidateName,
			OverallScore:  m.OverallScore,
		})
	}

	return &Output{
		PostingID:       result.PostingID,
		TotalApplicants: result.TotalApplicants,
		Scored:          result.Scored,
		Skipped:         result.Skipped,
		Failed:          result.Failed,
		TopCandidates:   top,
		CompletedAt:     result.CompletedAt,
	}, nil
}

// Execute exposes the core logic for tests and direct invocation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// failJob retries transient failures with backoff from the broker and
// throws BPMN errors for everything a retry cannot fix.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	var stdErr *errors.StandardError
	if !errors.AsStandardError(err, &stdErr) {
		stdErr = errors.NewExternalServiceError("matching", err)
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	if stdErr.Retryable && job.Retries > 1 {
		h.logger.Warn("job failed, leaving retries to the broker", map[string]interface{}{
			"jobKey":    job.Key,
			"errorCode": string(stdErr.Code),
			"retries":   job.Retries - 1,
		})
		_, sendErr := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(job.Retries - 1).
			ErrorMessage(stdErr.Error()).
			Send(context.Background())
		if sendErr != nil {
			h.logger.Error("failed to send fail job command", map[string]interface{}{
				"error": sendErr,
			})
		}
		return
	}

	h.throwBusinessError(client, job, stdErr)
}

func (h *Handler) throwBusinessError(client worker.JobClient, job entities.Job, stdErr *errors.StandardError) {
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(fmt.Sprintf("%s: %s", bpmnErr.Message, bpmnErr.Details)).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
