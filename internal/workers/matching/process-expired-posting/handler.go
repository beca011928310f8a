// internal/workers/matching/process-expired-posting/handler.go
package processexpiredposting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/common/metrics"
	"talentmatch-workers/internal/common/validation"
	"talentmatch-workers/internal/models"
)

const (
	TaskType = "process-expired-posting"
)

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"postingId"},
	"properties": map[string]interface{}{
		"postingId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
	},
}

type expiryProcessor interface {
	ProcessExpiredPosting(ctx context.Context, postingID string) (string, *models.MatchRunResult, error)
}

type Handler struct {
	config    *Config
	processor expiryProcessor
	logger    logger.Logger
}

func NewHandler(config *Config, processor expiryProcessor, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		processor: processor,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		h.throwBusinessError(client, job, errors.NewMalformedInputError("job variables are not a JSON object"))
		return
	}
	result, err := validation.ValidateInput(raw, inputSchema)
	if err != nil || !result.Valid {
		msg := "input validation failed"
		if result != nil {
			msg = strings.Join(result.GetErrorMessages(), "; ")
		}
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
	status, runResult, err := h.processor.ProcessExpiredPosting(ctx, input.PostingID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		PostingID:   input.PostingID,
		FinalStatus: status,
	}
	if runResult != nil {
		output.Scored = runResult.Scored
		output.Skipped = runResult.Skipped
		output.Failed = runResult.Failed
	}

	return output, nil
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
