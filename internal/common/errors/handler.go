// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobOutcome is how a failed job is reported back to the engine.
type JobOutcome int

const (
	// OutcomeThrow raises a BPMN error the process can catch.
	OutcomeThrow JobOutcome = iota
	// OutcomeFail fails the job, optionally leaving retries for the engine.
	OutcomeFail
)

// ErrorHandler reports job errors to Zeebe in a uniform way.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decide picks the outcome for stdErr given the job's remaining retries.
// Business errors are thrown; everything else fails the job, keeping
// min(remaining, recommended) retries.
func Decide(stdErr *StandardError, remaining int32) (JobOutcome, int32) {
	if IsBusinessError(stdErr.Code) {
		return OutcomeThrow, 0
	}
	retries := int32(ConvertToBPMNError(stdErr).Retries)
	if remaining < retries {
		retries = remaining
	}
	if retries < 0 {
		retries = 0
	}
	return OutcomeFail, retries
}

// HandleJobError handles any error in a worker job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	outcome, retries := Decide(stdErr, job.GetRetries())

	h.logError(job, stdErr, bpmnErr, retries)

	varsJSON, marshalErr := json.Marshal(bpmnErr.ToErrorVariables())
	if marshalErr != nil {
		varsJSON = nil
	}

	switch outcome {
	case OutcomeThrow:
		cmd := client.NewThrowErrorCommand().
			JobKey(job.GetKey()).
			ErrorCode(bpmnErr.Code).
			ErrorMessage(bpmnErr.Message)
		if varsJSON != nil {
			if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
				h.send(ctx, job, func(ctx context.Context) error { _, err := withVars.Send(ctx); return err })
				return
			}
		}
		h.send(ctx, job, func(ctx context.Context) error { _, err := cmd.Send(ctx); return err })
	default:
		cmd := client.NewFailJobCommand().
			JobKey(job.GetKey()).
			Retries(retries).
			ErrorMessage("[" + bpmnErr.Code + "] " + bpmnErr.Message)
		if varsJSON != nil {
			if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
				h.send(ctx, job, func(ctx context.Context) error { _, err := withVars.Send(ctx); return err })
				return
			}
		}
		h.send(ctx, job, func(ctx context.Context) error { _, err := cmd.Send(ctx); return err })
	}
}

func (h *ErrorHandler) send(ctx context.Context, job entities.Job, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		h.logger.Error("Failed to report job error to Zeebe", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError, retries int32) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        bpmnErr.Retryable,
		"retries":          retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
	})
}
