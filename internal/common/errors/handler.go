package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports a failed fulfilment job back to the broker. Retryable errors fail
// the job while retries remain; everything else is thrown as a BPMN error.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr, ok := AsStandard(err)
	if !ok {
		stdErr = &StandardError{
			Code:      "INTERNAL_ERROR",
			Message:   "Unexpected error",
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
			cause:     err,
		}
	}
	bpmnErr := ConvertToBPMNError(stdErr)
	retry := bpmnErr.Retries > 0 && job.Retries > 0

	h.logger.Error("fulfilment job failed", map[string]interface{}{
		"jobKey":          job.Key,
		"jobType":         job.Type,
		"processInstance": job.ProcessInstanceKey,
		"errorCode":       string(stdErr.Code),
		"category":        GetErrorCategory(stdErr.Code),
		"details":         stdErr.Details,
		"retry":           retry,
	})

	vars, _ := json.Marshal(bpmnErr.ToErrorVariables())
	if retry {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(retriesFor(job, bpmnErr.Retries)).
			ErrorMessage(bpmnErr.Message)
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil && len(vars) > 0 {
			_, _ = withVars.Send(ctx)
			return
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)
	if withVars, err := cmd.VariablesFromString(string(vars)); err == nil && len(vars) > 0 {
		_, _ = withVars.Send(ctx)
		return
	}
	_, _ = cmd.Send(ctx)
}

// retriesFor never raises the job's remaining retries above what the engine granted.
func retriesFor(job entities.Job, maxRetries int) int32 {
	if job.Retries > 0 && int(job.Retries) < maxRetries {
		return job.Retries - 1
	}
	return int32(maxRetries)
}
