// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler completes, fails or throws on the job itself; a returned error is only logged.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type JobHandlerFunc func(client worker.JobClient, job entities.Job) error

func (f JobHandlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

// CamundaWorker polls one task type of the fulfilment process.
type CamundaWorker struct {
	worker   worker.JobWorker
	log      *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The zbc client stays owned by the caller.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log *zap.Logger,
) *CamundaWorker {
	log = log.With(zap.String("taskType", taskType))
	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			if err := handler.Handle(client, job); err != nil {
				log.Error("job handler failed", zap.Int64("jobKey", job.Key), zap.Error(err))
			}
		}).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("job worker opened", zap.Int("maxJobsActive", maxJobsActive), zap.Duration("timeout", timeout))
	return &CamundaWorker{worker: jw, log: log, taskType: taskType}
}

// Stop closes the worker and waits for in-flight jobs until ctx expires.
func (w *CamundaWorker) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker.Close()
		w.worker.AwaitClose()
	}()
	select {
	case <-done:
		w.log.Info("job worker closed")
	case <-ctx.Done():
		w.log.Warn("job worker close timed out")
	}
}
