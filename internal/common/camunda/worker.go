// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"talent-intake/internal/common/config"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every follow-up worker. Handlers complete or fail the job themselves.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registration binds a task type to its handler and settings.
type Registration struct {
	TaskType string
	Config   config.WorkerConfig
	Handler  JobHandler
}

// OpenWorker starts polling for reg.TaskType. Close the returned worker on shutdown.
func OpenWorker(client zbc.Client, reg Registration, log logger.Logger) worker.JobWorker {
	log = log.WithFields(map[string]interface{}{"taskType": reg.TaskType})

	jobWorker := client.NewJobWorker().
		JobType(reg.TaskType).
		Handler(instrument(reg.TaskType, reg.Handler)).
		MaxJobsActive(reg.Config.MaxJobsActive).
		Timeout(config.GetDuration(reg.Config.Timeout)).
		Name(reg.TaskType).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": reg.Config.MaxJobsActive,
		"timeoutMs":     reg.Config.Timeout,
	})
	return jobWorker
}

func instrument(taskType string, h JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}()
		h.Handle(client, job)
	}
}
