// internal/workers/intake/index-application/handler.go
package indexapplication

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/common/observability"
	"talent-intake/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "index-application"
)

var (
	ErrInvalidInput        = stderrors.New("INVALID_INPUT")
	ErrApplicationNotFound = stderrors.New("APPLICATION_NOT_FOUND")
)

// ApplicationLoader reads the stored application.
type ApplicationLoader interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
}

// Indexer writes an application into the search index.
type Indexer interface {
	Index(ctx context.Context, app models.Application) error
}

type Handler struct {
	config       *Config
	loader       ApplicationLoader
	indexer      Indexer
	errorHandler *errors.ErrorHandler
	telemetry    *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, loader ApplicationLoader, indexer Indexer, telemetry *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		loader:       loader,
		indexer:      indexer,
		errorHandler: errors.NewErrorHandler(log),
		telemetry:    telemetry,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewBusinessRuleError("Invalid job variables", fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, h.toStandard(err), start)
		return
	}

	h.completeJob(client, job, output, start)
}

// Execute copies the stored application into the search index.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrInvalidInput)
	}

	app, err := h.loader.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, input.ApplicationID)
	}

	if err := h.indexer.Index(ctx, *app); err != nil {
		return nil, err
	}

	h.logger.Info("application indexed", map[string]interface{}{
		"applicationId": app.ID,
		"role":          app.Role,
	})
	return &Output{
		Indexed:   true,
		IndexedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) toStandard(err error) *errors.StandardError {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr
	}
	switch {
	case stderrors.Is(err, ErrInvalidInput):
		return errors.NewBusinessRuleError("Invalid job variables", err.Error())
	case stderrors.Is(err, ErrApplicationNotFound):
		return errors.NewResourceNotFoundError("postgres", err.Error())
	default:
		return errors.NewSearchQueryFailedError("index", err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
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
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.telemetry.RecordJob(context.Background(), TaskType, "completed", time.Since(start))
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, stdErr *errors.StandardError, start time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.telemetry.RecordJob(context.Background(), TaskType, "failed", time.Since(start))
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}
