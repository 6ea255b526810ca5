// internal/workers/intake/sync-crm-contact/handler.go
package synccrmcontact

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
	"talent-intake/internal/common/zoho"
	"talent-intake/internal/models"
	"talent-intake/internal/platform"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sync-crm-contact"
)

var (
	ErrInvalidInput = stderrors.New("INVALID_INPUT")
)

type ApplicationQuerier interface {
	QueryApplications(ctx context.Context, opts platform.QueryOptions) ([]models.Application, error)
}

type CRMClient interface {
	SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error)
	CreateContact(ctx context.Context, contact *zoho.Contact) (string, error)
}

type Handler struct {
	config       *Config
	records      ApplicationQuerier
	crm          CRMClient
	errorHandler *errors.ErrorHandler
	telemetry    *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, records ApplicationQuerier, crm CRMClient, telemetry *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		records:      records,
		crm:          crm,
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

// Execute creates a CRM contact for every passed candidate that has none yet.
// Candidates whose stored status is no longer screened_passed are skipped.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	output := &Output{ContactIDs: []string{}}
	if !h.config.Enabled || models.ScreeningStatus(input.ScreeningStatus) != models.ScreeningPassed {
		output.Skipped = len(input.ApplicationIDs)
		return output, nil
	}

	apps, err := h.records.QueryApplications(ctx, platform.QueryOptions{IDs: input.ApplicationIDs, Ascending: true})
	if err != nil {
		return nil, err
	}
	output.Skipped = len(input.ApplicationIDs) - len(apps)

	for _, app := range apps {
		if app.EffectiveStatus() != models.ScreeningPassed || strings.TrimSpace(app.Email) == "" {
			output.Skipped++
			continue
		}

		existing, err := h.crm.SearchContacts(ctx, app.Email)
		if err != nil {
			return nil, errors.NewCRMSyncFailedError(err)
		}
		if len(existing) > 0 {
			h.logger.Debug("contact already in crm", map[string]interface{}{
				"applicationId": app.ID,
				"contactId":     existing[0].ID,
			})
			output.Skipped++
			continue
		}

		contactID, err := h.crm.CreateContact(ctx, h.contactFor(app))
		if err != nil {
			return nil, errors.NewCRMSyncFailedError(err)
		}
		output.Created++
		output.ContactIDs = append(output.ContactIDs, contactID)
	}

	h.logger.Info("crm sync finished", map[string]interface{}{
		"created": output.Created,
		"skipped": output.Skipped,
	})
	return output, nil
}

func (h *Handler) validateInput(input *Input) error {
	if len(input.ApplicationIDs) == 0 {
		return fmt.Errorf("%w: applicationIds is required", ErrInvalidInput)
	}
	if len(input.ApplicationIDs) > h.config.MaxBatchSize {
		return fmt.Errorf("%w: at most %d applications per job", ErrInvalidInput, h.config.MaxBatchSize)
	}
	if !models.ScreeningStatus(input.ScreeningStatus).Valid() {
		return fmt.Errorf("%w: unknown screening status %q", ErrInvalidInput, input.ScreeningStatus)
	}
	return nil
}

func (h *Handler) contactFor(app models.Application) *zoho.Contact {
	first, last := splitName(app.FullName)
	return &zoho.Contact{
		Email:     app.Email,
		FirstName: first,
		LastName:  last,
		Phone:     app.PhoneNumber,
		Title:     app.Role,
		Source:    h.config.LeadSource,
		Description: fmt.Sprintf("Experience: %s years. Education: %s. Skills: %s. Rating: %d/5.",
			app.ExperienceYears, app.EducationLevel, strings.Join(app.TopSkills, ", "), app.RatingOrZero()),
	}
}

// splitName keeps the last word as the surname. Zoho requires a last name, so a
// single word goes there.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func (h *Handler) toStandard(err error) *errors.StandardError {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr
	}
	if stderrors.Is(err, ErrInvalidInput) {
		return errors.NewBusinessRuleError("Invalid job variables", err.Error())
	}
	return errors.NewCRMSyncFailedError(err)
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
