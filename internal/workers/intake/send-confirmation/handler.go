// internal/workers/intake/send-confirmation/handler.go
package sendconfirmation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	awsx "talent-intake/internal/common/aws"
	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/common/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-confirmation"
)

var (
	ErrInvalidInput = stderrors.New("INVALID_INPUT")
)

type Handler struct {
	config       *Config
	ses          awsx.SESAPI
	errorHandler *errors.ErrorHandler
	telemetry    *observability.Observability
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, ses awsx.SESAPI, telemetry *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ses:          ses,
		errorHandler: errors.NewErrorHandler(log),
		telemetry:    telemetry,
		logger:       log,
		now:          time.Now,
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

// Execute e-mails the candidate that the application arrived.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.config.Enabled {
		h.logger.Debug("confirmation e-mail disabled", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{ConfirmationStatus: StatusDisabled}, nil
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	msg := awsx.PlainEmail(h.config.FromEmail, input.Email, h.config.Subject, confirmationBody(input))
	resp, err := h.ses.SendEmail(ctx, msg)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	output := &Output{
		ConfirmationStatus: StatusSent,
		SentAt:             h.now().UTC().Format(time.RFC3339),
	}
	if resp != nil {
		output.MessageID = aws.ToString(resp.MessageId)
	}

	h.logger.Info("confirmation sent", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"messageId":     output.MessageID,
	})
	return output, nil
}

func validateInput(input *Input) error {
	if strings.TrimSpace(input.ApplicationID) == "" {
		return fmt.Errorf("%w: applicationId is required", ErrInvalidInput)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: email %q is not deliverable", ErrInvalidInput, input.Email)
	}
	return nil
}

func confirmationBody(input *Input) string {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for applying for the %s role at Afriwork. ", input.Role)
	b.WriteString("Our recruiters will review your application and contact you about the next steps.\n\n")
	fmt.Fprintf(&b, "Reference: %s\n\nAfriwork Talent Team", input.ApplicationID)
	return b.String()
}

func (h *Handler) toStandard(err error) *errors.StandardError {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr
	}
	if stderrors.Is(err, ErrInvalidInput) {
		return errors.NewBusinessRuleError("Invalid job variables", err.Error())
	}
	return errors.NewNotificationSendFailedError("email", err)
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
