// internal/workers/intake/notify-recruiters/handler.go
package notifyrecruiters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	awsx "talent-intake/internal/common/aws"
	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/common/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-recruiters"
)

var (
	ErrInvalidInput = stderrors.New("INVALID_INPUT")
)

type Handler struct {
	config       *Config
	sns          awsx.SNSAPI
	errorHandler *errors.ErrorHandler
	telemetry    *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, sns awsx.SNSAPI, telemetry *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sns:          sns,
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

// Execute publishes a new-application alert to the recruiter topic.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.config.Enabled {
		return &Output{AlertStatus: StatusDisabled}, nil
	}
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, fmt.Errorf("%w: applicationId is required", ErrInvalidInput)
	}

	resp, err := h.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String(fmt.Sprintf("New %s application", roleOrDefault(input.Role))),
		Message:  aws.String(alertMessage(input, h.config.DashboardURL)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"role": {
				DataType:    aws.String("String"),
				StringValue: aws.String(roleOrDefault(input.Role)),
			},
		},
	})
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("sns", err)
	}

	output := &Output{AlertStatus: StatusPublished}
	if resp != nil {
		output.AlertMessageID = aws.ToString(resp.MessageId)
	}
	h.logger.Info("recruiters notified", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"messageId":     output.AlertMessageID,
	})
	return output, nil
}

func roleOrDefault(role string) string {
	if strings.TrimSpace(role) == "" {
		return "Other"
	}
	return role
}

func alertMessage(input *Input, dashboardURL string) string {
	msg := fmt.Sprintf("%s applied for %s.", strings.TrimSpace(input.FullName), roleOrDefault(input.Role))
	if link := CandidateLink(dashboardURL, input.ApplicationID); link != "" {
		msg += "\nReview: " + link
	}
	return msg
}

// CandidateLink returns the dashboard deep link selecting the candidate, or "" without a base URL.
func CandidateLink(base, applicationID string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("candidate", applicationID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (h *Handler) toStandard(err error) *errors.StandardError {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr
	}
	if stderrors.Is(err, ErrInvalidInput) {
		return errors.NewBusinessRuleError("Invalid job variables", err.Error())
	}
	return errors.NewNotificationSendFailedError("sns", err)
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
