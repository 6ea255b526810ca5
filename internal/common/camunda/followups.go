// internal/common/camunda/followups.go
package camunda

import (
	"context"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"
)

// ProcessStarter starts BPMN process instances. *Client implements it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, vars interface{}) (int64, error)
}

// Followups starts the post-submission and post-screening processes.
// A failed start is logged and never fails the caller's operation.
type Followups struct {
	starter            ProcessStarter
	intakeProcessID    string
	screeningProcessID string
	logger             logger.Logger
}

func NewFollowups(starter ProcessStarter, intakeProcessID, screeningProcessID string, log logger.Logger) *Followups {
	return &Followups{
		starter:            starter,
		intakeProcessID:    intakeProcessID,
		screeningProcessID: screeningProcessID,
		logger:             logger.ForComponent(log, "followups"),
	}
}

// ApplicationSubmittedVars are the variables of the intake follow-up process.
type ApplicationSubmittedVars struct {
	ApplicationID string `json:"applicationId"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phoneNumber"`
	Role          string `json:"role"`
}

// ScreeningChangedVars are the variables of the screening follow-up process.
type ScreeningChangedVars struct {
	ApplicationIDs  []string `json:"applicationIds"`
	ScreeningStatus string   `json:"screeningStatus"`
}

// ApplicationSubmitted starts the intake follow-up for a stored application.
func (f *Followups) ApplicationSubmitted(ctx context.Context, app models.Application) {
	vars := ApplicationSubmittedVars{
		ApplicationID: app.ID,
		FullName:      app.FullName,
		Email:         app.Email,
		PhoneNumber:   app.PhoneNumber,
		Role:          app.Role,
	}
	f.start(ctx, f.intakeProcessID, vars, map[string]interface{}{"applicationId": app.ID})
}

// ScreeningChanged starts the screening follow-up. Only passed candidates are synced.
func (f *Followups) ScreeningChanged(ctx context.Context, ids []string, status models.ScreeningStatus) {
	if status != models.ScreeningPassed || len(ids) == 0 {
		return
	}
	vars := ScreeningChangedVars{ApplicationIDs: ids, ScreeningStatus: string(status)}
	f.start(ctx, f.screeningProcessID, vars, map[string]interface{}{"count": len(ids)})
}

func (f *Followups) start(ctx context.Context, processID string, vars interface{}, fields map[string]interface{}) {
	key, err := f.starter.StartProcess(ctx, processID, vars)
	if err != nil {
		stdErr := errors.NewProcessStartFailedError(processID, err)
		fields["error"] = stdErr.Details
		f.logger.Warn("follow-up process not started", fields)
		return
	}
	fields["processInstanceKey"] = key
	fields["processId"] = processID
	f.logger.Info("follow-up process started", fields)
}
