// internal/intake/form.go
package intake

import (
	"fmt"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/models"
)

// Draft is one candidate's pass through the six-step wizard. Its methods are the state
// machine; they never perform I/O.
type Draft struct {
	ID            string            `json:"id"`
	Step          int               `json:"step"`
	Submitted     bool              `json:"submitted"`
	Data          models.FormData   `json:"data"`
	Errors        map[string]string `json:"errors"`
	ApplicationID string            `json:"applicationId,omitempty"`
	SubmitError   string            `json:"submitError,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func NewDraft(id string, now time.Time) *Draft {
	return &Draft{
		ID:        id,
		Data:      emptyForm(),
		Errors:    map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func emptyForm() models.FormData {
	return models.FormData{TopSkills: []string{}}
}

// State names the current state for errors and metrics.
func (d *Draft) State() string {
	if d.Submitted {
		return "submitted"
	}
	return fmt.Sprintf("step %d (%s)", d.Step, StepName(d.Step))
}

// Next validates the current step and advances. The last step only leaves through Submit.
func (d *Draft) Next() error {
	if d.Submitted || d.Step >= StepCommitment {
		return errors.NewInvalidTransitionError("next", d.State())
	}

	if errs := ValidateStep(d.Data, d.Step); len(errs) > 0 {
		d.Errors = errs
		return errors.NewApplicationValidationFailedError(errs)
	}

	d.Step++
	d.Errors = map[string]string{}
	return nil
}

// Prev goes back one step without validating.
func (d *Draft) Prev() error {
	if d.Submitted || d.Step == StepBasicInfo {
		return errors.NewInvalidTransitionError("prev", d.State())
	}
	d.Step--
	d.Errors = map[string]string{}
	return nil
}

// SelectRole sets the role. Skills belong to a role, so changing it drops the selection.
func (d *Draft) SelectRole(role string) {
	if role != d.Data.Role {
		d.Data.TopSkills = []string{}
	}
	d.Data.Role = role
	delete(d.Errors, "role")
}

// ToggleSkill deselects a selected skill or selects an offered one. Selecting beyond
// MaxSkills, or a skill the current role does not offer, changes nothing.
func (d *Draft) ToggleSkill(skill string) bool {
	delete(d.Errors, "topSkills")

	for i, s := range d.Data.TopSkills {
		if s == skill {
			d.Data.TopSkills = append(d.Data.TopSkills[:i:i], d.Data.TopSkills[i+1:]...)
			return true
		}
	}

	if len(d.Data.TopSkills) >= models.MaxSkills || !models.SkillOffered(d.Data.Role, skill) {
		return false
	}
	d.Data.TopSkills = append(d.Data.TopSkills, skill)
	return true
}

// Apply merges a field patch and clears the errors of the fields it touched.
func (d *Draft) Apply(p FieldPatch) {
	if p.Role != nil {
		d.SelectRole(*p.Role)
	}
	p.applyTo(&d.Data)
	for _, field := range p.Fields() {
		delete(d.Errors, field)
	}
}

// Reset discards all data and returns to the first step.
func (d *Draft) Reset(now time.Time) {
	*d = Draft{
		ID:        d.ID,
		Data:      emptyForm(),
		Errors:    map[string]string{},
		CreatedAt: d.CreatedAt,
		UpdatedAt: now,
	}
}

// checkSubmittable guards Submit: only the last step may submit and every step must be
// complete. Failing fields are recorded on the draft.
func (d *Draft) checkSubmittable() error {
	if d.Submitted || d.Step != StepCommitment {
		return errors.NewInvalidTransitionError("submit", d.State())
	}

	if errs := ValidateStep(d.Data, StepCommitment); len(errs) > 0 {
		d.Errors = errs
		return errors.NewApplicationValidationFailedError(errs)
	}
	// earlier steps may have been edited after they were passed
	if _, errs := ValidateAll(d.Data); len(errs) > 0 {
		d.Errors = errs
		if _, ok := errs["cvFile"]; ok {
			return errors.NewCVMissingError().WithMetadata("fields", errs)
		}
		return errors.NewApplicationValidationFailedError(errs)
	}
	return nil
}

func (d *Draft) markSubmitted(applicationID string, now time.Time) {
	d.Submitted = true
	d.ApplicationID = applicationID
	d.SubmitError = ""
	d.Errors = map[string]string{}
	d.UpdatedAt = now
}
