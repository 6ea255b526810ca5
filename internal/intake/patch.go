// internal/intake/patch.go
package intake

import (
	"encoding/json"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/validation"
	"talent-intake/internal/models"
)

// FieldPatch carries the scalar form fields a candidate edits. Skills and the CV have
// their own operations.
type FieldPatch struct {
	FullName                  *string `json:"fullName,omitempty"`
	PhoneNumber               *string `json:"phoneNumber,omitempty"`
	Email                     *string `json:"email,omitempty"`
	AfriworkEmail             *string `json:"afriworkEmail,omitempty"`
	Role                      *string `json:"role,omitempty"`
	OtherRoleSpecify          *string `json:"otherRoleSpecify,omitempty"`
	ExperienceYears           *string `json:"experienceYears,omitempty"`
	EmploymentStatus          *string `json:"employmentStatus,omitempty"`
	StartDate                 *string `json:"startDate,omitempty"`
	EducationLevel            *string `json:"educationLevel,omitempty"`
	HasMeasurableAchievements *bool   `json:"hasMeasurableAchievements,omitempty"`
	MeasurableAchievement     *string `json:"measurableAchievement,omitempty"`
	SalaryRange               *string `json:"salaryRange,omitempty"`
	WorkType                  *string `json:"workType,omitempty"`
	LinkedInURL               *string `json:"linkedInUrl,omitempty"`
	PortfolioURL              *string `json:"portfolioUrl,omitempty"`
	CommitmentAgreed          *bool   `json:"commitmentAgreed,omitempty"`
	PriorityReason            *string `json:"priorityReason,omitempty"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (p FieldPatch) applyTo(f *models.FormData) {
	setString(&f.FullName, p.FullName)
	setString(&f.PhoneNumber, p.PhoneNumber)
	setString(&f.Email, p.Email)
	setString(&f.AfriworkEmail, p.AfriworkEmail)
	setString(&f.OtherRoleSpecify, p.OtherRoleSpecify)
	setString(&f.ExperienceYears, p.ExperienceYears)
	setString(&f.EmploymentStatus, p.EmploymentStatus)
	setString(&f.StartDate, p.StartDate)
	setString(&f.EducationLevel, p.EducationLevel)
	setBool(&f.HasMeasurableAchievements, p.HasMeasurableAchievements)
	setString(&f.MeasurableAchievement, p.MeasurableAchievement)
	setString(&f.SalaryRange, p.SalaryRange)
	setString(&f.WorkType, p.WorkType)
	setString(&f.LinkedInURL, p.LinkedInURL)
	setString(&f.PortfolioURL, p.PortfolioURL)
	setBool(&f.CommitmentAgreed, p.CommitmentAgreed)
	setString(&f.PriorityReason, p.PriorityReason)
}

// Fields lists the JSON names present in the patch.
func (p FieldPatch) Fields() []string {
	raw, _ := json.Marshal(p)
	var present map[string]json.RawMessage
	_ = json.Unmarshal(raw, &present)

	fields := make([]string, 0, len(present))
	for name := range present {
		fields = append(fields, name)
	}
	return fields
}

func enumOrEmpty(values []string) []interface{} {
	out := make([]interface{}, 0, len(values)+1)
	out = append(out, "")
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func text(maxLength int) map[string]interface{} {
	return map[string]interface{}{"type": "string", "maxLength": maxLength}
}

func choice(values []string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": enumOrEmpty(values)}
}

var patchSchema = func() *validation.Schema {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"fullName":                  text(200),
			"phoneNumber":               text(40),
			"email":                     text(254),
			"afriworkEmail":             text(254),
			"role":                      choice(models.Roles),
			"otherRoleSpecify":          text(200),
			"experienceYears":           choice(models.ExperienceRanges),
			"employmentStatus":          choice(models.EmploymentStatuses),
			"startDate":                 choice(models.StartDates),
			"educationLevel":            choice(models.EducationLevels),
			"hasMeasurableAchievements": map[string]interface{}{"type": "boolean"},
			"measurableAchievement":     text(2000),
			"salaryRange":               choice(models.SalaryRanges),
			"workType":                  choice(models.WorkTypes),
			"linkedInUrl":               text(500),
			"portfolioUrl":              text(500),
			"commitmentAgreed":          map[string]interface{}{"type": "boolean"},
			"priorityReason":            text(2000),
		},
		"additionalProperties": false,
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return validation.MustCompile(string(raw))
}()

// ParsePatch validates a raw JSON patch against the form schema and decodes it.
func ParsePatch(raw []byte) (FieldPatch, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FieldPatch{}, errors.NewApplicationValidationFailedError(map[string]string{"body": "body must be a JSON object"})
	}

	result, err := patchSchema.Validate(doc)
	if err != nil {
		return FieldPatch{}, err
	}
	if !result.Valid {
		return FieldPatch{}, errors.NewApplicationValidationFailedError(result.FieldErrors())
	}

	var patch FieldPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return FieldPatch{}, errors.NewApplicationValidationFailedError(map[string]string{"body": err.Error()})
	}
	return patch, nil
}
