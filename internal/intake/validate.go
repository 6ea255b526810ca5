// internal/intake/validate.go
package intake

import (
	"strings"

	"talent-intake/internal/common/validation"
	"talent-intake/internal/models"
)

// Wizard steps.
const (
	StepBasicInfo = iota
	StepRoleExperience
	StepSkills
	StepCompensation
	StepPresence
	StepCommitment

	StepCount
)

var stepNames = [StepCount]string{
	"basic-info",
	"role-experience",
	"skills-qualification",
	"compensation",
	"professional-presence",
	"commitment",
}

// StepName returns a stable name for step, or "unknown".
func StepName(step int) string {
	if step < 0 || step >= StepCount {
		return "unknown"
	}
	return stepNames[step]
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateStep checks the fields owned by step and returns field → message.
// The map is empty iff the step is complete.
func ValidateStep(data models.FormData, step int) map[string]string {
	errs := make(map[string]string)

	switch step {
	case StepBasicInfo:
		if blank(data.FullName) {
			errs["fullName"] = "Full name is required"
		}
		if blank(data.PhoneNumber) {
			errs["phoneNumber"] = "Phone number is required"
		}
		if blank(data.Email) {
			errs["email"] = "Email is required"
		} else if !validation.ValidateEmail(strings.TrimSpace(data.Email)) {
			errs["email"] = "Invalid email format"
		}

	case StepRoleExperience:
		if data.Role == "" {
			errs["role"] = "Please select a role"
		}
		if data.Role == models.RoleOther && blank(data.OtherRoleSpecify) {
			errs["otherRoleSpecify"] = "Please specify your role"
		}
		if data.ExperienceYears == "" {
			errs["experienceYears"] = "Please select experience range"
		}
		if data.EmploymentStatus == "" {
			errs["employmentStatus"] = "Please select employment status"
		}
		if data.StartDate == "" {
			errs["startDate"] = "Please select start date"
		}

	case StepSkills:
		if data.EducationLevel == "" {
			errs["educationLevel"] = "Please select education level"
		}
		if len(data.TopSkills) == 0 {
			errs["topSkills"] = "Select at least one skill"
		}
		if data.HasMeasurableAchievements && blank(data.MeasurableAchievement) {
			errs["measurableAchievement"] = "Please describe your achievement"
		}

	case StepCompensation:
		if data.SalaryRange == "" {
			errs["salaryRange"] = "Please select salary range"
		}
		if data.WorkType == "" {
			errs["workType"] = "Please select work type"
		}

	case StepPresence:
		switch {
		case data.CV == nil || data.CV.Status == models.CVNone:
			errs["cvFile"] = "Please upload your CV"
		case data.CV.Status == models.CVUploading:
			errs["cvFile"] = "Your CV is still uploading"
		case data.CV.Status == models.CVFailed:
			errs["cvFile"] = "CV upload failed, please choose the file again"
		case !data.CV.Ready():
			errs["cvFile"] = "Please upload your CV"
		}

	case StepCommitment:
		if !data.CommitmentAgreed {
			errs["commitmentAgreed"] = "You must agree to proceed"
		}
	}

	return errs
}

// ValidateAll runs every step and returns the first incomplete step with its errors,
// or -1 and an empty map.
func ValidateAll(data models.FormData) (int, map[string]string) {
	for step := 0; step < StepCount; step++ {
		if errs := ValidateStep(data, step); len(errs) > 0 {
			return step, errs
		}
	}
	return -1, map[string]string{}
}
