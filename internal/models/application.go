// internal/models/application.go
package models

import (
	"time"
)

// ScreeningStatus is the recruiter-facing screening state of an application.
type ScreeningStatus string

const (
	ScreeningPending ScreeningStatus = "pending"
	ScreeningPassed  ScreeningStatus = "screened_passed"
	ScreeningFailed  ScreeningStatus = "screened_failed"
)

// ScreeningStatuses lists the statuses in display order.
var ScreeningStatuses = []ScreeningStatus{ScreeningPending, ScreeningPassed, ScreeningFailed}

var screeningLabels = map[ScreeningStatus]string{
	ScreeningPending: "No Screening Call",
	ScreeningPassed:  "Screened - Passed",
	ScreeningFailed:  "Screened - Failed",
}

// Label returns the dashboard label for the status.
func (s ScreeningStatus) Label() string {
	if label, ok := screeningLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s ScreeningStatus) Valid() bool {
	_, ok := screeningLabels[s]
	return ok
}

// Application is a persisted job application (table job_applications).
//
// Core fields are written once at submission; only Rating and ScreeningStatus change afterwards.
type Application struct {
	ID                        string           `json:"id"`
	CreatedAt                 time.Time        `json:"created_at"`
	FullName                  string           `json:"full_name"`
	PhoneNumber               string           `json:"phone_number"`
	Email                     string           `json:"email"`
	AfriworkEmail             *string          `json:"afriwork_email,omitempty"`
	Role                      string           `json:"role"`
	OtherRoleSpecify          *string          `json:"other_role_specify,omitempty"`
	ExperienceYears           string           `json:"experience_years"`
	EmploymentStatus          string           `json:"employment_status"`
	StartDate                 string           `json:"start_date"`
	EducationLevel            string           `json:"education_level"`
	TopSkills                 []string         `json:"top_skills"`
	HasMeasurableAchievements bool             `json:"has_measurable_achievements"`
	MeasurableAchievement     *string          `json:"measurable_achievement,omitempty"`
	SalaryRange               string           `json:"salary_range"`
	WorkType                  string           `json:"work_type"`
	LinkedInURL               *string          `json:"linkedin_url,omitempty"`
	PortfolioURL              *string          `json:"portfolio_url,omitempty"`
	PriorityReason            *string          `json:"priority_reason,omitempty"`
	CVFilePath                *string          `json:"cv_file_path,omitempty"`
	Rating                    *int             `json:"rating,omitempty"`
	ScreeningStatus           *ScreeningStatus `json:"screening_status,omitempty"`
}

// EffectiveStatus treats a missing screening status as pending.
func (a Application) EffectiveStatus() ScreeningStatus {
	if a.ScreeningStatus == nil || *a.ScreeningStatus == "" {
		return ScreeningPending
	}
	return *a.ScreeningStatus
}

// RatingOrZero returns the rating, or 0 for unrated applications.
func (a Application) RatingOrZero() int {
	if a.Rating == nil {
		return 0
	}
	return *a.Rating
}

// ApplicationPatch is the set of mutable fields a recruiter may change.
type ApplicationPatch struct {
	Rating          *int             `json:"rating,omitempty"`
	ScreeningStatus *ScreeningStatus `json:"screening_status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ApplicationPatch) Empty() bool {
	return p.Rating == nil && p.ScreeningStatus == nil
}

// Apply returns a copy of app with the patch applied.
func (p ApplicationPatch) Apply(app Application) Application {
	if p.Rating != nil {
		r := *p.Rating
		app.Rating = &r
	}
	if p.ScreeningStatus != nil {
		s := *p.ScreeningStatus
		app.ScreeningStatus = &s
	}
	return app
}

// ValidRating reports whether r is an allowed star rating.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
