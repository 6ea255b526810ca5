// internal/models/form.go
package models

// CVStatus tracks the upload of the attached CV.
type CVStatus string

const (
	CVNone      CVStatus = "none"
	CVUploading CVStatus = "uploading"
	CVUploaded  CVStatus = "uploaded"
	CVFailed    CVStatus = "failed"
)

// CVAttachment describes the CV chosen on step 4. Path is set once the upload completed.
type CVAttachment struct {
	FileName    string   `json:"fileName"`
	ContentType string   `json:"contentType,omitempty"`
	Size        int64    `json:"size"`
	Status      CVStatus `json:"status"`
	Path        string   `json:"path,omitempty"`
}

// Ready reports whether the CV finished uploading.
func (c *CVAttachment) Ready() bool {
	return c != nil && c.Status == CVUploaded && c.Path != ""
}

// FormData is the in-progress application as the candidate fills it in.
type FormData struct {
	FullName                  string        `json:"fullName"`
	PhoneNumber               string        `json:"phoneNumber"`
	Email                     string        `json:"email"`
	AfriworkEmail             string        `json:"afriworkEmail"`
	Role                      string        `json:"role"`
	OtherRoleSpecify          string        `json:"otherRoleSpecify"`
	ExperienceYears           string        `json:"experienceYears"`
	EmploymentStatus          string        `json:"employmentStatus"`
	StartDate                 string        `json:"startDate"`
	EducationLevel            string        `json:"educationLevel"`
	TopSkills                 []string      `json:"topSkills"`
	HasMeasurableAchievements bool          `json:"hasMeasurableAchievements"`
	MeasurableAchievement     string        `json:"measurableAchievement"`
	SalaryRange               string        `json:"salaryRange"`
	WorkType                  string        `json:"workType"`
	CV                        *CVAttachment `json:"cvFile,omitempty"`
	LinkedInURL               string        `json:"linkedInUrl"`
	PortfolioURL              string        `json:"portfolioUrl"`
	CommitmentAgreed          bool          `json:"commitmentAgreed"`
	PriorityReason            string        `json:"priorityReason"`
}

// ToApplication maps the form onto a new application record. Optional text fields
// left blank are stored as NULL.
func (f FormData) ToApplication(cvPath string) Application {
	skills := make([]string, len(f.TopSkills))
	copy(skills, f.TopSkills)

	app := Application{
		FullName:                  f.FullName,
		PhoneNumber:               f.PhoneNumber,
		Email:                     f.Email,
		AfriworkEmail:             StringPtr(f.AfriworkEmail),
		Role:                      f.Role,
		OtherRoleSpecify:          StringPtr(f.OtherRoleSpecify),
		ExperienceYears:           f.ExperienceYears,
		EmploymentStatus:          f.EmploymentStatus,
		StartDate:                 f.StartDate,
		EducationLevel:            f.EducationLevel,
		TopSkills:                 skills,
		HasMeasurableAchievements: f.HasMeasurableAchievements,
		MeasurableAchievement:     StringPtr(f.MeasurableAchievement),
		SalaryRange:               f.SalaryRange,
		WorkType:                  f.WorkType,
		LinkedInURL:               StringPtr(f.LinkedInURL),
		PortfolioURL:              StringPtr(f.PortfolioURL),
		PriorityReason:            StringPtr(f.PriorityReason),
		CVFilePath:                StringPtr(cvPath),
	}
	pending := ScreeningPending
	app.ScreeningStatus = &pending
	return app
}
