// internal/workers/intake/notify-recruiters/models.go
package notifyrecruiters

const (
	StatusPublished = "published"
	StatusDisabled  = "disabled"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	FullName      string `json:"fullName"`
	Role          string `json:"role"`
}

type Output struct {
	AlertStatus    string `json:"recruiterAlertStatus"`
	AlertMessageID string `json:"recruiterAlertMessageId,omitempty"`
}
