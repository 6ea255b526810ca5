// internal/workers/intake/send-confirmation/models.go
package sendconfirmation

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Input matches the variables the intake follow-up process is started with.
type Input struct {
	ApplicationID string `json:"applicationId"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Role          string `json:"role"`
}

type Output struct {
	ConfirmationStatus string `json:"confirmationStatus"`
	MessageID          string `json:"confirmationMessageId,omitempty"`
	SentAt             string `json:"confirmationSentAt,omitempty"`
}
