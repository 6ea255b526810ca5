// internal/workers/intake/sync-crm-contact/models.go
package synccrmcontact

// Input matches the variables of the screening follow-up process.
type Input struct {
	ApplicationIDs  []string `json:"applicationIds"`
	ScreeningStatus string   `json:"screeningStatus"`
}

type Output struct {
	Created    int      `json:"crmContactsCreated"`
	Skipped    int      `json:"crmContactsSkipped"`
	ContactIDs []string `json:"crmContactIds"`
}
