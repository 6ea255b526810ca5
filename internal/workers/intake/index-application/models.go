// internal/workers/intake/index-application/models.go
package indexapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	Indexed   bool   `json:"indexed"`
	IndexedAt string `json:"indexedAt"` // ISO 8601
}
