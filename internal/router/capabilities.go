// internal/router/capabilities.go
package router

import "talent-intake/internal/models"

// Capabilities lists what a dashboard role may do.
type Capabilities struct {
	ViewDashboard   bool `json:"viewDashboard"`
	Rate            bool `json:"rate"`
	ChangeStatus    bool `json:"changeStatus"`
	Export          bool `json:"export"`
	ManageUsers     bool `json:"manageUsers"`
	ViewCandidateCV bool `json:"viewCandidateCv"`
}

// Capability names one entry of Capabilities.
type Capability string

const (
	CapViewDashboard Capability = "view_dashboard"
	CapRate          Capability = "rate"
	CapChangeStatus  Capability = "change_status"
	CapExport        Capability = "export"
	CapManageUsers   Capability = "manage_users"
	CapViewCV        Capability = "view_cv"
)

// CapabilitiesFor maps a role to its capabilities. Unknown roles get guest access.
func CapabilitiesFor(role models.UserRole) Capabilities {
	switch role {
	case models.RoleSuperAdmin:
		return Capabilities{ViewDashboard: true, Rate: true, ChangeStatus: true, Export: true, ManageUsers: true, ViewCandidateCV: true}
	case models.RoleRecruiter:
		return Capabilities{ViewDashboard: true, Rate: true, ChangeStatus: true, Export: true, ViewCandidateCV: true}
	default:
		return Capabilities{ViewDashboard: true, ViewCandidateCV: true}
	}
}

// Allows reports whether c grants capability.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapViewDashboard:
		return c.ViewDashboard
	case CapRate:
		return c.Rate
	case CapChangeStatus:
		return c.ChangeStatus
	case CapExport:
		return c.Export
	case CapManageUsers:
		return c.ManageUsers
	case CapViewCV:
		return c.ViewCandidateCV
	}
	return false
}
