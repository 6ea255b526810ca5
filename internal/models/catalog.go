// internal/models/catalog.go
package models

// Fixed brackets offered by the application form.
var (
	Roles = []string{
		"Sales",
		"Accountant / Finance",
		"Marketing",
		"Admin / Secretary",
		"Operations",
		"Customer Service",
		"Supervisor / Manager",
		"IT / Digital Technology",
		"HR / Recruitment",
		"Creative / Design",
		"Logistics / Supply Chain",
		"Healthcare",
		"Hospitality",
		"Driving / Transport",
		RoleOther,
	}

	ExperienceRanges = []string{"0–1", "2–3", "4–6", "7+"}

	EmploymentStatuses = []string{
		"Yes (Full-time)",
		"Yes (Part-time)",
		"No",
		"Freelance / Contract",
	}

	StartDates = []string{
		"Immediately",
		"Within 2 weeks",
		"Within 1 month",
		"1–3 months",
	}

	EducationLevels = []string{"Diploma", "Bachelor’s", "Master’s", "Other"}

	SalaryRanges = []string{
		"Under 8,000",
		"8,000–15,000",
		"15,000–25,000",
		"25,000+",
	}

	WorkTypes = []string{"On-site", "Hybrid", "Remote", "Any"}
)

// RoleOther requires a free-text role description.
const RoleOther = "Other"

// MaxSkills is the most skills a candidate may select.
const MaxSkills = 5

var roleSkills = map[string][]string{
	"Sales": {
		"Lead generation", "Cold calling", "CRM usage", "Negotiation",
		"Closing", "Client relationship management", "Reporting", "Team leadership",
	},
	"Accountant / Finance": {
		"Bookkeeping", "Taxation", "Financial Reporting", "Excel/Spreadsheets",
		"Payroll Management", "Auditing", "Budgeting", "QuickBooks/Xero",
	},
	"Marketing": {
		"SEO/SEM", "Content Creation", "Social Media Management", "Email Marketing",
		"Market Research", "Copywriting", "Analytics", "Brand Strategy",
	},
	"Admin / Secretary": {
		"Office Management", "Scheduling", "Data Entry", "Communication",
		"Travel Arrangements", "Filing Systems", "Customer Greeting", "Event Planning",
	},
	"Operations": {
		"Process Improvement", "Logistics", "Inventory Management", "Project Management",
		"Supply Chain", "Vendor Management", "Quality Control", "Team Coordination",
	},
	"Customer Service": {
		"Conflict Resolution", "Active Listening", "Ticket Systems", "Phone Etiquette",
		"Product Knowledge", "Empathy", "Multitasking", "Live Chat Support",
	},
	"Supervisor / Manager": {
		"Team Building", "Strategic Planning", "Performance Reviews", "Delegation",
		"Crisis Management", "Mentoring", "Budget Oversight", "KPI Tracking",
	},
	"IT / Digital Technology": {
		"Software Development", "Network Administration", "Cybersecurity", "Cloud Computing (AWS/Azure)",
		"Database Management", "Technical Support", "Web Technologies", "IT Project Management",
	},
	"HR / Recruitment": {
		"Talent Acquisition", "Employee Relations", "Performance Management", "Labor Law Compliance",
		"Onboarding", "Training & Development", "HRIS Management", "Policy Writing",
	},
	"Creative / Design": {
		"Graphic Design", "UI/UX Design", "Video Editing", "Illustration",
		"Brand Identity", "Adobe Creative Suite", "Motion Graphics", "Photography",
	},
	"Logistics / Supply Chain": {
		"Inventory Control", "Fleet Management", "Warehouse Management", "Procurement",
		"Freight Forwarding", "Distribution Planning", "Route Optimization", "Supply Chain Analytics",
	},
	"Healthcare": {
		"Patient Care", "Medical Terminology", "First Aid/CPR", "Electronic Health Records",
		"Clinical Support", "Health & Safety Compliance", "Medical Research", "Public Health",
	},
	"Hospitality": {
		"Guest Services", "Front Desk Operations", "Food & Beverage Management", "Event Coordination",
		"Housekeeping Management", "Reservation Systems", "Customer Loyalty", "Tourism Knowledge",
	},
	"Driving / Transport": {
		"Defensive Driving", "Route Navigation", "Vehicle Maintenance", "Logistics Documentation",
		"Passenger Safety", "Heavy Vehicle Operation", "Time Management", "local Geography",
	},
	RoleOther: {
		"Communication", "Problem Solving", "Time Management", "Adaptability",
		"Technical Skills", "Creativity", "Leadership", "Collaboration",
	},
}

// SkillsForRole returns the skills offered for role, falling back to the "Other" list.
func SkillsForRole(role string) []string {
	skills, ok := roleSkills[role]
	if !ok {
		skills = roleSkills[RoleOther]
	}
	out := make([]string, len(skills))
	copy(out, skills)
	return out
}

// SkillOffered reports whether skill is selectable for role.
func SkillOffered(role, skill string) bool {
	for _, s := range SkillsForRole(role) {
		if s == skill {
			return true
		}
	}
	return false
}

// IsKnownRole reports whether role is one of the catalog roles.
func IsKnownRole(role string) bool {
	_, ok := roleSkills[role]
	return ok
}

// Catalog bundles the brackets for clients that render the form.
type Catalog struct {
	Roles              []string                `json:"roles"`
	RoleSkills         map[string][]string     `json:"roleSkills"`
	ExperienceRanges   []string                `json:"experienceRanges"`
	EmploymentStatuses []string                `json:"employmentStatuses"`
	StartDates         []string                `json:"startDates"`
	EducationLevels    []string                `json:"educationLevels"`
	SalaryRanges       []string                `json:"salaryRanges"`
	WorkTypes          []string                `json:"workTypes"`
	ScreeningStatuses  []ScreeningStatusOption `json:"screeningStatuses"`
	MaxSkills          int                     `json:"maxSkills"`
}

// ScreeningStatusOption pairs a status value with its label.
type ScreeningStatusOption struct {
	Value ScreeningStatus `json:"value"`
	Label string          `json:"label"`
}

// NewCatalog returns a copy of the form catalog.
func NewCatalog() Catalog {
	skills := make(map[string][]string, len(roleSkills))
	for role := range roleSkills {
		skills[role] = SkillsForRole(role)
	}
	statuses := make([]ScreeningStatusOption, 0, len(ScreeningStatuses))
	for _, s := range ScreeningStatuses {
		statuses = append(statuses, ScreeningStatusOption{Value: s, Label: s.Label()})
	}
	return Catalog{
		Roles:              append([]string(nil), Roles...),
		RoleSkills:         skills,
		ExperienceRanges:   append([]string(nil), ExperienceRanges...),
		EmploymentStatuses: append([]string(nil), EmploymentStatuses...),
		StartDates:         append([]string(nil), StartDates...),
		EducationLevels:    append([]string(nil), EducationLevels...),
		SalaryRanges:       append([]string(nil), SalaryRanges...),
		WorkTypes:          append([]string(nil), WorkTypes...),
		ScreeningStatuses:  statuses,
		MaxSkills:          MaxSkills,
	}
}
