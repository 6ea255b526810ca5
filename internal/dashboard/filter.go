// internal/dashboard/filter.go
package dashboard

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/models"
)

// Set is a multi-select filter dimension. An empty set accepts everything.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) accepts(v string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[v]
	return ok
}

// Values returns the members in sorted order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FilterState holds the dashboard filters. Records must match every non-empty dimension
// and any value within one.
type FilterState struct {
	Roles              Set
	ExperienceYears    Set
	EducationLevels    Set
	EmploymentStatuses Set
	WorkTypes          Set
	ScreeningStatuses  Set
	MinRatings         Set
	Search             string
}

// IsEmpty reports whether no dimension restricts the list.
func (f FilterState) IsEmpty() bool {
	return len(f.Roles) == 0 && len(f.ExperienceYears) == 0 && len(f.EducationLevels) == 0 &&
		len(f.EmploymentStatuses) == 0 && len(f.WorkTypes) == 0 && len(f.ScreeningStatuses) == 0 &&
		len(f.MinRatings) == 0 && strings.TrimSpace(f.Search) == ""
}

// minRating returns the smallest selected rating, or 0.
func (f FilterState) minRating() int {
	min := 0
	for v := range f.MinRatings {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		if min == 0 || n < min {
			min = n
		}
	}
	return min
}

// Filter returns the records matching f, preserving input order. An empty filter returns
// apps itself.
func Filter(apps []models.Application, f FilterState) []models.Application {
	if f.IsEmpty() {
		return apps
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	minRating := f.minRating()

	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if !f.Roles.accepts(app.Role) ||
			!f.ExperienceYears.accepts(app.ExperienceYears) ||
			!f.EducationLevels.accepts(app.EducationLevel) ||
			!f.EmploymentStatuses.accepts(app.EmploymentStatus) ||
			!f.WorkTypes.accepts(app.WorkType) ||
			!f.ScreeningStatuses.accepts(string(app.EffectiveStatus())) {
			continue
		}
		if minRating > 0 && app.RatingOrZero() < minRating {
			continue
		}
		if search != "" && !matchesSearch(app, search) {
			continue
		}
		out = append(out, app)
	}
	return out
}

func matchesSearch(app models.Application, needle string) bool {
	return strings.Contains(strings.ToLower(app.FullName), needle) ||
		strings.Contains(strings.ToLower(app.Email), needle) ||
		strings.Contains(strings.ToLower(app.PhoneNumber), needle)
}

// ParseFilterState reads filters from query parameters. Multi-valued dimensions accept
// repeated keys or comma separated values.
func ParseFilterState(q url.Values) (FilterState, error) {
	f := FilterState{
		Roles:              querySet(q, "role"),
		ExperienceYears:    querySet(q, "experience"),
		EducationLevels:    querySet(q, "education"),
		EmploymentStatuses: querySet(q, "employment"),
		WorkTypes:          querySet(q, "workType"),
		ScreeningStatuses:  querySet(q, "status"),
		MinRatings:         querySet(q, "minRating"),
		Search:             q.Get("search"),
	}

	for v := range f.ScreeningStatuses {
		if !models.ScreeningStatus(v).Valid() {
			return FilterState{}, errors.NewInvalidFilterFormatError("unknown screening status: " + v)
		}
	}
	for v := range f.MinRatings {
		n, err := strconv.Atoi(v)
		if err != nil || !models.ValidRating(n) {
			return FilterState{}, errors.NewInvalidFilterFormatError("minRating must be between 1 and 5: " + v)
		}
	}
	return f, nil
}

func querySet(q url.Values, key string) Set {
	s := Set{}
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				s[v] = struct{}{}
			}
		}
	}
	return s
}
