// internal/dashboard/sort.go
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"talent-intake/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
	None Direction = "none"
)

// SortKey names a sortable application column.
type SortKey string

const (
	SortFullName        SortKey = "full_name"
	SortEmail           SortKey = "email"
	SortRole            SortKey = "role"
	SortExperience      SortKey = "experience_years"
	SortEducation       SortKey = "education_level"
	SortWorkType        SortKey = "work_type"
	SortScreeningStatus SortKey = "screening_status"
	SortRating          SortKey = "rating"
	SortCreatedAt       SortKey = "created_at"
)

var sortKeys = map[SortKey]bool{
	SortFullName: true, SortEmail: true, SortRole: true, SortExperience: true,
	SortEducation: true, SortWorkType: true, SortScreeningStatus: true,
	SortRating: true, SortCreatedAt: true,
}

// ValidSortKey reports whether k names a sortable column.
func ValidSortKey(k SortKey) bool {
	return sortKeys[k]
}

// SortConfig is the single active sort column.
type SortConfig struct {
	Key       SortKey   `json:"key,omitempty"`
	Direction Direction `json:"direction"`
}

// Toggle returns the config after the user clicks key: the same key cycles
// asc → desc → none, a different key starts at asc.
func (c SortConfig) Toggle(key SortKey) SortConfig {
	if c.Key != key {
		return SortConfig{Key: key, Direction: Asc}
	}
	switch c.Direction {
	case Asc:
		return SortConfig{Key: key, Direction: Desc}
	case Desc:
		return SortConfig{Key: key, Direction: None}
	default:
		return SortConfig{Key: key, Direction: Asc}
	}
}

// Active reports whether the config reorders anything.
func (c SortConfig) Active() bool {
	return c.Key != "" && (c.Direction == Asc || c.Direction == Desc)
}

// sortValue is one cell of the sort column. Exactly one of the typed fields is used.
type sortValue struct {
	null bool
	str  *string
	num  *float64
	at   *time.Time
}

func stringValue(s string) sortValue { return sortValue{str: &s} }

func numberValue(n float64) sortValue { return sortValue{num: &n} }

func timeValue(t time.Time) sortValue { return sortValue{at: &t} }

func valueOf(app models.Application, key SortKey) sortValue {
	switch key {
	case SortFullName:
		return stringValue(app.FullName)
	case SortEmail:
		return stringValue(app.Email)
	case SortRole:
		return stringValue(app.Role)
	case SortExperience:
		return stringValue(app.ExperienceYears)
	case SortEducation:
		return stringValue(app.EducationLevel)
	case SortWorkType:
		return stringValue(app.WorkType)
	case SortScreeningStatus:
		if app.ScreeningStatus == nil {
			return sortValue{null: true}
		}
		return stringValue(string(*app.ScreeningStatus))
	case SortRating:
		if app.Rating == nil {
			return sortValue{null: true}
		}
		return numberValue(float64(*app.Rating))
	case SortCreatedAt:
		if app.CreatedAt.IsZero() {
			return sortValue{null: true}
		}
		return timeValue(app.CreatedAt)
	}
	return sortValue{null: true}
}

func (v sortValue) String() string {
	switch {
	case v.str != nil:
		return *v.str
	case v.num != nil:
		return fmt.Sprint(*v.num)
	case v.at != nil:
		return v.at.Format(time.RFC3339Nano)
	}
	return ""
}

func compareValues(col *collate.Collator, a, b sortValue) int {
	switch {
	case a.num != nil && b.num != nil:
		switch {
		case *a.num < *b.num:
			return -1
		case *a.num > *b.num:
			return 1
		}
		return 0
	case a.at != nil && b.at != nil:
		return a.at.Compare(*b.at)
	case a.str != nil && b.str != nil:
		return col.CompareString(*a.str, *b.str)
	}
	return col.CompareString(a.String(), b.String())
}

// Sort returns a sorted copy of apps. Null values go last in both directions, equal keys
// keep their input order and an inactive config returns the input order.
func Sort(apps []models.Application, cfg SortConfig) []models.Application {
	out := make([]models.Application, len(apps))
	copy(out, apps)
	if !cfg.Active() {
		return out
	}

	values := make([]sortValue, len(out))
	for i := range out {
		values[i] = valueOf(out[i], cfg.Key)
	}
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}

	col := collate.New(language.English)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := values[order[i]], values[order[j]]
		if a.null || b.null {
			return !a.null && b.null
		}
		c := compareValues(col, a, b)
		if cfg.Direction == Desc {
			return c > 0
		}
		return c < 0
	})

	sorted := make([]models.Application, len(out))
	for i, idx := range order {
		sorted[i] = out[idx]
	}
	return sorted
}
