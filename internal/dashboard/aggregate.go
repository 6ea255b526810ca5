// internal/dashboard/aggregate.go
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"talent-intake/internal/models"
)

// DailyWindow is the number of days covered by DailyCounts.
const DailyWindow = 14

// Count is one bucket of a distribution.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DayCount is the number of applications created on Date (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type StatusBreakdown struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// RoleRating is the mean rating of a role. Mean is nil when no application of the role
// has been rated.
type RoleRating struct {
	Role  string   `json:"role"`
	Mean  *float64 `json:"mean"`
	Rated int      `json:"rated"`
}

// Summary is the header of the analytics view.
type Summary struct {
	Total            int    `json:"total"`
	LastSevenDays    int    `json:"lastSevenDays"`
	AverageRating    string `json:"averageRating"`
	TopRole          string `json:"topRole"`
	PendingScreening int    `json:"pendingScreening"`
}

// Stats bundles every aggregate of the analytics view.
type Stats struct {
	Summary      Summary         `json:"summary"`
	ByRole       []Count         `json:"byRole"`
	Daily        []DayCount      `json:"daily"`
	Status       StatusBreakdown `json:"status"`
	ByExperience []Count         `json:"byExperience"`
	MeanRating   []RoleRating    `json:"meanRating"`
}

// ComputeStats derives all aggregates from the unfiltered list.
func ComputeStats(apps []models.Application, now time.Time, loc *time.Location) Stats {
	return Stats{
		Summary:      Summarize(apps, now),
		ByRole:       CountByRole(apps),
		Daily:        DailyCounts(apps, now, loc),
		Status:       CountByStatus(apps),
		ByExperience: CountByExperience(apps),
		MeanRating:   MeanRatingByRole(apps),
	}
}

// CountByRole counts applications per role, most frequent first. Ties keep the order in
// which roles first appear.
func CountByRole(apps []models.Application) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, app := range apps {
		i, ok := index[app.Role]
		if !ok {
			i = len(counts)
			index[app.Role] = i
			counts = append(counts, Count{Key: app.Role})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

// DailyCounts returns one bucket per day for the DailyWindow days ending today, oldest
// first. Days are calendar dates in loc.
func DailyCounts(apps []models.Application, now time.Time, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	days := make([]DayCount, DailyWindow)
	index := make(map[string]int, DailyWindow)
	for i := range days {
		date := today.AddDate(0, 0, i-(DailyWindow-1)).Format(time.DateOnly)
		days[i] = DayCount{Date: date}
		index[date] = i
	}

	for _, app := range apps {
		if i, ok := index[app.CreatedAt.In(loc).Format(time.DateOnly)]; ok {
			days[i].Count++
		}
	}
	return days
}

// CountByStatus buckets applications into passed, failed and pending. A missing status
// counts as pending.
func CountByStatus(apps []models.Application) StatusBreakdown {
	var b StatusBreakdown
	for _, app := range apps {
		switch app.EffectiveStatus() {
		case models.ScreeningPassed:
			b.Passed++
		case models.ScreeningFailed:
			b.Failed++
		case models.ScreeningPending:
			b.Pending++
		}
	}
	return b
}

// CountByExperience counts applications per experience bracket in catalog order. Values
// outside the catalog follow in order of appearance.
func CountByExperience(apps []models.Application) []Count {
	counts := make([]Count, len(models.ExperienceRanges))
	index := make(map[string]int, len(counts))
	for i, bracket := range models.ExperienceRanges {
		counts[i] = Count{Key: bracket}
		index[bracket] = i
	}
	for _, app := range apps {
		i, ok := index[app.ExperienceYears]
		if !ok {
			i = len(counts)
			index[app.ExperienceYears] = i
			counts = append(counts, Count{Key: app.ExperienceYears})
		}
		counts[i].Count++
	}
	return counts
}

// MeanRatingByRole averages ratings per role over rated applications only.
func MeanRatingByRole(apps []models.Application) []RoleRating {
	type acc struct{ sum, n int }
	index := make(map[string]int)
	var roles []string
	var sums []acc

	for _, app := range apps {
		i, ok := index[app.Role]
		if !ok {
			i = len(roles)
			index[app.Role] = i
			roles = append(roles, app.Role)
			sums = append(sums, acc{})
		}
		if app.Rating != nil {
			sums[i].sum += *app.Rating
			sums[i].n++
		}
	}

	out := make([]RoleRating, len(roles))
	for i, role := range roles {
		out[i] = RoleRating{Role: role, Rated: sums[i].n}
		if sums[i].n > 0 {
			mean := float64(sums[i].sum) / float64(sums[i].n)
			out[i].Mean = &mean
		}
	}
	return out
}

// Summarize computes the header figures. AverageRating has one decimal and is "0.0"
// without ratings; TopRole is "None" for an empty list.
func Summarize(apps []models.Application, now time.Time) Summary {
	s := Summary{Total: len(apps), AverageRating: "0.0", TopRole: "None"}

	weekAgo := now.AddDate(0, 0, -7)
	sum, rated := 0, 0
	for _, app := range apps {
		if app.CreatedAt.After(weekAgo) {
			s.LastSevenDays++
		}
		if app.Rating != nil {
			sum += *app.Rating
			rated++
		}
		if app.EffectiveStatus() == models.ScreeningPending {
			s.PendingScreening++
		}
	}
	if rated > 0 {
		s.AverageRating = fmt.Sprintf("%.1f", float64(sum)/float64(rated))
	}
	if byRole := CountByRole(apps); len(byRole) > 0 {
		s.TopRole = byRole[0].Key
	}
	return s
}
