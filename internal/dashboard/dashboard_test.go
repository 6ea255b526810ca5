package dashboard

import (
	"net/url"
	"testing"
	"time"

	commonerrors "talent-intake/internal/common/errors"
	"talent-intake/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func rating(n int) *int { return &n }

func status(s models.ScreeningStatus) *models.ScreeningStatus { return &s }

func sampleApps() []models.Application {
	return []models.Application{
		{ID: "a1", FullName: "Abebe Kebede", Email: "abebe@example.com", PhoneNumber: "+251911000001", Role: "Sales", ExperienceYears: "0–1", EducationLevel: "Diploma", EmploymentStatus: "No", WorkType: "Remote", CreatedAt: base, Rating: rating(3)},
		{ID: "a2", FullName: "selam tesfaye", Email: "selam@example.com", PhoneNumber: "+251911000002", Role: "Marketing", ExperienceYears: "2–3", EducationLevel: "Bachelor’s", EmploymentStatus: "No", WorkType: "Hybrid", CreatedAt: base.Add(-24 * time.Hour), Rating: rating(5), ScreeningStatus: status(models.ScreeningPassed)},
		{ID: "a3", FullName: "Dawit Alemu", Email: "dawit@corp.et", PhoneNumber: "+251922000003", Role: "Sales", ExperienceYears: "2–3", EducationLevel: "Diploma", EmploymentStatus: "Yes (Full-time)", WorkType: "On-site", CreatedAt: base.Add(-48 * time.Hour), ScreeningStatus: status(models.ScreeningFailed)},
		{ID: "a4", FullName: "Hanna Girma", Email: "hanna@example.com", PhoneNumber: "+251933000004", Role: "Marketing", ExperienceYears: "7+", EducationLevel: "Master’s", EmploymentStatus: "No", WorkType: "Remote", CreatedAt: base.Add(-20 * 24 * time.Hour), Rating: rating(3), ScreeningStatus: status(models.ScreeningPending)},
	}
}

func ids(apps []models.Application) []string {
	out := make([]string, len(apps))
	for i, app := range apps {
		out[i] = app.ID
	}
	return out
}

func TestFilter_EmptyIsIdentity(t *testing.T) {
	apps := sampleApps()
	got := Filter(apps, FilterState{Roles: Set{}, Search: "  "})
	assert.Equal(t, apps, got)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{"single role", FilterState{Roles: NewSet("Sales")}, []string{"a1", "a3"}},
		{"role and experience", FilterState{Roles: NewSet("Sales"), ExperienceYears: NewSet("0–1")}, []string{"a1"}},
		{"or within dimension", FilterState{ExperienceYears: NewSet("0–1", "7+")}, []string{"a1", "a4"}},
		{"missing status is pending", FilterState{ScreeningStatuses: NewSet("pending")}, []string{"a1", "a4"}},
		{"min rating uses smallest", FilterState{MinRatings: NewSet("5", "3")}, []string{"a1", "a2", "a4"}},
		{"unrated counts as zero", FilterState{MinRatings: NewSet("1")}, []string{"a1", "a2", "a4"}},
		{"search name case insensitive", FilterState{Search: "SELAM"}, []string{"a2"}},
		{"search email", FilterState{Search: "corp.et"}, []string{"a3"}},
		{"search phone", FilterState{Search: "0000"}, []string{"a1", "a2", "a3", "a4"}},
		{"search phone suffix", FilterState{Search: "933"}, []string{"a4"}},
		{"work type and education", FilterState{WorkTypes: NewSet("Remote"), EducationLevels: NewSet("Diploma")}, []string{"a1"}},
		{"employment", FilterState{EmploymentStatuses: NewSet("Yes (Full-time)")}, []string{"a3"}},
		{"no match", FilterState{Roles: NewSet("Healthcare")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleApps(), tt.filter)))
		})
	}
}

func TestParseFilterState(t *testing.T) {
	q := url.Values{
		"role":      {"Sales", "Marketing"},
		"status":    {"pending,screened_passed"},
		"minRating": {"4"},
		"search":    {"abebe"},
	}
	f, err := ParseFilterState(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Marketing", "Sales"}, f.Roles.Values())
	assert.Equal(t, []string{"pending", "screened_passed"}, f.ScreeningStatuses.Values())
	assert.Equal(t, 4, f.minRating())
	assert.Equal(t, "abebe", f.Search)
	assert.Empty(t, f.WorkTypes)

	_, err = ParseFilterState(url.Values{"minRating": {"9"}})
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeInvalidFilterFormat, stdErr.Code)

	_, err = ParseFilterState(url.Values{"status": {"hired"}})
	assert.Error(t, err)
}

func TestSortConfig_Toggle(t *testing.T) {
	var cfg SortConfig
	cfg = cfg.Toggle(SortCreatedAt)
	assert.Equal(t, SortConfig{Key: SortCreatedAt, Direction: Asc}, cfg)
	cfg = cfg.Toggle(SortCreatedAt)
	assert.Equal(t, Desc, cfg.Direction)
	cfg = cfg.Toggle(SortCreatedAt)
	assert.Equal(t, None, cfg.Direction)
	assert.False(t, cfg.Active())
	cfg = cfg.Toggle(SortCreatedAt)
	assert.Equal(t, Asc, cfg.Direction)

	cfg = cfg.Toggle(SortCreatedAt).Toggle(SortRating)
	assert.Equal(t, SortConfig{Key: SortRating, Direction: Asc}, cfg)
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		cfg  SortConfig
		want []string
	}{
		{"created asc", SortConfig{SortCreatedAt, Asc}, []string{"a4", "a3", "a2", "a1"}},
		{"created desc", SortConfig{SortCreatedAt, Desc}, []string{"a1", "a2", "a3", "a4"}},
		{"none keeps order", SortConfig{SortCreatedAt, None}, []string{"a1", "a2", "a3", "a4"}},
		{"rating asc nulls last, stable ties", SortConfig{SortRating, Asc}, []string{"a1", "a4", "a2", "a3"}},
		{"rating desc nulls last", SortConfig{SortRating, Desc}, []string{"a2", "a1", "a4", "a3"}},
		{"status asc nulls last", SortConfig{SortScreeningStatus, Asc}, []string{"a4", "a3", "a2", "a1"}},
		{"status desc nulls last", SortConfig{SortScreeningStatus, Desc}, []string{"a2", "a3", "a4", "a1"}},
		{"name collates case-insensitively", SortConfig{SortFullName, Asc}, []string{"a1", "a3", "a4", "a2"}},
		{"role stable", SortConfig{SortRole, Asc}, []string{"a2", "a4", "a1", "a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := sampleApps()
			got := Sort(apps, tt.cfg)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []string{"a1", "a2", "a3", "a4"}, ids(apps), "input must not be reordered")
		})
	}
}

func TestSort_CycleRestoresFetchOrder(t *testing.T) {
	apps := sampleApps()
	cfg := SortConfig{Key: SortCreatedAt, Direction: Desc}
	cfg = cfg.Toggle(SortCreatedAt)
	assert.Equal(t, ids(apps), ids(Sort(apps, cfg)))
}

func TestAggregates(t *testing.T) {
	apps := sampleApps()

	byRole := CountByRole(apps)
	if diff := cmp.Diff([]Count{{Key: "Sales", Count: 2}, {Key: "Marketing", Count: 2}}, byRole); diff != "" {
		t.Errorf("CountByRole mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(StatusBreakdown{Passed: 1, Failed: 1, Pending: 2}, CountByStatus(apps)); diff != "" {
		t.Errorf("CountByStatus mismatch (-want +got):\n%s", diff)
	}

	wantExperience := []Count{{"0–1", 1}, {"2–3", 2}, {"4–6", 0}, {"7+", 1}}
	if diff := cmp.Diff(wantExperience, CountByExperience(apps)); diff != "" {
		t.Errorf("CountByExperience mismatch (-want +got):\n%s", diff)
	}
}

func TestMeanRatingByRole_IgnoresUnrated(t *testing.T) {
	apps := []models.Application{
		{ID: "m1", Role: "Marketing", Rating: rating(3)},
		{ID: "m2", Role: "Marketing", Rating: rating(5)},
		{ID: "m3", Role: "Marketing"},
		{ID: "s1", Role: "Sales"},
	}

	four := 4.0
	want := []RoleRating{
		{Role: "Marketing", Mean: &four, Rated: 2},
		{Role: "Sales", Mean: nil, Rated: 0},
	}
	if diff := cmp.Diff(want, MeanRatingByRole(apps)); diff != "" {
		t.Errorf("MeanRatingByRole mismatch (-want +got):\n%s", diff)
	}
}

func TestDailyCounts(t *testing.T) {
	addis := time.FixedZone("EAT", 3*60*60)
	apps := []models.Application{
		// 22:30 UTC on the 13th is already the 14th in Addis Ababa
		{ID: "late", CreatedAt: time.Date(2024, 3, 13, 22, 30, 0, 0, time.UTC)},
		{ID: "today", CreatedAt: base},
		{ID: "first", CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "too-old", CreatedAt: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
	}

	days := DailyCounts(apps, base, addis)
	require.Len(t, days, DailyWindow)
	assert.Equal(t, DayCount{Date: "2024-03-01", Count: 1}, days[0])
	assert.Equal(t, DayCount{Date: "2024-03-13", Count: 0}, days[12])
	assert.Equal(t, DayCount{Date: "2024-03-14", Count: 2}, days[13])

	utc := DailyCounts(apps, base, nil)
	assert.Equal(t, 1, utc[12].Count)
	assert.Equal(t, 1, utc[13].Count)
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleApps(), base)
	want := Summary{
		Total:            4,
		LastSevenDays:    3,
		AverageRating:    "3.7",
		TopRole:          "Sales",
		PendingScreening: 2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, Summary{AverageRating: "0.0", TopRole: "None"}, Summarize(nil, base))
}

func TestExportCSV(t *testing.T) {
	apps := sampleApps()
	apps[0].FullName = `Abebe "Abe" Kebede, Jr.`

	got := ExportCSV(apps, []string{"a3", "a1", "missing"})
	want := "Name,Email,Phone,Role,Experience,Education,Status,Rating,Applied Date\n" +
		`"Abebe ""Abe"" Kebede, Jr.","abebe@example.com","+251911000001","Sales","0–1","Diploma","pending",3,"2024-03-14"` + "\n" +
		`"Dawit Alemu","dawit@corp.et","+251922000003","Sales","2–3","Diploma","screened_failed",,"2024-03-12"` + "\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "Name,Email,Phone,Role,Experience,Education,Status,Rating,Applied Date\n", ExportCSV(apps, nil))
}

func TestExportRows(t *testing.T) {
	rows := ExportRows(sampleApps(), []string{"a2"})
	require.Len(t, rows, 2)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, []interface{}{
		"selam tesfaye", "selam@example.com", "+251911000002", "Marketing", "2–3",
		"Bachelor’s", "screened_passed", 5, "2024-03-13",
	}, rows[1])
}
