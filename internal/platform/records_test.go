package platform

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	commonerrors "talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appColumnNames = []string{
	"id", "created_at", "full_name", "phone_number", "email", "afriwork_email", "role",
	"other_role_specify", "experience_years", "employment_status", "start_date", "education_level",
	"top_skills", "has_measurable_achievements", "measurable_achievement", "salary_range", "work_type",
	"linkedin_url", "portfolio_url", "priority_reason", "cv_file_path", "rating", "screening_status",
}

func appRow(id, name, role string, rating interface{}, status interface{}, created time.Time) []driver.Value {
	return []driver.Value{
		id, created, name, "+251911000000", name + "@example.com", nil, role,
		nil, "2–3", "No", "Immediately", "Diploma",
		"{Closing,Negotiation}", false, nil, "Under 8,000", "Remote",
		nil, nil, nil, "1700000000000_cv.pdf", rating, status,
	}
}

func newRecords(t *testing.T) (*PostgresRecords, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRecords(db, logger.NewTestLogger(t)), mock
}

func TestInsertApplication(t *testing.T) {
	records, mock := newRecords(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	form := models.FormData{
		FullName: "Abebe", PhoneNumber: "+251911000000", Email: "abebe@example.com",
		Role: "Sales", ExperienceYears: "2–3", EmploymentStatus: "No", StartDate: "Immediately",
		EducationLevel: "Diploma", TopSkills: []string{"Closing", "Negotiation"},
		SalaryRange: "Under 8,000", WorkType: "Remote",
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_applications")).
		WithArgs("Abebe", "+251911000000", "abebe@example.com", nil, "Sales", nil,
			"2–3", "No", "Immediately", "Diploma", "{\"Closing\",\"Negotiation\"}",
			false, nil, "Under 8,000", "Remote", nil, nil, nil, "1700000000000_cv.pdf", "pending").
		WillReturnRows(sqlmock.NewRows(appColumnNames).AddRow(appRow("app-1", "Abebe", "Sales", nil, "pending", created)...))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app, err := records.InsertApplication(context.Background(), form.ToApplication("1700000000000_cv.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, created, app.CreatedAt)
	assert.Equal(t, []string{"Closing", "Negotiation"}, app.TopSkills)
	assert.Nil(t, app.Rating)
	assert.Equal(t, models.ScreeningPending, app.EffectiveStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertApplication_AuditFailureIsNonCritical(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_applications")).
		WillReturnRows(sqlmock.NewRows(appColumnNames).AddRow(appRow("app-1", "Abebe", "Sales", nil, "pending", time.Now())...))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnError(errors.New("audit_log does not exist"))

	app, err := records.InsertApplication(context.Background(), models.Application{FullName: "Abebe"})
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)
}

func TestInsertApplication_Failure(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_applications")).
		WillReturnError(errors.New("connection reset"))

	_, err := records.InsertApplication(context.Background(), models.Application{FullName: "Abebe"})
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestInsertApplication_DriverErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      commonerrors.ErrorCode
		wantRetryable bool
	}{
		{
			name:     "unique violation",
			err:      &pq.Error{Code: "23505", Constraint: "job_applications_pkey"},
			wantCode: commonerrors.ErrCodeDatabaseInsertFailed,
		},
		{
			name:     "check violation",
			err:      &pq.Error{Code: "23514", Constraint: "job_applications_rating_check"},
			wantCode: commonerrors.ErrCodeDatabaseInsertFailed,
		},
		{
			name:          "connection lost",
			err:           &pq.Error{Code: "08006"},
			wantCode:      commonerrors.ErrCodeDatabaseConnectionFailed,
			wantRetryable: true,
		},
		{
			name:          "query cancelled",
			err:           &pq.Error{Code: "57014"},
			wantCode:      commonerrors.ErrCodeTimeout,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, mock := newRecords(t)
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO job_applications")).WillReturnError(tt.err)

			_, err := records.InsertApplication(context.Background(), models.Application{FullName: "Abebe"})
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
			if pgErr := tt.err.(*pq.Error); pgErr.Code.Class() == "23" {
				assert.Equal(t, pgErr.Constraint, stdErr.Metadata["constraint"])
			}
		})
	}
}

func TestInsertApplication_RejectsTooManySkills(t *testing.T) {
	records, mock := newRecords(t)

	_, err := records.InsertApplication(context.Background(), models.Application{
		TopSkills: []string{"a", "b", "c", "d", "e", "f"},
	})
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeApplicationValidationFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplication(t *testing.T) {
	records, mock := newRecords(t)
	rating := 4

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE job_applications SET rating = $1 WHERE id = $2 RETURNING")).
		WithArgs(4, "app-1").
		WillReturnRows(sqlmock.NewRows(appColumnNames).AddRow(appRow("app-1", "Abebe", "Sales", int64(4), nil, time.Now())...))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app, err := records.UpdateApplication(context.Background(), "app-1", models.ApplicationPatch{Rating: &rating}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, app.Rating)
	assert.Equal(t, 4, *app.Rating)
	assert.Nil(t, app.ScreeningStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplication_Validation(t *testing.T) {
	records, _ := newRecords(t)
	bad := 9
	unknown := models.ScreeningStatus("maybe")

	tests := []struct {
		name  string
		patch models.ApplicationPatch
	}{
		{"empty patch", models.ApplicationPatch{}},
		{"rating out of range", models.ApplicationPatch{Rating: &bad}},
		{"unknown status", models.ApplicationPatch{ScreeningStatus: &unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := records.UpdateApplication(context.Background(), "app-1", tt.patch, "")
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeApplicationValidationFailed, stdErr.Code)
		})
	}
}

func TestUpdateApplication_NotFound(t *testing.T) {
	records, mock := newRecords(t)
	passed := models.ScreeningPassed

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE job_applications SET screening_status = $1 WHERE id = $2")).
		WithArgs("screened_passed", "missing").
		WillReturnRows(sqlmock.NewRows(appColumnNames))

	_, err := records.UpdateApplication(context.Background(), "missing", models.ApplicationPatch{ScreeningStatus: &passed}, "")
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeResourceNotFound, stdErr.Code)
}

func TestUpdateScreeningStatus_SingleStatement(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE job_applications SET screening_status = $1 WHERE id = ANY($2)")).
		WithArgs("screened_failed", "{\"a\",\"b\",\"c\"}").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	n, err := records.UpdateScreeningStatus(context.Background(), []string{"a", "b", "c"}, models.ScreeningFailed, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScreeningStatus_NoIDsIsNoop(t *testing.T) {
	records, mock := newRecords(t)

	n, err := records.UpdateScreeningStatus(context.Background(), nil, models.ScreeningPassed, "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryApplications(t *testing.T) {
	records, mock := newRecords(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM job_applications ORDER BY created_at DESC$`).
		WillReturnRows(sqlmock.NewRows(appColumnNames).
			AddRow(appRow("2", "Sara", "Marketing", int64(5), "screened_passed", now)...).
			AddRow(appRow("1", "Abebe", "Sales", nil, nil, now.Add(-time.Hour))...))

	apps, err := records.QueryApplications(context.Background(), QueryOptions{})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "2", apps[0].ID)
	assert.Equal(t, 5, apps[0].RatingOrZero())
	assert.Nil(t, apps[1].ScreeningStatus)
	assert.Equal(t, models.ScreeningPending, apps[1].EffectiveStatus())
}

func TestQueryApplications_WithOptions(t *testing.T) {
	records, mock := newRecords(t)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ANY($1) AND created_at >= $2 ORDER BY created_at ASC LIMIT $3")).
		WithArgs("{\"x\"}", since, 10).
		WillReturnRows(sqlmock.NewRows(appColumnNames))

	apps, err := records.QueryApplications(context.Background(), QueryOptions{
		IDs: []string{"x"}, Since: since, Limit: 10, Ascending: true,
	})
	require.NoError(t, err)
	assert.Empty(t, apps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryApplications_Timeout(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectQuery("SELECT").WillReturnError(context.DeadlineExceeded)

	_, err := records.QueryApplications(context.Background(), QueryOptions{})
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestGetApplication_Missing(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_applications WHERE id = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(appColumnNames))

	app, err := records.GetApplication(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestProfiles(t *testing.T) {
	records, mock := newRecords(t)
	updated := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, role, updated_at FROM profiles ORDER BY email")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "updated_at"}).
			AddRow("u1", "admin@afriwork.et", "super_admin", updated).
			AddRow("u2", "rec@afriwork.et", "recruiter", updated))

	profiles, err := records.ListProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, models.RoleSuperAdmin, profiles[0].Role)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET role = $1, updated_at = now()")).
		WithArgs("guest", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "updated_at"}).
			AddRow("u2", "rec@afriwork.et", "guest", updated))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := records.UpdateProfileRole(context.Background(), "u2", models.RoleGuest, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, p.Role)

	_, err = records.UpdateProfileRole(context.Background(), "u2", models.UserRole("owner"), "u1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_Missing(t *testing.T) {
	records, mock := newRecords(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "updated_at"}))

	p, err := records.GetProfile(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}
