// internal/platform/records.go
package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/lib/pq"
)

const applicationColumns = `id, created_at, full_name, phone_number, email, afriwork_email, role,
	other_role_specify, experience_years, employment_status, start_date, education_level,
	top_skills, has_measurable_achievements, measurable_achievement, salary_range, work_type,
	linkedin_url, portfolio_url, priority_reason, cv_file_path, rating, screening_status`

// QueryOptions narrows QueryApplications. The zero value lists everything newest first.
type QueryOptions struct {
	IDs       []string
	Since     time.Time
	Limit     int
	Ascending bool
}

// PostgresRecords reads and writes applications and profiles.
type PostgresRecords struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresRecords(db *sql.DB, log logger.Logger) *PostgresRecords {
	return &PostgresRecords{
		db:     db,
		logger: logger.ForComponent(log, "records"),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                                               models.Application
		afriworkEmail, otherRole, achievement             sql.NullString
		linkedIn, portfolio, priorityReason, cvPath, stat sql.NullString
		rating                                            sql.NullInt64
		skills                                            pq.StringArray
	)

	err := row.Scan(
		&app.ID, &app.CreatedAt, &app.FullName, &app.PhoneNumber, &app.Email, &afriworkEmail, &app.Role,
		&otherRole, &app.ExperienceYears, &app.EmploymentStatus, &app.StartDate, &app.EducationLevel,
		&skills, &app.HasMeasurableAchievements, &achievement, &app.SalaryRange, &app.WorkType,
		&linkedIn, &portfolio, &priorityReason, &cvPath, &rating, &stat,
	)
	if err != nil {
		return nil, err
	}

	app.AfriworkEmail = nullString(afriworkEmail)
	app.OtherRoleSpecify = nullString(otherRole)
	app.MeasurableAchievement = nullString(achievement)
	app.LinkedInURL = nullString(linkedIn)
	app.PortfolioURL = nullString(portfolio)
	app.PriorityReason = nullString(priorityReason)
	app.CVFilePath = nullString(cvPath)
	app.TopSkills = []string(skills)
	if app.TopSkills == nil {
		app.TopSkills = []string{}
	}
	if rating.Valid {
		r := int(rating.Int64)
		app.Rating = &r
	}
	if stat.Valid {
		s := models.ScreeningStatus(stat.String)
		app.ScreeningStatus = &s
	}
	return &app, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// InsertApplication stores a new application and returns it with the generated id and timestamp.
func (r *PostgresRecords) InsertApplication(ctx context.Context, app models.Application) (*models.Application, error) {
	if len(app.TopSkills) > models.MaxSkills {
		return nil, errors.NewApplicationValidationFailedError(map[string]string{
			"topSkills": fmt.Sprintf("at most %d skills", models.MaxSkills),
		})
	}

	status := app.EffectiveStatus()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO job_applications (
			full_name, phone_number, email, afriwork_email, role, other_role_specify,
			experience_years, employment_status, start_date, education_level, top_skills,
			has_measurable_achievements, measurable_achievement, salary_range, work_type,
			linkedin_url, portfolio_url, priority_reason, cv_file_path, screening_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING `+applicationColumns,
		app.FullName, app.PhoneNumber, app.Email, app.AfriworkEmail, app.Role, app.OtherRoleSpecify,
		app.ExperienceYears, app.EmploymentStatus, app.StartDate, app.EducationLevel, pq.Array(app.TopSkills),
		app.HasMeasurableAchievements, app.MeasurableAchievement, app.SalaryRange, app.WorkType,
		app.LinkedInURL, app.PortfolioURL, app.PriorityReason, app.CVFilePath, string(status),
	)

	created, err := scanApplication(row)
	if err != nil {
		return nil, r.classify(err, errors.NewDatabaseInsertFailedError(err))
	}

	r.audit(ctx, "application", created.ID, "application_created", "", map[string]interface{}{
		"role": created.Role,
	})

	r.logger.Info("application record created", map[string]interface{}{
		"applicationId": created.ID,
		"role":          created.Role,
	})
	return created, nil
}

// UpdateApplication applies a recruiter patch (rating and/or screening status).
func (r *PostgresRecords) UpdateApplication(ctx context.Context, id string, patch models.ApplicationPatch, actorID string) (*models.Application, error) {
	if patch.Empty() {
		return nil, errors.NewApplicationValidationFailedError(map[string]string{"patch": "nothing to update"})
	}

	var (
		sets []string
		args []interface{}
	)
	if patch.Rating != nil {
		if !models.ValidRating(*patch.Rating) {
			return nil, errors.NewApplicationValidationFailedError(map[string]string{"rating": "rating must be between 1 and 5"})
		}
		args = append(args, *patch.Rating)
		sets = append(sets, fmt.Sprintf("rating = $%d", len(args)))
	}
	if patch.ScreeningStatus != nil {
		if !patch.ScreeningStatus.Valid() {
			return nil, errors.NewApplicationValidationFailedError(map[string]string{"screening_status": "unknown screening status"})
		}
		args = append(args, string(*patch.ScreeningStatus))
		sets = append(sets, fmt.Sprintf("screening_status = $%d", len(args)))
	}
	args = append(args, id)

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE job_applications SET %s WHERE id = $%d RETURNING %s`,
			strings.Join(sets, ", "), len(args), applicationColumns),
		args...,
	)

	updated, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("job_applications", "id: "+id)
	}
	if err != nil {
		return nil, r.classify(err, errors.NewDatabaseUpdateFailedError("job_applications", err))
	}

	r.audit(ctx, "application", id, "application_updated", actorID, map[string]interface{}{
		"rating":          patch.Rating,
		"screeningStatus": patch.ScreeningStatus,
	})
	return updated, nil
}

// UpdateScreeningStatus sets one status on every id in a single statement and returns the
// number of rows changed.
func (r *PostgresRecords) UpdateScreeningStatus(ctx context.Context, ids []string, status models.ScreeningStatus, actorID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if !status.Valid() {
		return 0, errors.NewApplicationValidationFailedError(map[string]string{"screening_status": "unknown screening status"})
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE job_applications SET screening_status = $1 WHERE id = ANY($2)`,
		string(status), pq.Array(ids),
	)
	if err != nil {
		return 0, r.classify(err, errors.NewDatabaseUpdateFailedError("job_applications", err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseUpdateFailedError("job_applications", err)
	}

	r.audit(ctx, "application", strings.Join(ids, ","), "screening_status_bulk_update", actorID, map[string]interface{}{
		"status": status,
		"count":  n,
	})
	return n, nil
}

// QueryApplications lists applications ordered by creation time.
func (r *PostgresRecords) QueryApplications(ctx context.Context, opts QueryOptions) ([]models.Application, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(opts.IDs) > 0 {
		args = append(args, pq.Array(opts.IDs))
		where = append(where, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if !opts.Since.IsZero() {
		args = append(args, opts.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := "SELECT " + applicationColumns + " FROM job_applications"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if opts.Ascending {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.classify(err, errors.NewFetchFailedError("applications", err))
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, errors.NewFetchFailedError("applications", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify(err, errors.NewFetchFailedError("applications", err))
	}
	return apps, nil
}

// GetApplication returns nil, nil when id does not exist.
func (r *PostgresRecords) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM job_applications WHERE id = $1", id)

	app, err := scanApplication(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.classify(err, errors.NewFetchFailedError("application", err))
	}
	return app, nil
}

// ListProfiles returns every dashboard user ordered by e-mail.
func (r *PostgresRecords) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email, role, updated_at FROM profiles ORDER BY email`)
	if err != nil {
		return nil, r.classify(err, errors.NewFetchFailedError("profiles", err))
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Role, &p.UpdatedAt); err != nil {
			return nil, errors.NewFetchFailedError("profiles", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewFetchFailedError("profiles", err)
	}
	return profiles, nil
}

// GetProfile returns nil, nil when the user has no profile row.
func (r *PostgresRecords) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, role, updated_at FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Email, &p.Role, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.classify(err, errors.NewFetchFailedError("profile", err))
	}
	return &p, nil
}

// UpdateProfileRole changes a user's dashboard role.
func (r *PostgresRecords) UpdateProfileRole(ctx context.Context, id string, role models.UserRole, actorID string) (*models.Profile, error) {
	if !role.Valid() {
		return nil, errors.NewApplicationValidationFailedError(map[string]string{"role": "unknown role"})
	}

	var p models.Profile
	err := r.db.QueryRowContext(ctx, `
		UPDATE profiles SET role = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, email, role, updated_at`, string(role), id,
	).Scan(&p.ID, &p.Email, &p.Role, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("profiles", "id: "+id)
	}
	if err != nil {
		return nil, r.classify(err, errors.NewDatabaseUpdateFailedError("profiles", err))
	}

	r.audit(ctx, "profile", id, "role_changed", actorID, map[string]interface{}{"role": role})
	return &p, nil
}

// audit is non-critical: failures are logged and swallowed.
func (r *PostgresRecords) audit(ctx context.Context, entityType, entityID, action, actorID string, details map[string]interface{}) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		r.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		detailsJSON = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, actor_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		entityType, entityID, action, models.StringPtr(actorID), detailsJSON,
	)
	if err != nil {
		r.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":    err,
			"entityId": entityID,
			"action":   action,
		})
	}
}

// classify maps driver failures onto the error taxonomy. Constraint violations keep the
// fallback code but are not retryable; lost connections and cancelled queries are.
func (r *PostgresRecords) classify(err error, fallback *errors.StandardError) *errors.StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError("postgres", err)
	}

	var pgErr *pq.Error
	if !stderrors.As(err, &pgErr) {
		return fallback
	}
	switch {
	case pgErr.Code.Class() == "23":
		fallback.Retryable = false
		return fallback.
			WithMetadata("pgCode", string(pgErr.Code)).
			WithMetadata("constraint", pgErr.Constraint)
	case pgErr.Code.Class() == "08", pgErr.Code == "57P01", pgErr.Code == "53300":
		return errors.NewDatabaseConnectionFailedError(err)
	case pgErr.Code == "57014":
		return errors.NewTimeoutError("postgres", err)
	}
	return fallback.WithMetadata("pgCode", string(pgErr.Code))
}
