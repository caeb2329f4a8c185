package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portsrepo "github.com/KnMBursary/bursary_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxApplicationRepository persists applications as single rows. Histories,
// admin notes and the document set are embedded JSONB columns, so every read
// and write is atomic with the parent record.
type PgxApplicationRepository struct {
	db *pgxpool.Pool
}

func NewPgxApplicationRepository(db *pgxpool.Pool) portsrepo.ApplicationRepositoryFacade {
	return &PgxApplicationRepository{db: db}
}

// Ensure PgxApplicationRepository implements the facade
var _ portsrepo.ApplicationRepositoryFacade = (*PgxApplicationRepository)(nil)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

const applicationColumns = `
	application_id, applicant_id,
	full_name, email, phone, dob, gender, nationality, country,
	address1, address2, city, state, postal_code,
	high_school_name, high_school_matric_year, current_education_level,
	subjects, current_institution, previous_educations,
	number_of_members, parent1, parent2,
	documents, status, current_step,
	step_history, status_history, admin_notes,
	is_notified, created_at, last_updated_at`

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application
	err := row.Scan(
		&app.ApplicationID, &app.ApplicantID,
		&app.FullName, &app.Email, &app.Phone, &app.DateOfBirth, &app.Gender, &app.Nationality, &app.Country,
		&app.Address1, &app.Address2, &app.City, &app.State, &app.PostalCode,
		&app.HighSchoolName, &app.HighSchoolMatricYear, &app.CurrentEducationLevel,
		&app.Subjects, &app.CurrentInstitution, &app.PreviousEducations,
		&app.NumberOfMembers, &app.Parent1, &app.Parent2,
		&app.Documents, &app.Status, &app.CurrentStep,
		&app.StepHistory, &app.StatusHistory, &app.AdminNotes,
		&app.IsNotified, &app.CreatedAt, &app.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *PgxApplicationRepository) SaveApplication(ctx context.Context, app domain.Application) error {
	query := `
        INSERT INTO applications (` + applicationColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
                $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32);
    `
	_, err := r.db.Exec(ctx, query,
		app.ApplicationID, app.ApplicantID,
		app.FullName, app.Email, app.Phone, app.DateOfBirth, app.Gender, app.Nationality, app.Country,
		app.Address1, app.Address2, app.City, app.State, app.PostalCode,
		app.HighSchoolName, app.HighSchoolMatricYear, app.CurrentEducationLevel,
		app.Subjects, app.CurrentInstitution, app.PreviousEducations,
		app.NumberOfMembers, app.Parent1, app.Parent2,
		app.Documents, app.Status, app.CurrentStep,
		app.StepHistory, app.StatusHistory, app.AdminNotes,
		app.IsNotified, app.CreatedAt, app.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolationCode:
				return fmt.Errorf("applicant %s already has an application: %w", app.ApplicantID, apperrors.ErrDuplicate)
			case foreignKeyViolationCode:
				return fmt.Errorf("applicant %s does not exist: %w", app.ApplicantID, apperrors.ErrNotFound)
			}
		}
		return fmt.Errorf("%w: failed to save application: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (r *PgxApplicationRepository) FindApplicationByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1;`
	app, err := scanApplication(r.db.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find application %s: %v", apperrors.ErrStorage, applicationID, err)
	}
	return app, nil
}

func (r *PgxApplicationRepository) FindApplicationByApplicantID(ctx context.Context, applicantID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE applicant_id = $1;`
	app, err := scanApplication(r.db.QueryRow(ctx, query, applicantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: failed to find application for applicant %s: %v", apperrors.ErrStorage, applicantID, err)
	}
	return app, nil
}

// escapeLikePattern neutralizes LIKE wildcards in user-supplied search text so
// "100%" matches the literal string, not a prefix.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// buildListFilter translates the filter into a WHERE clause with positional args.
func buildListFilter(filter portsrepo.ApplicationListFilter) (string, []any) {
	clauses := []string{}
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+escapeLikePattern(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", n, n))
	}
	if filter.Status != "" && filter.Status != "all" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Step != 0 {
		args = append(args, filter.Step)
		clauses = append(clauses, fmt.Sprintf("current_step = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PgxApplicationRepository) ListApplications(ctx context.Context, filter portsrepo.ApplicationListFilter, page, pageSize int) ([]domain.Application, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	where, args := buildListFilter(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM applications`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count applications: %v", apperrors.ErrStorage, err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM applications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`,
		applicationColumns, where, len(args)-1, len(args),
	)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to query applications: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: failed to scan application row: %v", apperrors.ErrStorage, err)
		}
		apps = append(apps, *app)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("%w: error iterating application rows: %v", apperrors.ErrStorage, rows.Err())
	}

	return apps, total, nil
}

func (r *PgxApplicationRepository) ListUnnotified(ctx context.Context) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE is_notified = false ORDER BY created_at DESC;`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query unnotified applications: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan application row: %v", apperrors.ErrStorage, err)
		}
		apps = append(apps, *app)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: error iterating application rows: %v", apperrors.ErrStorage, rows.Err())
	}
	return apps, nil
}

func (r *PgxApplicationRepository) UpdateApplication(ctx context.Context, app domain.Application) error {
	query := `
        UPDATE applications SET
            full_name = $2, email = $3, phone = $4,
            subjects = $5, current_institution = $6, previous_educations = $7,
            number_of_members = $8, parent1 = $9, parent2 = $10,
            documents = $11, status = $12, current_step = $13,
            step_history = $14, status_history = $15, admin_notes = $16,
            is_notified = $17, last_updated_at = $18
        WHERE application_id = $1;
    `
	cmdTag, err := r.db.Exec(ctx, query,
		app.ApplicationID,
		app.FullName, app.Email, app.Phone,
		app.Subjects, app.CurrentInstitution, app.PreviousEducations,
		app.NumberOfMembers, app.Parent1, app.Parent2,
		app.Documents, app.Status, app.CurrentStep,
		app.StepHistory, app.StatusHistory, app.AdminNotes,
		app.IsNotified, app.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update application %s: %v", apperrors.ErrStorage, app.ApplicationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxApplicationRepository) MarkNotified(ctx context.Context, applicationID string, now time.Time) error {
	query := `UPDATE applications SET is_notified = true, last_updated_at = $2 WHERE application_id = $1;`
	cmdTag, err := r.db.Exec(ctx, query, applicationID, now)
	if err != nil {
		return fmt.Errorf("%w: failed to mark application %s notified: %v", apperrors.ErrStorage, applicationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxApplicationRepository) CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to aggregate statuses: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	counts := map[domain.ApplicationStatus]int{}
	for rows.Next() {
		var status domain.ApplicationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: failed to scan status count: %v", apperrors.ErrStorage, err)
		}
		counts[status] = count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: error iterating status counts: %v", apperrors.ErrStorage, rows.Err())
	}
	return counts, nil
}

func (r *PgxApplicationRepository) CountByStep(ctx context.Context) ([]domain.StepCount, error) {
	rows, err := r.db.Query(ctx, `SELECT current_step, COUNT(*) FROM applications GROUP BY current_step ORDER BY current_step;`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to aggregate steps: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	counts := []domain.StepCount{}
	for rows.Next() {
		var sc domain.StepCount
		if err := rows.Scan(&sc.Step, &sc.Count); err != nil {
			return nil, fmt.Errorf("%w: failed to scan step count: %v", apperrors.ErrStorage, err)
		}
		counts = append(counts, sc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: error iterating step counts: %v", apperrors.ErrStorage, rows.Err())
	}
	return counts, nil
}
