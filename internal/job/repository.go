package job

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/0x13a/campusjobs/internal/database"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

const jobQuery = `SELECT j.id, j.slug, j.title, j.description, j.responsibilities, j.status, j.details_id, j.created_by,
	j.created_at, j.updated_at,
	d.id, COALESCE(d.job_type, ''), COALESCE(d.category, ''), COALESCE(d.experience, ''),
	COALESCE(d.salary, ''), COALESCE(d.location, ''), d.image,
	u.full_name, u.email
	FROM job j
	JOIN job_details d ON d.id = j.details_id
	JOIN users u ON u.id = j.created_by`

func scanJob(row interface{ Scan(...interface{}) error }) (*Job, error) {
	j := &Job{Details: &Details{}, CreatedBy: &user.Summary{}}
	var image sql.NullString
	err := row.Scan(
		&j.ID,
		&j.Slug,
		&j.Title,
		&j.Description,
		&j.Responsibilities,
		&j.Status,
		&j.DetailsID,
		&j.CreatedByID,
		&j.CreatedAt,
		&j.UpdatedAt,
		&j.Details.ID,
		&j.Details.JobType,
		&j.Details.Category,
		&j.Details.Experience,
		&j.Details.Salary,
		&j.Details.Location,
		&image,
		&j.CreatedBy.FullName,
		&j.CreatedBy.Email,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to scan job")
	}
	if image.Valid {
		j.Details.Image = &image.String
	}
	if j.Responsibilities == nil {
		j.Responsibilities = pq.StringArray{}
	}
	j.CreatedBy.ID = j.CreatedByID
	j.AppliedUsers = []*AppliedUser{}
	j.CreatedAtHumanized = humanize.Time(j.CreatedAt.UTC())
	return j, nil
}

func (r *Repository) queryJobs(ctx context.Context, query string, args ...interface{}) ([]*Job, error) {
	jobs := []*Job{}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return jobs, errors.Wrap(err, "unable to query jobs")
	}
	defer rows.Close()
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CreateJob saves the job details then the job in one transaction.
// The job is always created as a Draft.
func (r *Repository) CreateJob(ctx context.Context, j *Job) error {
	if j.Details == nil {
		j.Details = &Details{}
	}
	jobID, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	detailsID, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	j.ID = jobID.String()
	j.Details.ID = detailsID.String()
	j.DetailsID = j.Details.ID
	j.Status = StatusDraft
	j.Slug = slug.Make(fmt.Sprintf("%s %d", j.Title, now.UnixNano()))
	j.CreatedAt = now
	j.UpdatedAt = now
	j.CreatedAtHumanized = humanize.Time(now)
	if j.Responsibilities == nil {
		j.Responsibilities = pq.StringArray{}
	}
	j.AppliedUsers = []*AppliedUser{}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		d := j.Details
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_details (id, job_type, category, experience, salary, location, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.ID, d.JobType, d.Category, d.Experience, d.Salary, d.Location, d.Image,
		); err != nil {
			return errors.Wrap(err, "unable to save job details")
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO job (id, slug, title, description, responsibilities, status, details_id, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			j.ID, j.Slug, j.Title, j.Description, j.Responsibilities, j.Status, j.DetailsID, j.CreatedByID, j.CreatedAt, j.UpdatedAt,
		)
		return errors.Wrap(err, "unable to save job")
	})
}

// JobByID returns the job with its details, creator and applied users.
func (r *Repository) JobByID(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, jobQuery+` WHERE j.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachAppliedUsers(ctx, []*Job{j}); err != nil {
		return nil, err
	}
	return j, nil
}

// Jobs lists every job newest first, optionally restricted to one status.
// A limit of 0 means no limit.
func (r *Repository) Jobs(ctx context.Context, status Status, limit int) ([]*Job, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if status != "" {
		args = append(args, status)
		clauses = append(clauses, fmt.Sprintf("j.status = $%d", len(args)))
	}
	query := jobQuery
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY j.created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	jobs, err := r.queryJobs(ctx, query, args...)
	if err != nil {
		return jobs, err
	}
	return jobs, r.attachAppliedUsers(ctx, jobs)
}

func (r *Repository) JobsByCreator(ctx context.Context, userID string) ([]*Job, error) {
	return r.queryJobs(ctx, jobQuery+` WHERE j.created_by = $1 ORDER BY j.created_at DESC`, userID)
}

// JobsAppliedBy lists the jobs a user applied to, most recent application first.
func (r *Repository) JobsAppliedBy(ctx context.Context, userID string) ([]*Job, error) {
	return r.queryJobs(ctx, jobQuery+` JOIN application a ON a.job_id = j.id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`, userID)
}

func (r *Repository) Publish(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE job SET status = $1, updated_at = $2 WHERE id = $3`, StatusPublished, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "unable to publish job")
	}
	return expectOne(res)
}

// UpdateJob saves the job fields then its details in one transaction.
func (r *Repository) UpdateJob(ctx context.Context, id string, rq UpdateRq) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var detailsID string
		row := tx.QueryRowContext(
			ctx,
			`UPDATE job SET title = $1, description = $2, status = $3, updated_at = $4 WHERE id = $5 RETURNING details_id`,
			rq.Title, rq.Description, rq.Status, time.Now().UTC(), id,
		)
		if err := row.Scan(&detailsID); err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return errors.Wrap(err, "unable to update job")
		}
		res, err := tx.ExecContext(
			ctx,
			`UPDATE job_details SET job_type = $1, category = $2, experience = $3, salary = $4, location = $5 WHERE id = $6`,
			rq.JobType, rq.Category, rq.Experience, rq.Salary, rq.Location, detailsID,
		)
		if err != nil {
			return errors.Wrap(err, "unable to update job details")
		}
		return expectOne(res)
	})
}

func (r *Repository) UpdateImage(ctx context.Context, detailsID, image string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE job_details SET image = $1 WHERE id = $2`, image, detailsID)
	if err != nil {
		return errors.Wrap(err, "unable to update job image")
	}
	return expectOne(res)
}

// AppliedUsers lists the applications of a job in the order they were made.
func (r *Repository) AppliedUsers(ctx context.Context, jobID string) ([]*AppliedUser, error) {
	byJob, err := r.appliedUsers(ctx, []string{jobID})
	if err != nil {
		return []*AppliedUser{}, err
	}
	if applied, ok := byJob[jobID]; ok {
		return applied, nil
	}
	return []*AppliedUser{}, nil
}

func (r *Repository) attachAppliedUsers(ctx context.Context, jobs []*Job) error {
	if len(jobs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	byJob, err := r.appliedUsers(ctx, ids)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if applied, ok := byJob[j.ID]; ok {
			j.AppliedUsers = applied
		}
	}
	return nil
}

func (r *Repository) appliedUsers(ctx context.Context, jobIDs []string) (map[string][]*AppliedUser, error) {
	byJob := make(map[string][]*AppliedUser)
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT a.id, a.job_id, a.resume_link, a.created_at, u.id, u.full_name, u.email, u.phone, u.role, p.resume
		FROM application a
		JOIN users u ON u.id = a.user_id
		JOIN profile p ON p.id = u.profile_id
		WHERE a.job_id = ANY($1)
		ORDER BY a.created_at ASC`, pq.Array(jobIDs))
	if err != nil {
		return byJob, errors.Wrap(err, "unable to query applied users")
	}
	defer rows.Close()
	for rows.Next() {
		var jobID string
		var resume sql.NullString
		a := &AppliedUser{User: &Applicant{Profile: &ApplicantProfile{}}}
		err := rows.Scan(
			&a.ID,
			&jobID,
			&a.ResumeLink,
			&a.CreatedAt,
			&a.User.ID,
			&a.User.FullName,
			&a.User.Email,
			&a.User.Phone,
			&a.User.Role,
			&resume,
		)
		if err != nil {
			return byJob, errors.Wrap(err, "unable to scan applied user")
		}
		if resume.Valid {
			a.User.Profile.Resume = &resume.String
		}
		a.CreatedAtHumanized = humanize.Time(a.CreatedAt.UTC())
		byJob[jobID] = append(byJob[jobID], a)
	}
	return byJob, rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
