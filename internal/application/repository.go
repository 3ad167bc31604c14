package application

import (
	"context"
	"database/sql"
	"time"

	"github.com/0x13a/campusjobs/internal/database"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

func (r *Repository) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	var exists bool
	row := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM application WHERE user_id = $1 AND job_id = $2)`, userID, jobID)
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrap(err, "unable to check application")
	}
	return exists, nil
}

// Create inserts the application. A second application for the same user and
// job is rejected by the unique index and reported as database.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, a *Application) error {
	id, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	a.ID = id.String()
	a.CreatedAt = time.Now().UTC()
	stmt := `
		INSERT INTO application (id, user_id, job_id, resume_link, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, job_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, stmt, a.ID, a.UserID, a.JobID, a.ResumeLink, a.CreatedAt)
	if database.IsUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "unable to save application")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrDuplicate
	}
	return nil
}
