package user

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

const userColumns = `u.id, u.full_name, u.email, u.password, u.phone, u.role, u.image, u.profile_id, u.created_at,
	p.id, p.gender, p.date_of_birth, p.about, p.resume`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	u := &User{Profile: &Profile{}}
	var image, gender, dob, about, resume sql.NullString
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Password,
		&u.Phone,
		&u.Role,
		&image,
		&u.ProfileID,
		&u.CreatedAt,
		&u.Profile.ID,
		&gender,
		&dob,
		&about,
		&resume,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to scan user")
	}
	u.Image = nullString(image)
	u.Profile.Gender = nullString(gender)
	u.Profile.DateOfBirth = nullString(dob)
	u.Profile.About = nullString(about)
	u.Profile.Resume = nullString(resume)
	return u, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	row := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, NormalizeEmail(email))
	if err := row.Scan(&exists); err != nil {
		return false, errors.Wrap(err, "unable to check email")
	}
	return exists, nil
}

// CreateUser saves an empty profile then the user referencing it.
// ID, ProfileID and CreatedAt are set on u.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	userID, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	profileID, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	u.ID = userID.String()
	u.ProfileID = profileID.String()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = time.Now().UTC()
	u.Profile = &Profile{ID: u.ProfileID}
	u.Jobs = []string{}
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO profile (id) VALUES ($1)`, u.ProfileID); err != nil {
			return errors.Wrap(err, "unable to save profile")
		}
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO users (id, full_name, email, password, phone, role, image, profile_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.FullName, u.Email, u.Password, u.Phone, u.Role, u.Image, u.ProfileID, u.CreatedAt,
		)
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicate
		}
		return errors.Wrap(err, "unable to save user")
	})
	return err
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+`
		FROM users u
		JOIN profile p ON p.id = u.profile_id
		WHERE u.email = $1`, NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if u.Jobs, err = r.jobIDs(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) UserByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+`
		FROM users u
		JOIN profile p ON p.id = u.profile_id
		WHERE u.id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if u.Jobs, err = r.jobIDs(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) jobIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM job WHERE created_by = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return ids, errors.Wrap(err, "unable to list user jobs")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateImage sets the user image, a nil image clears it.
func (r *Repository) UpdateImage(ctx context.Context, userID string, image *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET image = $1 WHERE id = $2`, image, userID)
	if err != nil {
		return errors.Wrap(err, "unable to update user image")
	}
	return expectOne(res)
}

// UpdateProfile saves the user core fields and its profile in one transaction.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, rq UpdateProfileRq) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(
			ctx,
			`UPDATE users SET full_name = $1, email = $2, phone = $3 WHERE id = $4`,
			rq.FullName, NormalizeEmail(rq.Email), rq.Phone, userID,
		)
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "unable to update user")
		}
		if err := expectOne(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx,
			`UPDATE profile SET about = $1, date_of_birth = $2, gender = $3
			WHERE id = (SELECT profile_id FROM users WHERE id = $4)`,
			rq.About, rq.DateOfBirth, rq.Gender, userID,
		)
		return errors.Wrap(err, "unable to update profile")
	})
}

func (r *Repository) UpdateResume(ctx context.Context, userID, resumeURL string) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE profile SET resume = $1 WHERE id = (SELECT profile_id FROM users WHERE id = $2)`,
		resumeURL, userID,
	)
	if err != nil {
		return errors.Wrap(err, "unable to update resume")
	}
	return expectOne(res)
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
