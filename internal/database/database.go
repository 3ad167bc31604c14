package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// ErrDuplicate is returned by repositories when a unique constraint rejects a write.
var ErrDuplicate = errors.New("database: duplicate entry")

// Schema is applied by cmd/migrate. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS profile (
	id CHAR(27) NOT NULL UNIQUE,
	gender VARCHAR(32),
	date_of_birth VARCHAR(32),
	about TEXT,
	resume VARCHAR(512),
	PRIMARY KEY(id)
);

CREATE TABLE IF NOT EXISTS users (
	id CHAR(27) NOT NULL UNIQUE,
	full_name VARCHAR(200) NOT NULL,
	email VARCHAR(255) NOT NULL UNIQUE,
	password VARCHAR(100) NOT NULL,
	phone VARCHAR(32) NOT NULL,
	role VARCHAR(16) NOT NULL CHECK (role IN ('Student', 'Recruiter')),
	image VARCHAR(512),
	profile_id CHAR(27) NOT NULL REFERENCES profile(id),
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY(id)
);

CREATE TABLE IF NOT EXISTS job_details (
	id CHAR(27) NOT NULL UNIQUE,
	job_type VARCHAR(100),
	category VARCHAR(100),
	experience VARCHAR(100),
	salary VARCHAR(100),
	location VARCHAR(200),
	image VARCHAR(512),
	PRIMARY KEY(id)
);

CREATE TABLE IF NOT EXISTS job (
	id CHAR(27) NOT NULL UNIQUE,
	slug VARCHAR(255) NOT NULL UNIQUE,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL,
	responsibilities TEXT[] NOT NULL DEFAULT '{}',
	status VARCHAR(16) NOT NULL DEFAULT 'Draft' CHECK (status IN ('Draft', 'Published')),
	details_id CHAR(27) NOT NULL REFERENCES job_details(id),
	created_by CHAR(27) NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY(id)
);
CREATE INDEX IF NOT EXISTS job_created_by_idx ON job (created_by);

CREATE TABLE IF NOT EXISTS application (
	id CHAR(27) NOT NULL UNIQUE,
	user_id CHAR(27) NOT NULL REFERENCES users(id),
	job_id CHAR(27) NOT NULL REFERENCES job(id),
	resume_link VARCHAR(512) NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY(id),
	UNIQUE (user_id, job_id)
);
CREATE INDEX IF NOT EXISTS application_job_id_idx ON application (job_id);

CREATE TABLE IF NOT EXISTS media (
	id CHAR(27) NOT NULL UNIQUE,
	folder VARCHAR(100) NOT NULL,
	name VARCHAR(255) NOT NULL,
	bytes BYTEA NOT NULL,
	media_type VARCHAR(100) NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY(id)
);
`

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open db")
	}
	err = db.Ping()
	if err != nil {
		return nil, errors.Wrap(err, "unable to ping db")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}

func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "unable to apply schema")
	}
	return nil
}

// WithTx runs fn in a transaction, rolled back when fn returns an error.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin tx")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit tx")
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
