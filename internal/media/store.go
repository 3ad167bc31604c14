package media

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
)

// DBStore keeps media bytes in postgres and serves them under baseURL/media/{id}.
type DBStore struct {
	db      *sql.DB
	baseURL string
}

func NewDBStore(db *sql.DB, baseURL string) *DBStore {
	return &DBStore{db: db, baseURL: baseURL}
}

func (s *DBStore) Upload(ctx context.Context, f File, folder string, opts ...Option) (Asset, error) {
	if len(f.Bytes) == 0 {
		return Asset{}, errors.New("empty media file")
	}
	f, err := Transform(f, opts...)
	if err != nil {
		return Asset{}, err
	}
	mediaID, err := ksuid.NewRandom()
	if err != nil {
		return Asset{}, err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO media (id, folder, name, bytes, media_type, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		mediaID.String(), folder, f.Name, f.Bytes, f.ContentType, time.Now().UTC(),
	)
	if err != nil {
		return Asset{}, errors.Wrap(err, "unable to save media")
	}
	return Asset{ID: mediaID.String(), URL: URL(s.baseURL, mediaID.String()), MediaType: f.ContentType}, nil
}

func (s *DBStore) Get(ctx context.Context, id string) (Media, error) {
	var m Media
	row := s.db.QueryRowContext(ctx, `SELECT bytes, media_type FROM media WHERE id = $1`, id)
	err := row.Scan(&m.Bytes, &m.MediaType)
	if err == sql.ErrNoRows {
		return Media{}, ErrNotFound
	}
	if err != nil {
		return Media{}, errors.Wrap(err, "unable to get media")
	}
	return m, nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	return errors.Wrap(err, "unable to delete media")
}

func URL(baseURL, id string) string {
	return baseURL + "/media/" + id
}
