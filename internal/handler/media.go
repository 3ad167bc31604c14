package handler

import (
	"bytes"
	"net/http"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// cached media is stored as "<media type>\n<bytes>"
func mediaCacheKey(id string) string {
	return "media:" + id
}

func MediaHandler(svr server.Server, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if cached, ok := svr.CacheGet(mediaCacheKey(id)); ok {
			if i := bytes.IndexByte(cached, '\n'); i > 0 {
				svr.MEDIA(w, http.StatusOK, cached[i+1:], string(cached[:i]))
				return
			}
		}
		m, err := store.Get(r.Context(), id)
		if errors.Is(err, media.ErrNotFound) {
			svr.Error(w, r, apperror.NotFound("Media not found"))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to load media"))
			return
		}
		entry := make([]byte, 0, len(m.MediaType)+1+len(m.Bytes))
		entry = append(entry, m.MediaType...)
		entry = append(entry, '\n')
		entry = append(entry, m.Bytes...)
		if err := svr.CacheSet(mediaCacheKey(id), entry); err != nil {
			svr.Logger().Debug().Err(err).Str("media_id", id).Msg("media not cached")
		}
		svr.MEDIA(w, http.StatusOK, m.Bytes, m.MediaType)
	}
}
