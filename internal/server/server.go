package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/config"
	"github.com/0x13a/campusjobs/internal/middleware"
	"github.com/0x13a/campusjobs/internal/session"
	"github.com/allegro/bigcache/v3"
	"github.com/getsentry/raven-go"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const APIPrefix = "/api/v1"

type Server struct {
	cfg      config.Config
	router   *mux.Router
	Sessions *session.Manager
	logger   zerolog.Logger
	bigCache *bigcache.BigCache
}

func NewServer(
	cfg config.Config,
	r *mux.Router,
	sessions *session.Manager,
	logger zerolog.Logger,
) Server {
	if cfg.SentryDSN != "" {
		raven.SetDSN(cfg.SentryDSN)
	}
	svr := Server{
		cfg:      cfg,
		router:   r,
		Sessions: sessions,
		logger:   logger,
	}
	bigCache, err := bigcache.NewBigCache(cacheConfig(cfg.MediaCacheMB))
	if err != nil {
		svr.Log(err, "unable to initialise big cache")
	}
	svr.bigCache = bigCache

	return svr
}

func cacheConfig(maxMB int) bigcache.Config {
	c := bigcache.DefaultConfig(12 * time.Hour)
	c.Shards = 32
	c.MaxEntriesInWindow = 512
	c.MaxEntrySize = 32 * 1024
	c.HardMaxCacheSize = maxMB
	c.Verbose = false
	return c
}

func (s Server) RegisterRoute(path string, handler func(w http.ResponseWriter, r *http.Request), methods []string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s Server) GetConfig() config.Config {
	return s.cfg
}

func (s Server) Logger() *zerolog.Logger {
	return &s.logger
}

func (s Server) XML(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(data)
}

func (s Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes the {success: true, message, ...payload} envelope.
func (s Server) Success(w http.ResponseWriter, status int, message string, payload map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	s.JSON(w, status, body)
}

// Error writes the {success: false, message} envelope with the status of err.
// Internal errors are logged, their cause is never sent to the client.
func (s Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.Status(err)
	if status >= http.StatusInternalServerError {
		s.Log(err, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
	} else {
		s.logger.Debug().
			Str("kind", apperror.KindOf(err).String()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(apperror.Message(err))
	}
	s.JSON(w, status, map[string]interface{}{
		"success": false,
		"message": apperror.Message(err),
	})
}

func (s Server) MEDIA(w http.ResponseWriter, status int, media []byte, mediaType string) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "max-age=31536000")
	w.WriteHeader(status)
	w.Write(media)
}

func (s Server) Log(err error, msg string) {
	if s.cfg.SentryDSN != "" {
		raven.CaptureErrorAndWait(err, map[string]string{"ctx": msg})
	}
	s.logger.Error().Err(err).Msg(msg)
}

// Handler is the router wrapped in the middleware chain.
func (s Server) Handler() http.Handler {
	return middleware.HTTPSMiddleware(
		middleware.GzipMiddleware(
			middleware.LoggingMiddleware(
				s.logger,
				middleware.RecoveryMiddleware(
					s.logger,
					s.Error,
					middleware.CORSMiddleware(middleware.HeadersMiddleware(s.router, s.cfg.Env), s.cfg.AllowedOrigin),
				),
			),
		),
		s.cfg.Env,
	)
}

func (s Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	if s.cfg.Env == "dev" {
		s.logger.Info().Msgf("local env http://localhost:%s", s.cfg.Port)
		addr = fmt.Sprintf("localhost:%s", s.cfg.Port)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s Server) CacheGet(key string) ([]byte, bool) {
	if s.bigCache == nil {
		return nil, false
	}
	out, err := s.bigCache.Get(key)
	if err != nil {
		return nil, false
	}
	return out, true
}

func (s Server) CacheSet(key string, val []byte) error {
	if s.bigCache == nil {
		return nil
	}
	return s.bigCache.Set(key, val)
}

func (s Server) CacheDelete(key string) error {
	if s.bigCache == nil {
		return nil
	}
	err := s.bigCache.Delete(key)
	if err == bigcache.ErrEntryNotFound {
		return nil
	}
	return err
}
