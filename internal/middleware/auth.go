package middleware

import (
	"context"
	"net/http"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/session"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	jobKey
)

type claimsResolver interface {
	Claims(r *http.Request) (*session.Claims, error)
}

type jobFinder interface {
	JobByID(ctx context.Context, id string) (*job.Job, error)
}

// Authenticated resolves the caller from the session cookie and stores the
// claims in the request context.
func Authenticated(sm claimsResolver, onErr ErrorWriter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := sm.Claims(r)
		if err == session.ErrNoSession {
			onErr(w, r, apperror.Unauthenticated("Authentication Error!"))
			return
		}
		if err != nil {
			onErr(w, r, apperror.Unauthenticated("Invalid Token!"))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// RequireRole must run after Authenticated.
func RequireRole(role string, onErr ErrorWriter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			onErr(w, r, apperror.Unauthenticated("Authentication Error!"))
			return
		}
		if claims.Role != role {
			onErr(w, r, apperror.Forbidden("UnAuthorized Area!"))
			return
		}
		next(w, r)
	}
}

// RequireJobOwner loads the job named by the {id} route variable, checks the
// caller created it and stores it in the request context.
func RequireJobOwner(jobs jobFinder, onErr ErrorWriter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			onErr(w, r, apperror.Unauthenticated("Authentication Error!"))
			return
		}
		id := mux.Vars(r)["id"]
		if id == "" {
			onErr(w, r, apperror.Validation("Cannot find the jobId"))
			return
		}
		j, err := jobs.JobByID(r.Context(), id)
		if errors.Is(err, job.ErrNotFound) {
			onErr(w, r, apperror.NotFound("Job doesn't exist"))
			return
		}
		if err != nil {
			onErr(w, r, apperror.Internal(err, "unable to load job"))
			return
		}
		if !j.OwnedBy(claims.UserID) {
			onErr(w, r, apperror.Forbidden("Unauthorized area!"))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), jobKey, j)))
	}
}

func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok && claims != nil
}

func JobFromContext(ctx context.Context) (*job.Job, bool) {
	j, ok := ctx.Value(jobKey).(*job.Job)
	return j, ok && j != nil
}

// WithClaims stores claims the way Authenticated does.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
