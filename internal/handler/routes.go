package handler

import (
	"context"
	"net/http"

	"github.com/0x13a/campusjobs/internal/application"
	"github.com/0x13a/campusjobs/internal/email"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/middleware"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/0x13a/campusjobs/internal/user"
)

type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u *user.User) error
	UserByEmail(ctx context.Context, email string) (*user.User, error)
	UserByID(ctx context.Context, id string) (*user.User, error)
	UpdateImage(ctx context.Context, userID string, image *string) error
	UpdateProfile(ctx context.Context, userID string, rq user.UpdateProfileRq) error
	UpdateResume(ctx context.Context, userID, resumeURL string) error
}

type JobStore interface {
	CreateJob(ctx context.Context, j *job.Job) error
	JobByID(ctx context.Context, id string) (*job.Job, error)
	Jobs(ctx context.Context, status job.Status, limit int) ([]*job.Job, error)
	JobsByCreator(ctx context.Context, userID string) ([]*job.Job, error)
	JobsAppliedBy(ctx context.Context, userID string) ([]*job.Job, error)
	Publish(ctx context.Context, id string) error
	UpdateJob(ctx context.Context, id string, rq job.UpdateRq) error
	UpdateImage(ctx context.Context, detailsID, image string) error
	AppliedUsers(ctx context.Context, jobID string) ([]*job.AppliedUser, error)
}

type ApplicationStore interface {
	HasApplied(ctx context.Context, userID, jobID string) (bool, error)
	Create(ctx context.Context, a *application.Application) error
}

type Notifier interface {
	NotifyNewApplicant(ctx context.Context, a email.NewApplicant) error
}

type pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users        UserStore
	Jobs         JobStore
	Applications ApplicationStore
	Media        media.Store
	Notifier     Notifier
	DB           pinger
}

func RegisterRoutes(svr server.Server, d Deps) {
	api := server.APIPrefix
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.Authenticated(svr.Sessions, svr.Error, next)
	}
	role := func(r user.Role, next http.HandlerFunc) http.HandlerFunc {
		return authed(middleware.RequireRole(string(r), svr.Error, next))
	}
	owner := func(next http.HandlerFunc) http.HandlerFunc {
		return role(user.RoleRecruiter, middleware.RequireJobOwner(d.Jobs, svr.Error, next))
	}

	// session
	svr.RegisterRoute(api+"/auth/register", RegisterHandler(svr, d.Users, d.Media), []string{http.MethodPost})
	svr.RegisterRoute(api+"/auth/login", LoginHandler(svr, d.Users), []string{http.MethodPost})
	svr.RegisterRoute(api+"/auth/logout", LogoutHandler(svr), []string{http.MethodPost})
	svr.RegisterRoute(api+"/auth/verifyUser", authed(CurrentUserHandler(svr, d.Users)), []string{http.MethodPost, http.MethodGet})

	// jobs, static paths first so they are not captured by {id}
	svr.RegisterRoute(api+"/jobs", role(user.RoleRecruiter, CreateJobHandler(svr, d.Jobs, d.Media)), []string{http.MethodPost})
	svr.RegisterRoute(api+"/jobs", ListJobsHandler(svr, d.Jobs), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/mine", authed(MyJobsHandler(svr, d.Jobs)), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/applied", role(user.RoleStudent, AppliedJobsHandler(svr, d.Jobs)), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/feed.rss", RSSFeedHandler(svr, d.Jobs), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/{id}", GetJobHandler(svr, d.Jobs), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/{id}", owner(UpdateJobHandler(svr, d.Jobs)), []string{http.MethodPatch})
	svr.RegisterRoute(api+"/jobs/{id}/publish", owner(PublishJobHandler(svr, d.Jobs)), []string{http.MethodPost})
	svr.RegisterRoute(api+"/jobs/{id}/image", owner(UpdateJobImageHandler(svr, d.Jobs, d.Media)), []string{http.MethodPatch})
	svr.RegisterRoute(api+"/jobs/{id}/applicants", owner(ApplicantsHandler(svr, d.Jobs)), []string{http.MethodGet})
	svr.RegisterRoute(api+"/jobs/{id}/apply", role(user.RoleStudent, ApplyHandler(svr, d.Users, d.Jobs, d.Applications, d.Notifier)), []string{http.MethodPost})

	// profile
	svr.RegisterRoute(api+"/profile", authed(UpdateProfileHandler(svr, d.Users)), []string{http.MethodPatch})
	svr.RegisterRoute(api+"/profile/image", authed(UpdateProfileImageHandler(svr, d.Users, d.Media)), []string{http.MethodPatch})
	svr.RegisterRoute(api+"/profile/image:remove", authed(RemoveProfileImageHandler(svr, d.Users)), []string{http.MethodPatch})
	svr.RegisterRoute(api+"/profile/resume", authed(UpdateResumeHandler(svr, d.Users, d.Media)), []string{http.MethodPatch})

	svr.RegisterRoute("/media/{id}", MediaHandler(svr, d.Media), []string{http.MethodGet})
	svr.RegisterRoute("/sitemap.xml", SitemapHandler(svr, d.Jobs), []string{http.MethodGet})
	svr.RegisterRoute("/healthz", HealthHandler(svr, d.DB), []string{http.MethodGet})
}
