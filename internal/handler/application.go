package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/0x13a/campusjobs/internal/application"
	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/database"
	"github.com/0x13a/campusjobs/internal/email"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const notifyTimeout = 15 * time.Second

// ApplyHandler checks the resume, the job and a previous application in that
// order before saving the application.
func ApplyHandler(svr server.Server, users UserStore, jobs JobStore, applications ApplicationStore, notifier Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, role, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		if role != user.RoleStudent {
			svr.Error(w, r, apperror.Forbidden("Only students can apply to jobs."))
			return
		}
		u, err := users.UserByID(r.Context(), userID)
		if errors.Is(err, user.ErrNotFound) {
			svr.Error(w, r, apperror.Unauthenticated("User not found, please login again"))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Internal server error."))
			return
		}
		if !u.HasResume() {
			svr.Error(w, r, apperror.Validation("Resume not found. Please upload a resume before applying."))
			return
		}
		j, err := jobs.JobByID(r.Context(), mux.Vars(r)["id"])
		if errors.Is(err, job.ErrNotFound) {
			svr.Error(w, r, apperror.NotFound("Job not found."))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Internal server error."))
			return
		}
		applied, err := applications.HasApplied(r.Context(), u.ID, j.ID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Internal server error."))
			return
		}
		if applied {
			svr.Error(w, r, apperror.Conflict("You have already applied to this job."))
			return
		}
		a := &application.Application{UserID: u.ID, JobID: j.ID, ResumeLink: *u.Profile.Resume}
		if err := applications.Create(r.Context(), a); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				svr.Error(w, r, apperror.Conflict("You have already applied to this job."))
				return
			}
			svr.Error(w, r, apperror.Internal(err, "Internal server error."))
			return
		}
		svr.Logger().Info().Str("job_id", j.ID).Str("user_id", u.ID).Msg("application created")
		if notifier != nil {
			go notifyRecruiter(svr, notifier, j, u, a)
		}
		svr.Success(w, http.StatusOK, "Job applied successfully.", map[string]interface{}{"application": a})
	}
}

func notifyRecruiter(svr server.Server, notifier Notifier, j *job.Job, u *user.User, a *application.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	err := notifier.NotifyNewApplicant(ctx, email.NewApplicant{
		RecruiterName:  j.CreatedBy.FullName,
		RecruiterEmail: j.CreatedBy.Email,
		JobID:          j.ID,
		JobTitle:       j.Title,
		ApplicantName:  u.FullName,
		ApplicantEmail: u.Email,
		ResumeLink:     a.ResumeLink,
	})
	if err != nil {
		svr.Log(err, "unable to notify recruiter of new applicant")
	}
}

func AppliedJobsHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		applied, err := jobs.JobsAppliedBy(r.Context(), userID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Server error while fetching applied jobs"))
			return
		}
		svr.Success(w, http.StatusOK, "", map[string]interface{}{"jobs": applied})
	}
}

func ApplicantsHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := jobOrFail(svr, w, r)
		if !ok {
			return
		}
		candidates, err := jobs.AppliedUsers(r.Context(), j.ID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Internal server error"))
			return
		}
		svr.Success(w, http.StatusOK, "", map[string]interface{}{"candidates": candidates})
	}
}
