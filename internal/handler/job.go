package handler

import (
	"net/http"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

func CreateJobHandler(svr server.Server, jobs JobStore, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		rq := job.CreateRq{}
		if err := decodeRequest(w, r, &rq, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		rq.Title = clean(rq.Title)
		rq.Description = clean(rq.Description)
		if rq.Title == "" || rq.Description == "" {
			svr.Error(w, r, apperror.Validation("Job title and description are required!"))
			return
		}
		responsibilities, err := job.ParseResponsibilities(rq.KeyResponsibilities)
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		for i := range responsibilities {
			responsibilities[i] = clean(responsibilities[i])
		}
		details := &job.Details{
			JobType:    clean(rq.JobType),
			Category:   clean(rq.Category),
			Experience: clean(rq.Experience),
			Salary:     clean(rq.Salary),
			Location:   clean(rq.Location),
		}
		if err := validate.Struct(rq); err != nil {
			svr.Error(w, r, validationError(err, "Job title and description are required!"))
			return
		}
		image, err := formFile(r, "image")
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		var asset media.Asset
		if image != nil {
			if asset, err = uploadImage(r.Context(), svr, store, image); err != nil {
				svr.Error(w, r, err)
				return
			}
			details.Image = &asset.URL
		}
		j := &job.Job{
			Title:            rq.Title,
			Description:      rq.Description,
			Responsibilities: responsibilities,
			Details:          details,
			CreatedByID:      userID,
		}
		if err := jobs.CreateJob(r.Context(), j); err != nil {
			discard(r.Context(), svr, store, asset)
			svr.Error(w, r, apperror.Internal(err, "Failed to create job."))
			return
		}
		created, err := jobs.JobByID(r.Context(), j.ID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Failed to create job."))
			return
		}
		svr.Logger().Info().Str("job_id", created.ID).Str("user_id", userID).Msg("job created")
		svr.Success(w, http.StatusCreated, "Job Created Successfully.", map[string]interface{}{"job": created})
	}
}

// PublishJobHandler is a no-op for jobs already published.
func PublishJobHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := jobOrFail(svr, w, r)
		if !ok {
			return
		}
		if j.Status != job.StatusPublished {
			if err := jobs.Publish(r.Context(), j.ID); err != nil {
				if errors.Is(err, job.ErrNotFound) {
					svr.Error(w, r, apperror.NotFound("Job not found"))
					return
				}
				svr.Error(w, r, apperror.Internal(err, "Unable to publish job"))
				return
			}
			j.Status = job.StatusPublished
		}
		svr.Success(w, http.StatusOK, "Job Published Successfully", map[string]interface{}{"job": j})
	}
}

func ListJobsHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := job.Status(r.URL.Query().Get("status"))
		if status != "" && status != job.StatusDraft && status != job.StatusPublished {
			svr.Error(w, r, apperror.Validation("status must be one of: Draft Published"))
			return
		}
		all, err := jobs.Jobs(r.Context(), status, 0)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "error finding jobs"))
			return
		}
		svr.Success(w, http.StatusOK, "Jobs Fetched Successfully!", map[string]interface{}{"jobs": all})
	}
}

func GetJobHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := jobs.JobByID(r.Context(), mux.Vars(r)["id"])
		if errors.Is(err, job.ErrNotFound) {
			svr.Error(w, r, apperror.NotFound("Cannot find job details"))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to fetch job"))
			return
		}
		svr.Success(w, http.StatusOK, "Job details fetched Successfully", map[string]interface{}{"job": j})
	}
}

func MyJobsHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		mine, err := jobs.JobsByCreator(r.Context(), userID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Failed to fetch jobs."))
			return
		}
		svr.Success(w, http.StatusOK, "", map[string]interface{}{"jobs": mine})
	}
}

func UpdateJobHandler(svr server.Server, jobs JobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := jobOrFail(svr, w, r)
		if !ok {
			return
		}
		rq := job.UpdateRq{}
		if err := decodeRequest(w, r, &rq, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		rq.Title = clean(rq.Title)
		rq.Description = clean(rq.Description)
		rq.JobType = clean(rq.JobType)
		rq.Category = clean(rq.Category)
		rq.Experience = clean(rq.Experience)
		rq.Salary = clean(rq.Salary)
		rq.Location = clean(rq.Location)
		if err := validate.Struct(rq); err != nil {
			svr.Error(w, r, validationError(err, "All fields are required"))
			return
		}
		if !job.CanTransition(j.Status, rq.Status) {
			svr.Error(w, r, apperror.Validation("A published job cannot be moved back to draft"))
			return
		}
		if err := jobs.UpdateJob(r.Context(), j.ID, rq); err != nil {
			if errors.Is(err, job.ErrNotFound) {
				svr.Error(w, r, apperror.NotFound("Job not found"))
				return
			}
			svr.Error(w, r, apperror.Internal(err, "Something went wrong"))
			return
		}
		updated, err := jobs.JobByID(r.Context(), j.ID)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Something went wrong"))
			return
		}
		svr.Success(w, http.StatusOK, "Job updated successfully", map[string]interface{}{"job": updated})
	}
}

func UpdateJobImageHandler(svr server.Server, jobs JobStore, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, ok := jobOrFail(svr, w, r)
		if !ok {
			return
		}
		if j.DetailsID == "" {
			svr.Error(w, r, apperror.NotFound("JobDetails reference missing in Job"))
			return
		}
		if err := decodeRequest(w, r, &struct{}{}, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		image, err := formFile(r, "image")
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if image == nil {
			svr.Error(w, r, apperror.Validation("No image file provided"))
			return
		}
		asset, err := uploadImage(r.Context(), svr, store, image)
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if err := jobs.UpdateImage(r.Context(), j.DetailsID, asset.URL); err != nil {
			discard(r.Context(), svr, store, asset)
			if errors.Is(err, job.ErrNotFound) {
				svr.Error(w, r, apperror.NotFound("Job details not found"))
				return
			}
			svr.Error(w, r, apperror.Internal(err, "Internal server error while updating image"))
			return
		}
		svr.Success(w, http.StatusOK, "Image updated successfully!", map[string]interface{}{"image": asset.URL})
	}
}
