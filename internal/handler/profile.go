package handler

import (
	"net/http"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/database"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/0x13a/campusjobs/internal/session"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/pkg/errors"
)

const resumeContentType = "application/pdf"

func UpdateProfileImageHandler(svr server.Server, users UserStore, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
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
		asset, err := uploadImage(r.Context(), svr, store, image, media.WithHeight(profileImageHeight))
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if err := users.UpdateImage(r.Context(), userID, &asset.URL); err != nil {
			discard(r.Context(), svr, store, asset)
			userError(svr, w, r, err, "Internal server error while updating image")
			return
		}
		svr.Success(w, http.StatusOK, "Image updated successfully!", map[string]interface{}{"image": asset.URL})
	}
}

func RemoveProfileImageHandler(svr server.Server, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		if err := users.UpdateImage(r.Context(), userID, nil); err != nil {
			userError(svr, w, r, err, "Internal server error while updating image")
			return
		}
		svr.Success(w, http.StatusOK, "Image Removed", map[string]interface{}{"image": nil})
	}
}

// UpdateProfileHandler saves user and profile fields together.
func UpdateProfileHandler(svr server.Server, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		rq := user.UpdateProfileRq{}
		if err := decodeRequest(w, r, &rq, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		rq.FullName = clean(rq.FullName)
		rq.Email = user.NormalizeEmail(rq.Email)
		rq.Phone = clean(rq.Phone)
		rq.About = clean(rq.About)
		rq.DateOfBirth = clean(rq.DateOfBirth)
		rq.Gender = clean(rq.Gender)
		if err := validate.Struct(rq); err != nil {
			svr.Error(w, r, validationError(err, "All fields are required!"))
			return
		}
		if err := users.UpdateProfile(r.Context(), userID, rq); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				svr.Error(w, r, apperror.Conflict("Email is already in use"))
				return
			}
			userError(svr, w, r, err, "Something went wrong")
			return
		}
		u, err := users.UserByID(r.Context(), userID)
		if err != nil {
			userError(svr, w, r, err, "Something went wrong")
			return
		}
		// the token carries the email, issue a fresh one
		if _, err := svr.Sessions.Issue(w, r, session.Identity{ID: u.ID, Email: u.Email, Role: string(u.Role)}); err != nil {
			svr.Error(w, r, apperror.Internal(err, "Something went wrong"))
			return
		}
		svr.Success(w, http.StatusOK, "Profile updated successfully", map[string]interface{}{"user": u})
	}
}

// UpdateResumeHandler accepts a file declared as application/pdf only.
func UpdateResumeHandler(svr server.Server, users UserStore, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		if err := decodeRequest(w, r, &struct{}{}, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		resume, err := formFile(r, "resume")
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		if resume == nil {
			svr.Error(w, r, apperror.Validation("No resume file uploaded"))
			return
		}
		if resume.ContentType != resumeContentType {
			svr.Error(w, r, apperror.Validation("Only PDF files are allowed"))
			return
		}
		asset, err := store.Upload(r.Context(), *resume, svr.GetConfig().MediaFolder)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Server error while uploading resume"))
			return
		}
		if err := users.UpdateResume(r.Context(), userID, asset.URL); err != nil {
			discard(r.Context(), svr, store, asset)
			userError(svr, w, r, err, "Server error while uploading resume")
			return
		}
		svr.Success(w, http.StatusOK, "Resume updated successfully", map[string]interface{}{"resume": asset.URL})
	}
}

func userError(svr server.Server, w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, user.ErrNotFound) {
		svr.Error(w, r, apperror.NotFound("User or profile not found"))
		return
	}
	svr.Error(w, r, apperror.Internal(err, msg))
}
