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

// register image constraints
const (
	profileImageHeight  = 1000
	profileImageQuality = 1000
)

func RegisterHandler(svr server.Server, users UserStore, store media.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := user.RegisterRq{}
		if err := decodeRequest(w, r, &rq, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		rq.FullName = clean(rq.FullName)
		rq.Phone = clean(rq.Phone)
		rq.Email = user.NormalizeEmail(rq.Email)
		if err := validate.Struct(rq); err != nil {
			svr.Error(w, r, validationError(err, "All fields are required !"))
			return
		}
		exists, err := users.EmailExists(r.Context(), rq.Email)
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to register user"))
			return
		}
		if exists {
			svr.Error(w, r, apperror.Conflict("User already exists with this email !"))
			return
		}
		image, err := formFile(r, "image")
		if err != nil {
			svr.Error(w, r, err)
			return
		}
		var asset media.Asset
		if image != nil {
			asset, err = uploadImage(r.Context(), svr, store, image, media.WithHeight(profileImageHeight), media.WithQuality(profileImageQuality))
			if err != nil {
				svr.Error(w, r, err)
				return
			}
		}
		hash, err := user.HashPassword(rq.Password)
		if err != nil {
			discard(r.Context(), svr, store, asset)
			svr.Error(w, r, apperror.Internal(err, "Unable to register user"))
			return
		}
		u := &user.User{
			FullName: rq.FullName,
			Email:    rq.Email,
			Password: hash,
			Phone:    rq.Phone,
			Role:     rq.Role,
		}
		if asset.URL != "" {
			u.Image = &asset.URL
		}
		if err := users.CreateUser(r.Context(), u); err != nil {
			discard(r.Context(), svr, store, asset)
			if errors.Is(err, database.ErrDuplicate) {
				svr.Error(w, r, apperror.Conflict("User already exists with this email !"))
				return
			}
			svr.Error(w, r, apperror.Internal(err, "Unable to register user"))
			return
		}
		svr.Logger().Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
		svr.Success(w, http.StatusCreated, "User Created Successfully", map[string]interface{}{"user": u})
	}
}

func LoginHandler(svr server.Server, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rq := user.LoginRq{}
		if err := decodeRequest(w, r, &rq, svr.GetConfig().MaxUploadBytes); err != nil {
			svr.Error(w, r, err)
			return
		}
		if err := validate.Struct(rq); err != nil {
			svr.Error(w, r, validationError(err, "All fields are required"))
			return
		}
		u, err := users.UserByEmail(r.Context(), rq.Email)
		if errors.Is(err, user.ErrNotFound) {
			svr.Error(w, r, apperror.Validation("User not exist with this email"))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to login"))
			return
		}
		if !user.CheckPassword(u.Password, rq.Password) {
			svr.Error(w, r, apperror.Validation("Incorrect Password"))
			return
		}
		if rq.Role != u.Role {
			svr.Error(w, r, apperror.Validation("User not available for this role"))
			return
		}
		if _, err := svr.Sessions.Issue(w, r, session.Identity{ID: u.ID, Email: u.Email, Role: string(u.Role)}); err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to login"))
			return
		}
		svr.Success(w, http.StatusOK, "Login successful", map[string]interface{}{"user": u})
	}
}

func LogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svr.Sessions.Clear(w, r); err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to logout"))
			return
		}
		svr.Success(w, http.StatusOK, "Logged out successfully", nil)
	}
}

func CurrentUserHandler(svr server.Server, users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerOrFail(svr, w, r)
		if !ok {
			return
		}
		u, err := users.UserByID(r.Context(), userID)
		if errors.Is(err, user.ErrNotFound) {
			svr.Error(w, r, apperror.Unauthenticated("User not found, please login again"))
			return
		}
		if err != nil {
			svr.Error(w, r, apperror.Internal(err, "Unable to verify user"))
			return
		}
		svr.Success(w, http.StatusOK, "User verified", map[string]interface{}{"user": u})
	}
}
