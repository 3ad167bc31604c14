package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/middleware"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

var (
	validate    = newValidator()
	formDecoder = newFormDecoder()
	strict      = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return user.Role(fl.Field().String()).Valid()
	})
	return v
}

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// decodeRequest reads a json, urlencoded or multipart body into dst. Multipart
// files stay available through r.FormFile.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return apperror.Validation("Invalid form data or file too large")
		}
		if err := formDecoder.Decode(dst, r.MultipartForm.Value); err != nil {
			return apperror.Validation("Invalid form data")
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return apperror.Validation("Invalid form data")
		}
		if err := formDecoder.Decode(dst, r.PostForm); err != nil {
			return apperror.Validation("Invalid form data")
		}
	default:
		err := json.NewDecoder(r.Body).Decode(dst)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperror.Validation("Invalid request body")
		}
	}
	return nil
}

// validationError turns the first failing constraint into a client message.
func validationError(err error, requiredMsg string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Internal(err, "unable to validate request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperror.Validation(requiredMsg)
	case "email":
		return apperror.Validation("Invalid email address")
	case "role":
		return apperror.Validation("Role must be Student or Recruiter")
	case "oneof":
		return apperror.Validation(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	case "max":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	case "min":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
	}
	return apperror.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
}

// clean strips markup from s and keeps the text as typed. Stored values are
// plain text, escaping happens where they are rendered.
func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// formFile returns the uploaded file under field, or nil when none was sent.
func formFile(r *http.Request, field string) (*media.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Validation("Invalid file upload")
	}
	defer f.Close()
	b, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, apperror.Validation("Unable to read uploaded file")
	}
	if len(b) == 0 {
		return nil, apperror.Validation("Uploaded file is empty")
	}
	return &media.File{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Bytes: b}, nil
}

func uploadImage(ctx context.Context, svr server.Server, store media.Store, f *media.File, opts ...media.Option) (media.Asset, error) {
	mediaType, ok := media.DetectImageType(f.Bytes)
	if !ok {
		return media.Asset{}, apperror.Validation("Image must be a png or jpeg file")
	}
	f.ContentType = mediaType
	asset, err := store.Upload(ctx, *f, svr.GetConfig().MediaFolder, opts...)
	if err != nil {
		return media.Asset{}, apperror.Internal(err, "Unable to upload image")
	}
	return asset, nil
}

// discard removes media uploaded for a write that did not go through.
func discard(ctx context.Context, svr server.Server, store media.Store, asset media.Asset) {
	if asset.ID == "" {
		return
	}
	if err := store.Delete(ctx, asset.ID); err != nil {
		svr.Log(err, fmt.Sprintf("unable to delete orphaned media %s", asset.ID))
	}
	if err := svr.CacheDelete(mediaCacheKey(asset.ID)); err != nil {
		svr.Log(err, fmt.Sprintf("unable to evict media %s from cache", asset.ID))
	}
}

func callerOrFail(svr server.Server, w http.ResponseWriter, r *http.Request) (userID string, role user.Role, ok bool) {
	claims, found := middleware.ClaimsFromContext(r.Context())
	if !found {
		svr.Error(w, r, apperror.Unauthenticated("Authentication Error!"))
		return "", "", false
	}
	return claims.UserID, user.Role(claims.Role), true
}

func jobOrFail(svr server.Server, w http.ResponseWriter, r *http.Request) (*job.Job, bool) {
	j, found := middleware.JobFromContext(r.Context())
	if !found {
		svr.Error(w, r, apperror.NotFound("Job not found"))
		return nil, false
	}
	return j, true
}
