// Package media stores uploaded images and documents and serves them back by id.
package media

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("media not found")
	ErrUnsupportedType    = errors.New("unsupported media type")
	allowedImageMediaType = []string{"image/png", "image/jpeg", "image/jpg"}
)

// File is an upload as received from the client.
type File struct {
	Name        string
	ContentType string
	Bytes       []byte
}

// Asset is a stored upload.
type Asset struct {
	ID        string
	URL       string
	MediaType string
}

type Media struct {
	Bytes     []byte
	MediaType string
}

// Store is the media collaborator handed to handlers.
type Store interface {
	Upload(ctx context.Context, f File, folder string, opts ...Option) (Asset, error)
	Get(ctx context.Context, id string) (Media, error)
	Delete(ctx context.Context, id string) error
}

type uploadOptions struct {
	height  int
	quality int
}

type Option func(*uploadOptions)

// WithHeight scales images down to h pixels high, keeping the aspect ratio.
func WithHeight(h int) Option {
	return func(o *uploadOptions) {
		o.height = h
	}
}

// WithQuality sets the jpeg encoding quality, values are clamped to 1-100.
func WithQuality(q int) Option {
	return func(o *uploadOptions) {
		o.quality = q
	}
}

// DetectImageType sniffs the content and reports whether it is an image we accept.
func DetectImageType(b []byte) (string, bool) {
	contentType := http.DetectContentType(b)
	for _, allowed := range allowedImageMediaType {
		if allowed == contentType {
			return contentType, true
		}
	}
	return contentType, false
}

// Transform applies the upload options to image content. Other content is
// returned unchanged.
func Transform(f File, opts ...Option) (File, error) {
	o := uploadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	mediaType, isImage := DetectImageType(f.Bytes)
	if !isImage || (o.height <= 0 && o.quality <= 0) {
		return f, nil
	}
	decImage, _, err := image.Decode(bytes.NewReader(f.Bytes))
	if err != nil {
		return f, errors.Wrap(err, "unable to decode image from bytes")
	}
	if o.height > 0 && decImage.Bounds().Dy() > o.height {
		decImage = resize.Resize(0, uint(o.height), decImage, resize.Lanczos3)
	}
	out := new(bytes.Buffer)
	switch mediaType {
	case "image/jpg", "image/jpeg":
		quality := jpeg.DefaultQuality
		if o.quality > 0 {
			quality = clamp(o.quality, 1, 100)
		}
		if err := jpeg.Encode(out, decImage, &jpeg.Options{Quality: quality}); err != nil {
			return f, errors.Wrap(err, "unable to encode image into jpeg")
		}
	case "image/png":
		if err := png.Encode(out, decImage); err != nil {
			return f, errors.Wrap(err, "unable to encode image into png")
		}
	default:
		return f, errors.Wrapf(ErrUnsupportedType, "content type %s not supported for encoding", mediaType)
	}
	return File{Name: f.Name, ContentType: mediaType, Bytes: out.Bytes()}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
