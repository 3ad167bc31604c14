package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	Port           string
	DatabaseURL    string
	SessionKey     []byte
	JwtSigningKey  []byte
	Env            string // either prod or dev, will disable https and few other bits
	SiteName       string
	SiteHost       string // hostname used to build public media urls
	URLProtocol    string
	AllowedOrigin  string // origin of the single-page frontend, allowed to send credentials
	MediaFolder    string // folder every uploaded file is filed under
	MaxUploadBytes int64
	MediaCacheMB   int // upper bound of the in-process media cache
	SentryDSN      string
	EmailAPIKey    string // optional, new applicant emails are disabled when empty
	NoReplyEmail   string
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		siteName = "Campus Jobs"
	}
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:5173"
	}
	mediaFolder := os.Getenv("MEDIA_FOLDER")
	if mediaFolder == "" {
		mediaFolder = "campusjobs"
	}
	maxUploadMB := 5
	if s := os.Getenv("MAX_UPLOAD_MB"); s != "" {
		maxUploadMB, err = strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert MAX_UPLOAD_MB to int: %v", err)
		}
	}
	mediaCacheMB := 64
	if s := os.Getenv("MEDIA_CACHE_MB"); s != "" {
		mediaCacheMB, err = strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert MEDIA_CACHE_MB to int: %v", err)
		}
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if emailAPIKey != "" && noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty when EMAIL_API_KEY is set")
	}
	urlProtocol := "http://"
	if !strings.EqualFold(env, "dev") {
		urlProtocol = "https://"
	}

	return Config{
		Port:           port,
		DatabaseURL:    databaseURL,
		SessionKey:     sessionKeyBytes,
		JwtSigningKey:  jwtSigningKeyBytes,
		Env:            env,
		SiteName:       siteName,
		SiteHost:       siteHost,
		URLProtocol:    urlProtocol,
		AllowedOrigin:  allowedOrigin,
		MediaFolder:    mediaFolder,
		MaxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		MediaCacheMB:   mediaCacheMB,
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		EmailAPIKey:    emailAPIKey,
		NoReplyEmail:   noReplyEmail,
	}, nil
}

// SiteURL is the public base url, e.g. https://jobs.example.com
func (c Config) SiteURL() string {
	return c.URLProtocol + c.SiteHost
}
