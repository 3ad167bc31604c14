// Package session issues and verifies the signed token carried in the session cookie.
package session

import (
	"net/http"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
)

const (
	CookieName = "token"
	TTL        = 24 * time.Hour

	jwtKey = "jwt"
)

var (
	ErrNoSession    = errors.New("no session")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Identity is what a token is issued for.
type Identity struct {
	ID    string
	Email string
	Role  string
}

type Manager struct {
	store  *sessions.CookieStore
	key    []byte
	issuer string
	now    func() time.Time
}

func NewManager(sessionKey, jwtSigningKey []byte, issuer string) *Manager {
	store := sessions.NewCookieStore(sessionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
	return &Manager{store: store, key: jwtSigningKey, issuer: issuer, now: time.Now}
}

// Issue signs a token for id and saves it into the session cookie.
func (m *Manager) Issue(w http.ResponseWriter, r *http.Request, id Identity) (string, error) {
	sess, err := m.store.New(r, CookieName)
	if err != nil && sess == nil {
		return "", errors.Wrap(err, "unable to create session")
	}
	now := m.now().UTC()
	claims := Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(TTL).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    m.issuer,
			Subject:   id.ID,
		},
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "unable to sign jwt")
	}
	sess.Values[jwtKey] = ss
	if err := sess.Save(r, w); err != nil {
		return "", errors.Wrap(err, "unable to save jwt into session cookie")
	}
	return ss, nil
}

// Claims resolves the caller from the session cookie.
func (m *Manager) Claims(r *http.Request) (*Claims, error) {
	sess, err := m.store.Get(r, CookieName)
	if err != nil || sess.IsNew {
		return nil, ErrNoSession
	}
	tk, ok := sess.Values[jwtKey].(string)
	if !ok || tk == "" {
		return nil, ErrNoSession
	}
	return m.Parse(tk)
}

func (m *Manager) Parse(tk string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tk, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Clear overwrites the session cookie with an expired one carrying the same attributes.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.New(r, CookieName)
	if err != nil && sess == nil {
		return errors.Wrap(err, "unable to create session")
	}
	opts := *m.store.Options
	opts.MaxAge = -1
	sess.Options = &opts
	sess.Values = map[interface{}]interface{}{}
	return errors.Wrap(sess.Save(r, w), "unable to clear session cookie")
}
