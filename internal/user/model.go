package user

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleStudent   Role = "Student"
	RoleRecruiter Role = "Recruiter"

	bcryptCost = 10
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Image     *string   `json:"image"`
	ProfileID string    `json:"-"`
	Profile   *Profile  `json:"profile,omitempty"`
	Jobs      []string  `json:"jobs"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is created together with its user and may have every field unset.
type Profile struct {
	ID          string  `json:"id"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"dateOfBirth"`
	About       *string `json:"about"`
	Resume      *string `json:"resume"`
}

// Summary is the creator view embedded in jobs.
type Summary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u *User) HasResume() bool {
	return u.Profile != nil && u.Profile.Resume != nil && *u.Profile.Resume != ""
}

type RegisterRq struct {
	FullName string `json:"fullName" schema:"fullName" validate:"required,max=200"`
	Email    string `json:"email" schema:"email" validate:"required,email,max=255"`
	Password string `json:"password" schema:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" schema:"phone" validate:"required,max=32"`
	Role     Role   `json:"role" schema:"role" validate:"required,role"`
}

type LoginRq struct {
	Email    string `json:"email" schema:"email" validate:"required"`
	Password string `json:"password" schema:"password" validate:"required"`
	Role     Role   `json:"role" schema:"role" validate:"required"`
}

type UpdateProfileRq struct {
	FullName    string `json:"fullName" schema:"fullName" validate:"required,max=200"`
	Email       string `json:"email" schema:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" schema:"phone" validate:"required,max=32"`
	About       string `json:"about" schema:"about" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" schema:"dateOfBirth" validate:"required,max=32"`
	Gender      string `json:"gender" schema:"gender" validate:"required,max=32"`
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleRecruiter
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash password")
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
