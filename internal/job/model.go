package job

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/0x13a/campusjobs/internal/apperror"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

var ErrNotFound = errors.New("job not found")

type Job struct {
	ID                 string         `json:"id"`
	Slug               string         `json:"slug"`
	Title              string         `json:"jobTitle"`
	Description        string         `json:"jobDescription"`
	Responsibilities   pq.StringArray `json:"keyResponsibilities"`
	Status             Status         `json:"status"`
	DetailsID          string         `json:"-"`
	Details            *Details       `json:"jobDetails"`
	CreatedByID        string         `json:"-"`
	CreatedBy          *user.Summary  `json:"createdBy"`
	AppliedUsers       []*AppliedUser `json:"appliedUsers"`
	CreatedAt          time.Time      `json:"createdAt"`
	CreatedAtHumanized string         `json:"createdAtHumanized"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

type Details struct {
	ID         string  `json:"id"`
	JobType    string  `json:"jobType"`
	Category   string  `json:"category"`
	Experience string  `json:"experience"`
	Salary     string  `json:"salary"`
	Location   string  `json:"location"`
	Image      *string `json:"image"`
}

// AppliedUser is an application as seen from its job.
type AppliedUser struct {
	ID                 string     `json:"id"`
	ResumeLink         string     `json:"resumeLink"`
	User               *Applicant `json:"user"`
	CreatedAt          time.Time  `json:"createdAt"`
	CreatedAtHumanized string     `json:"createdAtHumanized"`
}

type Applicant struct {
	ID       string            `json:"id"`
	FullName string            `json:"fullName"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone"`
	Role     user.Role         `json:"role"`
	Profile  *ApplicantProfile `json:"profile"`
}

type ApplicantProfile struct {
	Resume *string `json:"resume"`
}

func (j *Job) OwnedBy(userID string) bool {
	return j.CreatedByID == userID
}

// RawList holds a serialized JSON array as submitted by the client, either as
// a form value or as a JSON string or array.
type RawList string

func (l *RawList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = RawList(s)
		return nil
	}
	if string(b) == "null" {
		*l = ""
		return nil
	}
	*l = RawList(b)
	return nil
}

type CreateRq struct {
	Title               string  `json:"jobTitle" schema:"jobTitle"`
	Description         string  `json:"jobDescription" schema:"jobDescription"`
	KeyResponsibilities RawList `json:"keyResponsibilities" schema:"keyResponsibilities"`
	JobType             string  `json:"jobType" schema:"jobType" validate:"max=100"`
	Category            string  `json:"category" schema:"category" validate:"max=100"`
	Experience          string  `json:"experience" schema:"experience" validate:"max=100"`
	Salary              string  `json:"salary" schema:"salary" validate:"max=100"`
	Location            string  `json:"location" schema:"location" validate:"max=200"`
}

// UpdateRq replaces every editable field at once.
type UpdateRq struct {
	Title       string `json:"jobTitle" schema:"jobTitle" validate:"required,max=200"`
	Description string `json:"jobDescription" schema:"jobDescription" validate:"required"`
	Status      Status `json:"status" schema:"status" validate:"required,oneof=Draft Published"`
	JobType     string `json:"jobType" schema:"jobType" validate:"required,max=100"`
	Category    string `json:"category" schema:"category" validate:"required,max=100"`
	Experience  string `json:"experience" schema:"experience" validate:"required,max=100"`
	Salary      string `json:"salary" schema:"salary" validate:"required,max=100"`
	Location    string `json:"location" schema:"location" validate:"required,max=200"`
}

// ParseResponsibilities decodes a serialized array of responsibilities.
// An absent value yields an empty list, a present one must hold at least one entry.
func ParseResponsibilities(raw RawList) ([]string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, apperror.Validation("Invalid responsibilities format")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, apperror.Validation("Responsibilities cannot be blank")
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, apperror.Validation("At least one responsibility is required.")
	}
	return out, nil
}

// CanTransition reports whether a job in status from may be moved to status to.
// Published jobs never go back to Draft.
func CanTransition(from, to Status) bool {
	return !(from == StatusPublished && to == StatusDraft)
}
