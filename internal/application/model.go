package application

import "time"

// Application links a student to a job with the resume they had on file when applying.
type Application struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	JobID      string    `json:"jobId"`
	ResumeLink string    `json:"resumeLink"`
	CreatedAt  time.Time `json:"createdAt"`
}
