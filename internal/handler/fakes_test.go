package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0x13a/campusjobs/internal/application"
	"github.com/0x13a/campusjobs/internal/database"
	"github.com/0x13a/campusjobs/internal/email"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
)

// fakeDB mirrors the postgres repositories in memory.
type fakeDB struct {
	mu    sync.Mutex
	seq   int
	clock time.Time
	users map[string]*user.User
	jobs  map[string]*job.Job
	apps  []*application.Application

	failCreateUser error
	failUpdateJob  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		clock: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users: map[string]*user.User{},
		jobs:  map[string]*job.Job{},
	}
}

func (db *fakeDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s%d", prefix, db.seq)
}

func (db *fakeDB) tick() time.Time {
	db.clock = db.clock.Add(time.Minute)
	return db.clock
}

func (db *fakeDB) applicationCount(jobID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, a := range db.apps {
		if a.JobID == jobID {
			n++
		}
	}
	return n
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (db *fakeDB) userCopy(u *user.User) *user.User {
	c := *u
	c.Image = copyString(u.Image)
	p := *u.Profile
	p.Gender = copyString(u.Profile.Gender)
	p.DateOfBirth = copyString(u.Profile.DateOfBirth)
	p.About = copyString(u.Profile.About)
	p.Resume = copyString(u.Profile.Resume)
	c.Profile = &p
	c.Jobs = []string{}
	for _, j := range db.sortedJobs(false) {
		if j.CreatedByID == u.ID {
			c.Jobs = append(c.Jobs, j.ID)
		}
	}
	return &c
}

// sortedJobs returns stored jobs ordered by creation time.
func (db *fakeDB) sortedJobs(newestFirst bool) []*job.Job {
	out := make([]*job.Job, 0, len(db.jobs))
	for _, j := range db.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool {
		if newestFirst {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out
}

func (db *fakeDB) appliedUsers(jobID string) []*job.AppliedUser {
	out := []*job.AppliedUser{}
	for _, a := range db.apps {
		if a.JobID != jobID {
			continue
		}
		u := db.users[a.UserID]
		out = append(out, &job.AppliedUser{
			ID:         a.ID,
			ResumeLink: a.ResumeLink,
			CreatedAt:  a.CreatedAt,
			User: &job.Applicant{
				ID:       u.ID,
				FullName: u.FullName,
				Email:    u.Email,
				Phone:    u.Phone,
				Role:     u.Role,
				Profile:  &job.ApplicantProfile{Resume: copyString(u.Profile.Resume)},
			},
		})
	}
	return out
}

func (db *fakeDB) jobCopy(j *job.Job, withApplied bool) *job.Job {
	c := *j
	d := *j.Details
	d.Image = copyString(j.Details.Image)
	c.Details = &d
	c.Responsibilities = append(pq.StringArray{}, j.Responsibilities...)
	creator := db.users[j.CreatedByID]
	c.CreatedBy = &user.Summary{ID: creator.ID, FullName: creator.FullName, Email: creator.Email}
	c.AppliedUsers = []*job.AppliedUser{}
	if withApplied {
		c.AppliedUsers = db.appliedUsers(j.ID)
	}
	return &c
}

type fakeUsers struct{ db *fakeDB }

func (f fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == user.NormalizeEmail(email) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) CreateUser(ctx context.Context, u *user.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failCreateUser != nil {
		return f.db.failCreateUser
	}
	for _, existing := range f.db.users {
		if existing.Email == user.NormalizeEmail(u.Email) {
			return database.ErrDuplicate
		}
	}
	u.ID = f.db.nextID("u")
	u.ProfileID = f.db.nextID("p")
	u.Email = user.NormalizeEmail(u.Email)
	u.Profile = &user.Profile{ID: u.ProfileID}
	u.Jobs = []string{}
	u.CreatedAt = f.db.tick()
	stored := *u
	stored.Profile = &user.Profile{ID: u.ProfileID}
	f.db.users[u.ID] = &stored
	return nil
}

func (f fakeUsers) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == user.NormalizeEmail(email) {
			return f.db.userCopy(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (f fakeUsers) UserByID(ctx context.Context, id string) (*user.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return f.db.userCopy(u), nil
}

func (f fakeUsers) UpdateImage(ctx context.Context, userID string, image *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.Image = copyString(image)
	return nil
}

func (f fakeUsers) UpdateProfile(ctx context.Context, userID string, rq user.UpdateProfileRq) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	for id, other := range f.db.users {
		if id != userID && other.Email == user.NormalizeEmail(rq.Email) {
			return database.ErrDuplicate
		}
	}
	u.FullName = rq.FullName
	u.Email = user.NormalizeEmail(rq.Email)
	u.Phone = rq.Phone
	u.Profile.About = &rq.About
	u.Profile.DateOfBirth = &rq.DateOfBirth
	u.Profile.Gender = &rq.Gender
	return nil
}

func (f fakeUsers) UpdateResume(ctx context.Context, userID, resumeURL string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.Profile.Resume = &resumeURL
	return nil
}

type fakeJobs struct{ db *fakeDB }

func (f fakeJobs) CreateJob(ctx context.Context, j *job.Job) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if j.Details == nil {
		j.Details = &job.Details{}
	}
	j.ID = f.db.nextID("j")
	j.Details.ID = f.db.nextID("d")
	j.DetailsID = j.Details.ID
	j.Slug = j.ID + "-slug"
	j.Status = job.StatusDraft
	j.CreatedAt = f.db.tick()
	j.UpdatedAt = j.CreatedAt
	stored := *j
	details := *j.Details
	stored.Details = &details
	f.db.jobs[j.ID] = &stored
	return nil
}

func (f fakeJobs) JobByID(ctx context.Context, id string) (*job.Job, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok {
		return nil, job.ErrNotFound
	}
	return f.db.jobCopy(j, true), nil
}

func (f fakeJobs) Jobs(ctx context.Context, status job.Status, limit int) ([]*job.Job, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*job.Job{}
	for _, j := range f.db.sortedJobs(true) {
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, f.db.jobCopy(j, true))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f fakeJobs) JobsByCreator(ctx context.Context, userID string) ([]*job.Job, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*job.Job{}
	for _, j := range f.db.sortedJobs(true) {
		if j.CreatedByID == userID {
			out = append(out, f.db.jobCopy(j, false))
		}
	}
	return out, nil
}

func (f fakeJobs) JobsAppliedBy(ctx context.Context, userID string) ([]*job.Job, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*job.Job{}
	for i := len(f.db.apps) - 1; i >= 0; i-- {
		if a := f.db.apps[i]; a.UserID == userID {
			out = append(out, f.db.jobCopy(f.db.jobs[a.JobID], false))
		}
	}
	return out, nil
}

func (f fakeJobs) Publish(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	j, ok := f.db.jobs[id]
	if !ok {
		return job.ErrNotFound
	}
	j.Status = job.StatusPublished
	j.UpdatedAt = f.db.tick()
	return nil
}

func (f fakeJobs) UpdateJob(ctx context.Context, id string, rq job.UpdateRq) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.failUpdateJob != nil {
		return f.db.failUpdateJob
	}
	j, ok := f.db.jobs[id]
	if !ok {
		return job.ErrNotFound
	}
	j.Title = rq.Title
	j.Description = rq.Description
	j.Status = rq.Status
	j.Details.JobType = rq.JobType
	j.Details.Category = rq.Category
	j.Details.Experience = rq.Experience
	j.Details.Salary = rq.Salary
	j.Details.Location = rq.Location
	j.UpdatedAt = f.db.tick()
	return nil
}

func (f fakeJobs) UpdateImage(ctx context.Context, detailsID, image string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, j := range f.db.jobs {
		if j.DetailsID == detailsID {
			j.Details.Image = &image
			return nil
		}
	}
	return job.ErrNotFound
}

func (f fakeJobs) AppliedUsers(ctx context.Context, jobID string) ([]*job.AppliedUser, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.appliedUsers(jobID), nil
}

type fakeApplications struct{ db *fakeDB }

func (f fakeApplications) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, a := range f.db.apps {
		if a.UserID == userID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeApplications) Create(ctx context.Context, a *application.Application) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.apps {
		if existing.UserID == a.UserID && existing.JobID == a.JobID {
			return database.ErrDuplicate
		}
	}
	a.ID = f.db.nextID("a")
	a.CreatedAt = f.db.tick()
	stored := *a
	f.db.apps = append(f.db.apps, &stored)
	return nil
}

type mockMedia struct {
	mock.Mock
}

func (m *mockMedia) Upload(ctx context.Context, f media.File, folder string, opts ...media.Option) (media.Asset, error) {
	args := m.Called(f.Name, f.ContentType, folder, len(opts))
	return args.Get(0).(media.Asset), args.Error(1)
}

func (m *mockMedia) Get(ctx context.Context, id string) (media.Media, error) {
	args := m.Called(id)
	return args.Get(0).(media.Media), args.Error(1)
}

func (m *mockMedia) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type fakeNotifier struct {
	sent chan email.NewApplicant
}

func (n *fakeNotifier) NotifyNewApplicant(ctx context.Context, a email.NewApplicant) error {
	n.sent <- a
	return nil
}
