package handler

import (
	"net/http"
	"testing"

	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullUpdate(status string) map[string]string {
	return map[string]string{
		"jobTitle":       "Backend Intern (Go)",
		"jobDescription": "Work on the campus services in Go.",
		"status":         status,
		"jobType":        "Internship",
		"category":       "Engineering",
		"experience":     "None",
		"salary":         "1200 EUR",
		"location":       "Paris",
	}
}

func TestCreateJob(t *testing.T) {
	e := newTestEnv(t)
	recruiterID, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)

	w := e.do(http.MethodPost, "/api/v1/jobs", map[string]interface{}{
		"jobTitle":            "Data Intern",
		"jobDescription":      "<p>Crunch <b>numbers</b></p><script>alert(1)</script>",
		"keyResponsibilities": []string{" Clean data ", "Build dashboards"},
	}, recruiter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Job Created Successfully.", body["message"])
	created := body["job"].(map[string]interface{})
	assert.Equal(t, "Draft", created["status"])
	assert.Equal(t, "Data Intern", created["jobTitle"])
	assert.NotContains(t, created["jobDescription"], "<script>")
	assert.Equal(t, []interface{}{"Clean data", "Build dashboards"}, created["keyResponsibilities"])
	require.NotNil(t, created["jobDetails"])
	assert.NotEmpty(t, created["jobDetails"].(map[string]interface{})["id"])
	assert.Equal(t, recruiterID, created["createdBy"].(map[string]interface{})["id"])
	assert.Equal(t, []interface{}{}, created["appliedUsers"])
}

func TestCreateJobFromForm(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	e.media.On("Upload", "cover.png", "image/png", "campusjobs", 0).
		Return(media.Asset{ID: "c1", URL: "https://jobs.test/media/c1", MediaType: "image/png"}, nil).Once()

	w := e.doMultipart(http.MethodPost, "/api/v1/jobs", map[string]string{
		"jobTitle":            "Ops Intern",
		"jobDescription":      "Keep things running.",
		"keyResponsibilities": `["On call","Runbooks"]`,
		"jobType":             "Internship",
		"location":            "Remote",
	}, []upload{
		{field: "image", name: "cover.png", contentType: "image/png", content: pngBytes(t)},
	}, recruiter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["job"].(map[string]interface{})
	assert.Equal(t, []interface{}{"On call", "Runbooks"}, created["keyResponsibilities"])
	details := created["jobDetails"].(map[string]interface{})
	assert.Equal(t, "Internship", details["jobType"])
	assert.Equal(t, "Remote", details["location"])
	assert.Equal(t, "https://jobs.test/media/c1", details["image"])
}

func TestCreateJobWithoutResponsibilities(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)

	w := e.do(http.MethodPost, "/api/v1/jobs", map[string]string{
		"jobTitle":       "Design Intern",
		"jobDescription": "Draw things.",
	}, recruiter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{}, decode(t, w)["job"].(map[string]interface{})["keyResponsibilities"])
}

func TestCreateJobRejected(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	_, student := e.signup("Sam", "sam@uni.test", user.RoleStudent)

	tests := []struct {
		name    string
		body    map[string]interface{}
		status  int
		message string
	}{
		{"missing title", map[string]interface{}{"jobDescription": "x"}, http.StatusBadRequest, "Job title and description are required!"},
		{"blank description", map[string]interface{}{"jobTitle": "x", "jobDescription": "   "}, http.StatusBadRequest, "Job title and description are required!"},
		{"malformed responsibilities", map[string]interface{}{"jobTitle": "x", "jobDescription": "y", "keyResponsibilities": "[not json"}, http.StatusBadRequest, "Invalid responsibilities format"},
		{"empty responsibilities", map[string]interface{}{"jobTitle": "x", "jobDescription": "y", "keyResponsibilities": []string{}}, http.StatusBadRequest, "At least one responsibility is required."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/v1/jobs", tc.body, recruiter)
			assertFailure(t, w, tc.status, tc.message)
		})
	}

	valid := map[string]string{"jobTitle": "x", "jobDescription": "y"}
	assertFailure(t, e.do(http.MethodPost, "/api/v1/jobs", valid, student), http.StatusForbidden, "UnAuthorized Area!")
	assertFailure(t, e.do(http.MethodPost, "/api/v1/jobs", valid, nil), http.StatusUnauthorized, "Authentication Error!")
	assert.Empty(t, e.db.jobs)
}

func TestPublishJobIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	jobID := e.createJob(recruiter, "Backend Intern")

	for i := 0; i < 2; i++ {
		w := e.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/publish", nil, recruiter)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Published", decode(t, w)["job"].(map[string]interface{})["status"])
	}
	assert.Equal(t, job.StatusPublished, e.db.jobs[jobID].Status)
}

func TestOwnerOnlyRoutes(t *testing.T) {
	e := newTestEnv(t)
	_, owner := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	_, other := e.signup("Olga", "olga@corp.test", user.RoleRecruiter)
	_, student := e.signup("Sam", "sam@uni.test", user.RoleStudent)
	jobID := e.createJob(owner, "Backend Intern")

	w := e.do(http.MethodPatch, "/api/v1/jobs/"+jobID, fullUpdate("Draft"), other)
	assertFailure(t, w, http.StatusForbidden, "Unauthorized area!")
	w = e.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/publish", nil, other)
	assertFailure(t, w, http.StatusForbidden, "Unauthorized area!")
	w = e.doMultipart(http.MethodPatch, "/api/v1/jobs/"+jobID+"/image", nil, []upload{
		{field: "image", name: "cover.png", contentType: "image/png", content: pngBytes(t)},
	}, other)
	assertFailure(t, w, http.StatusForbidden, "Unauthorized area!")
	w = e.do(http.MethodGet, "/api/v1/jobs/"+jobID+"/applicants", nil, other)
	assertFailure(t, w, http.StatusForbidden, "Unauthorized area!")

	w = e.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/publish", nil, student)
	assertFailure(t, w, http.StatusForbidden, "UnAuthorized Area!")
	w = e.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/publish", nil, nil)
	assertFailure(t, w, http.StatusUnauthorized, "Authentication Error!")

	w = e.do(http.MethodPost, "/api/v1/jobs/unknown/publish", nil, owner)
	assertFailure(t, w, http.StatusNotFound, "Job doesn't exist")

	stored := e.db.jobs[jobID]
	assert.Equal(t, job.StatusDraft, stored.Status)
	assert.Equal(t, "Backend Intern", stored.Title)
	assert.Nil(t, stored.Details.Image)
}

func TestUpdateJob(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	jobID := e.createJob(recruiter, "Backend Intern")
	path := "/api/v1/jobs/" + jobID

	partial := fullUpdate("Draft")
	delete(partial, "salary")
	assertFailure(t, e.do(http.MethodPatch, path, partial, recruiter), http.StatusBadRequest, "All fields are required")

	assertFailure(t, e.do(http.MethodPatch, path, fullUpdate("Archived"), recruiter), http.StatusBadRequest, "status must be one of: Draft Published")

	w := e.do(http.MethodPatch, path, fullUpdate("Published"), recruiter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)["job"].(map[string]interface{})
	assert.Equal(t, "Backend Intern (Go)", updated["jobTitle"])
	assert.Equal(t, "Published", updated["status"])
	details := updated["jobDetails"].(map[string]interface{})
	assert.Equal(t, "1200 EUR", details["salary"])
	assert.Equal(t, "Paris", details["location"])

	w = e.do(http.MethodPatch, path, fullUpdate("Draft"), recruiter)
	assertFailure(t, w, http.StatusBadRequest, "A published job cannot be moved back to draft")
	assert.Equal(t, job.StatusPublished, e.db.jobs[jobID].Status)
}

func TestUpdateJobImage(t *testing.T) {
	e := newTestEnv(t)
	_, recruiter := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	jobID := e.createJob(recruiter, "Backend Intern")
	path := "/api/v1/jobs/" + jobID + "/image"

	w := e.doMultipart(http.MethodPatch, path, map[string]string{"note": "no file"}, nil, recruiter)
	assertFailure(t, w, http.StatusBadRequest, "No image file provided")

	w = e.doMultipart(http.MethodPatch, path, nil, []upload{
		{field: "image", name: "cover.gif", contentType: "image/gif", content: []byte("GIF89a not really")},
	}, recruiter)
	assertFailure(t, w, http.StatusBadRequest, "Image must be a png or jpeg file")

	e.media.On("Upload", "cover.png", "image/png", "campusjobs", 0).
		Return(media.Asset{ID: "c1", URL: "https://jobs.test/media/c1", MediaType: "image/png"}, nil).Once()
	w = e.doMultipart(http.MethodPatch, path, nil, []upload{
		{field: "image", name: "cover.png", contentType: "image/png", content: pngBytes(t)},
	}, recruiter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://jobs.test/media/c1", decode(t, w)["image"])
	require.NotNil(t, e.db.jobs[jobID].Details.Image)
	assert.Equal(t, "https://jobs.test/media/c1", *e.db.jobs[jobID].Details.Image)
}

func TestListAndGetJobs(t *testing.T) {
	e := newTestEnv(t)
	_, rita := e.signup("Rita", "rita@corp.test", user.RoleRecruiter)
	_, olga := e.signup("Olga", "olga@corp.test", user.RoleRecruiter)
	first := e.createJob(rita, "First")
	second := e.createJob(olga, "Second")
	third := e.createJob(rita, "Third")
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/v1/jobs/"+second+"/publish", nil, olga).Code)

	ids := func(w interface{}) []string {
		out := []string{}
		for _, j := range w.([]interface{}) {
			out = append(out, j.(map[string]interface{})["id"].(string))
		}
		return out
	}

	w := e.do(http.MethodGet, "/api/v1/jobs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{third, second, first}, ids(decode(t, w)["jobs"]))

	w = e.do(http.MethodGet, "/api/v1/jobs?status=Published", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{second}, ids(decode(t, w)["jobs"]))

	assertFailure(t, e.do(http.MethodGet, "/api/v1/jobs?status=Closed", nil, nil), http.StatusBadRequest, "status must be one of: Draft Published")

	w = e.do(http.MethodGet, "/api/v1/jobs/mine", nil, rita)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{third, first}, ids(decode(t, w)["jobs"]))
	assertFailure(t, e.do(http.MethodGet, "/api/v1/jobs/mine", nil, nil), http.StatusUnauthorized, "Authentication Error!")

	w = e.do(http.MethodGet, "/api/v1/jobs/"+first, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "First", decode(t, w)["job"].(map[string]interface{})["jobTitle"])

	assertFailure(t, e.do(http.MethodGet, "/api/v1/jobs/nope", nil, nil), http.StatusNotFound, "Cannot find job details")
}

func TestTextIsStoredAsTyped(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"fullName": "Sinead O'Brien",
		"email":    "sinead@corp.test",
		"password": testPassword,
		"phone":    "0644444444",
		"role":     "Recruiter",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Sinead O'Brien", decode(t, w)["user"].(map[string]interface{})["fullName"])
	recruiter := e.login("sinead@corp.test", user.RoleRecruiter)

	w = e.do(http.MethodPost, "/api/v1/jobs", map[string]interface{}{
		"jobTitle":            "R&D Engineer",
		"jobDescription":      "Pay > 50k & growth <script>alert(1)</script>",
		"keyResponsibilities": []string{"Design & build APIs"},
		"salary":              "<50k",
	}, recruiter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["job"].(map[string]interface{})
	assert.Equal(t, "R&D Engineer", created["jobTitle"])
	assert.Equal(t, "Pay > 50k & growth", created["jobDescription"])
	assert.Equal(t, []interface{}{"Design & build APIs"}, created["keyResponsibilities"])
	assert.Equal(t, "<50k", created["jobDetails"].(map[string]interface{})["salary"])
	assert.Equal(t, "Sinead O'Brien", created["createdBy"].(map[string]interface{})["fullName"])

	jobID := created["id"].(string)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/v1/jobs/"+jobID+"/publish", nil, recruiter).Code)
	w = e.do(http.MethodGet, "/api/v1/jobs/feed.rss", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "R&amp;D Engineer")
	assert.NotContains(t, w.Body.String(), "&amp;amp;")
}
