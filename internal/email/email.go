package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.sendinblue.com"

type Client struct {
	noReplyAddress string
	siteName       string
	siteURL        string
	client         *http.Client
	apiKey         string
	baseURL        string
	policy         *bluemonday.Policy
}

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type EmailMessage struct {
	Sender      Address   `json:"sender"`
	To          []Address `json:"to"`
	Subject     string    `json:"subject"`
	HtmlContent string    `json:"htmlContent,omitempty"`
}

// NewApplicant describes an application the recruiter gets notified about.
type NewApplicant struct {
	RecruiterName  string
	RecruiterEmail string
	JobID          string
	JobTitle       string
	ApplicantName  string
	ApplicantEmail string
	ResumeLink     string
}

// NewClient returns a client that sends nothing when apiKey is empty.
func NewClient(apiKey, noReplyAddress, siteName, siteURL string) Client {
	return Client{
		client:         &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		siteName:       siteName,
		siteURL:        siteURL,
		noReplyAddress: noReplyAddress,
		baseURL:        defaultBaseURL,
		policy:         bluemonday.StrictPolicy(),
	}
}

// WithBaseURL points the client at another API host.
func (e Client) WithBaseURL(baseURL string) Client {
	e.baseURL = baseURL
	return e
}

func (e Client) Enabled() bool {
	return e.apiKey != ""
}

func (e Client) NotifyNewApplicant(ctx context.Context, a NewApplicant) error {
	if !e.Enabled() {
		return nil
	}
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>%s (%s) just applied to <a href="%s/jobs/%s">%s</a>.</p><p><a href="%s">Download resume</a></p><p>%s</p>`,
		e.policy.Sanitize(a.RecruiterName),
		e.policy.Sanitize(a.ApplicantName),
		e.policy.Sanitize(a.ApplicantEmail),
		e.siteURL,
		a.JobID,
		e.policy.Sanitize(a.JobTitle),
		a.ResumeLink,
		e.siteName,
	)
	return e.SendHTMLEmail(
		ctx,
		Address{Name: e.siteName, Email: e.noReplyAddress},
		Address{Name: a.RecruiterName, Email: a.RecruiterEmail},
		fmt.Sprintf("New applicant for %s", a.JobTitle),
		body,
	)
}

func (e Client) SendHTMLEmail(ctx context.Context, from, to Address, subject, text string) error {
	msg := EmailMessage{
		Sender:      from,
		Subject:     subject,
		To:          []Address{to},
		HtmlContent: text,
	}
	reqData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v3/smtp/email", bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("api-key", e.apiKey)
	req.Header.Add("content-type", "application/json")
	res, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "unable to send email")
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := ioutil.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return errors.Errorf("got status code %d when sending email: err %s", res.StatusCode, string(errBody))
	}
	return nil
}
