package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the HeadHunter REST API root.
	DefaultBaseURL = "https://api.hh.ru"

	// DefaultTimeout bounds every upstream call. The API itself enforces no
	// deadline, so the client does.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps response bodies read into memory.
	maxResponseBytes = 4 << 20
)

// APIError is a non-2xx answer from the hh.ru API, decoded from its standard
// error body where possible.
type APIError struct {
	Status      int
	Value       string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("hh api: status %d: %s: %s", e.Status, e.Value, e.Description)
	}
	if e.Value != "" {
		return fmt.Sprintf("hh api: status %d: %s", e.Status, e.Value)
	}
	return fmt.Sprintf("hh api: status %d", e.Status)
}

// IsUnauthorized reports whether the error is a 401/403 from the API, i.e. the
// bearer token was rejected rather than the call failing transiently.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Client talks to the hh.ru API on behalf of one bearer token.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, used by tests to point at a fake server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client bound to one bearer token. userAgent is the
// application identifier hh.ru requires on every request; requests without it
// are rejected with 400.
func NewClient(token, userAgent string, opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		token:     token,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET and decodes the JSON answer into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

// postForm issues a POST with form-encoded body and decodes the answer into
// out when out is non-nil. Several hh.ru write endpoints answer 201/204 with
// an empty body.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("HH-User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hh api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("hh api read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("hh api decode: %w", err)
	}
	return nil
}

// decodeAPIError maps the hh.ru error body shape
// {"errors":[{"type":...,"value":...}],"description":...} onto APIError.
func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var parsed struct {
		Description string `json:"description"`
		Errors      []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Description = parsed.Description
		if len(parsed.Errors) > 0 {
			apiErr.Value = parsed.Errors[0].Value
			if apiErr.Value == "" {
				apiErr.Value = parsed.Errors[0].Type
			}
		}
	}
	return apiErr
}

// Me resolves the identity behind the bearer token. A 200 answer means the
// token is live; anything else rejects it.
func (c *Client) Me(ctx context.Context) (*UserInfo, error) {
	var user UserInfo
	if err := c.get(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VacancySearchParams are the supported filters for SearchVacancies. Zero
// values are omitted from the query.
type VacancySearchParams struct {
	Text           string
	Area           string
	SalaryFrom     int
	OnlyWithSalary bool
	Experience     string
	Schedule       string
	Page           int
	PerPage        int
}

// SearchVacancies queries /vacancies with the given filters.
func (c *Client) SearchVacancies(ctx context.Context, p VacancySearchParams) (*VacancyPage, error) {
	q := url.Values{}
	if p.Text != "" {
		q.Set("text", p.Text)
	}
	if p.Area != "" {
		q.Set("area", p.Area)
	}
	if p.SalaryFrom > 0 {
		q.Set("salary", strconv.Itoa(p.SalaryFrom))
	}
	if p.OnlyWithSalary {
		q.Set("only_with_salary", "true")
	}
	if p.Experience != "" {
		q.Set("experience", p.Experience)
	}
	if p.Schedule != "" {
		q.Set("schedule", p.Schedule)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	perPage := p.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var page VacancyPage
	if err := c.get(ctx, "/vacancies", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetVacancy fetches one vacancy with its full HTML description.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	var v Vacancy
	if err := c.get(ctx, "/vacancies/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SimilarVacancies lists vacancies similar to the given one.
func (c *Client) SimilarVacancies(ctx context.Context, id string, perPage int) (*VacancyPage, error) {
	q := url.Values{}
	if perPage <= 0 || perPage > 100 {
		perPage = 10
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var page VacancyPage
	if err := c.get(ctx, "/vacancies/"+url.PathEscape(id)+"/similar_vacancies", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetEmployer fetches one employer profile.
func (c *Client) GetEmployer(ctx context.Context, id string) (*Employer, error) {
	var e Employer
	if err := c.get(ctx, "/employers/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// MyResumes lists the caller's resumes.
func (c *Client) MyResumes(ctx context.Context) (*ResumePage, error) {
	var page ResumePage
	if err := c.get(ctx, "/resumes/mine", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetResume fetches one resume.
func (c *Client) GetResume(ctx context.Context, id string) (*Resume, error) {
	var r Resume
	if err := c.get(ctx, "/resumes/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// PublishResume bumps a resume to the top of employer searches. The API
// answers 204 on success and 429 when the bump interval has not elapsed.
func (c *Client) PublishResume(ctx context.Context, id string) error {
	return c.postForm(ctx, "/resumes/"+url.PathEscape(id)+"/publish", url.Values{}, nil)
}

// Negotiations lists the caller's negotiation threads.
func (c *Client) Negotiations(ctx context.Context, page, perPage int) (*NegotiationPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var np NegotiationPage
	if err := c.get(ctx, "/negotiations", q, &np); err != nil {
		return nil, err
	}
	return &np, nil
}

// GetNegotiation fetches one negotiation thread.
func (c *Client) GetNegotiation(ctx context.Context, id string) (*Negotiation, error) {
	var n Negotiation
	if err := c.get(ctx, "/negotiations/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Apply creates a negotiation: applies to a vacancy with a resume and an
// optional cover message.
func (c *Client) Apply(ctx context.Context, vacancyID, resumeID, message string) error {
	form := url.Values{}
	form.Set("vacancy_id", vacancyID)
	form.Set("resume_id", resumeID)
	if message != "" {
		form.Set("message", message)
	}
	return c.postForm(ctx, "/negotiations", form, nil)
}

// NegotiationMessages lists the messages of one negotiation thread.
func (c *Client) NegotiationMessages(ctx context.Context, id string) (*MessagePage, error) {
	var mp MessagePage
	if err := c.get(ctx, "/negotiations/"+url.PathEscape(id)+"/messages", nil, &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

// SendNegotiationMessage posts a message into an existing negotiation.
func (c *Client) SendNegotiationMessage(ctx context.Context, id, text string) error {
	form := url.Values{}
	form.Set("message", text)
	return c.postForm(ctx, "/negotiations/"+url.PathEscape(id)+"/messages", form, nil)
}

// Areas fetches the region tree.
func (c *Client) Areas(ctx context.Context) ([]Area, error) {
	var areas []Area
	if err := c.get(ctx, "/areas", nil, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// SuggestSkills suggests key skills matching a text prefix (minimum 2 chars,
// enforced by the API).
func (c *Client) SuggestSkills(ctx context.Context, text string) ([]SkillSuggest, error) {
	q := url.Values{}
	q.Set("text", text)

	var resp struct {
		Items []SkillSuggest `json:"items"`
	}
	if err := c.get(ctx, "/suggests/skill_set", q, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
