// Package api is the single HTTP boundary to the JobDeck gateway. All
// response envelopes and error shapes are normalized here; nothing outside
// this package touches net/http or the wire format.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/jobdeck/jobdeck/internal/models"
)

// Config holds gateway client configuration.
type Config struct {
	// BaseURL is the gateway root, e.g. https://api.jobdeck.io.
	BaseURL string

	// Timeout bounds each individual request.
	Timeout time.Duration

	// Token supplies the bearer credential per request. Optional.
	Token TokenFunc
}

// Client talks to the JobDeck REST gateway.
type Client struct {
	base *url.URL
	http *http.Client

	// onUnauthorized fires whenever any call returns 401. The session store
	// installs its fail-closed cleanup here so the policy is global.
	onUnauthorized func()
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		base: base,
		http: newHTTPClient(cfg.Token, timeout),
	}, nil
}

// SetUnauthorizedHook installs the callback invoked on any 401 response.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// LoginResult is the payload of a successful authentication.
type LoginResult struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"user"`
}

// Login exchanges credentials for a bearer token and the authoritative
// identity record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterPayload is the request body for account creation.
type RegisterPayload struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// RegisterResult is the thinner payload the register endpoint issues: a
// token plus the server-assigned id and role, without a full user record.
type RegisterResult struct {
	Token  string      `json:"token"`
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
}

// Register creates an account and returns the issued credential.
func (c *Client) Register(ctx context.Context, payload RegisterPayload) (*RegisterResult, error) {
	var out RegisterResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity the gateway associates with the current
// credential. This is the silent revalidation call used on session restore.
func (c *Client) Me(ctx context.Context) (*models.Identity, error) {
	var out models.Identity
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListJobs fetches a page of the public job board.
func (c *Client) ListJobs(ctx context.Context, page, limit int) ([]models.Job, error) {
	var out []models.Job
	if err := c.doWithRetry(ctx, http.MethodGet, "/jobs", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSavedJobs fetches a page of the current identity's saved records.
func (c *Client) ListSavedJobs(ctx context.Context, page, limit int) ([]models.SavedRecord, error) {
	var out []models.SavedRecord
	if err := c.doWithRetry(ctx, http.MethodGet, "/jobseeker/saved-jobs", pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveJob creates a saved record for jobID and returns it. The returned
// record's own id, not the job id, is what a later unsave must reference.
func (c *Client) SaveJob(ctx context.Context, jobID string) (*models.SavedRecord, error) {
	body := map[string]string{"jobId": jobID}

	var out models.SavedRecord
	if err := c.do(ctx, http.MethodPost, "/jobseeker/saved-jobs", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnsaveJob deletes a saved record by its record id.
func (c *Client) UnsaveJob(ctx context.Context, savedRecordID string) error {
	path := "/jobseeker/saved-jobs/" + url.PathEscape(savedRecordID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// doWithRetry runs an idempotent request with exponential backoff on
// network-class failures. Mutations are never retried; a timed-out save
// might still have committed server-side.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, body, out any) error {
	operation := func() (struct{}, error) {
		err := c.do(ctx, method, path, query, body, out)
		if err != nil && !errors.Is(err, ErrNetwork) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
	return err
}

// do performs one request/response cycle against the gateway and maps the
// outcome onto the package error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil && decodeErr != io.EOF {
		if resp.StatusCode >= 400 {
			return c.statusError(resp.StatusCode, "")
		}
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	env.normalize()

	if resp.StatusCode >= 400 {
		return c.statusError(resp.StatusCode, env.Message)
	}
	if !env.ok() {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response payload: %w", err)
	}
	return nil
}

func (c *Client) statusError(status int, message string) error {
	if status == http.StatusUnauthorized && c.onUnauthorized != nil {
		log.Debug().Msg("credential rejected, firing unauthorized hook")
		c.onUnauthorized()
	}
	return &APIError{Status: status, Message: message}
}
