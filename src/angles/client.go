// Package angles provides a client for the Angles test-reporting REST API.
package angles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"angles-reporter/src/logger"
	"angles-reporter/src/transport"
)

const (
	// DefaultBaseURL is the REST root of a locally running Angles service.
	DefaultBaseURL = "http://127.0.0.1:3000/rest/api/v1.0/"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second
)

// Client is an Angles API client.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	log        logger.Logger
}

// Ref is a nested {_id, name} reference as returned by the API.
type Ref struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Artifact is the wire form of a build artifact.
type Artifact struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`
}

// Build is the wire form of a build.
type Build struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Team        Ref        `json:"team"`
	Environment Ref        `json:"environment"`
	Component   Ref        `json:"component"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	Start       time.Time  `json:"start,omitempty"`
}

// CreateBuild is the body of a build creation request.
type CreateBuild struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Team        string `json:"team"`
	Component   string `json:"component"`
}

// Step is the wire form of a step.
type Step struct {
	Name       string    `json:"name"`
	Expected   string    `json:"expected,omitempty"`
	Actual     string    `json:"actual,omitempty"`
	Info       string    `json:"info,omitempty"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Screenshot string    `json:"screenshot,omitempty"`
}

// Action is the wire form of an action.
type Action struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	Steps []Step    `json:"steps"`
}

// CreateExecution is the body of an execution save request.
type CreateExecution struct {
	Title   string   `json:"title"`
	Suite   string   `json:"suite"`
	Build   string   `json:"build"`
	Actions []Action `json:"actions"`
}

// Execution is the service's representation of a saved execution.
type Execution struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Suite  string `json:"suite"`
	Build  string `json:"build"`
	Status string `json:"status"`
}

// Platform is the wire form of screenshot platform details.
type Platform struct {
	PlatformName    string `json:"platformName,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	BrowserName     string `json:"browserName,omitempty"`
	BrowserVersion  string `json:"browserVersion,omitempty"`
	DeviceName      string `json:"deviceName,omitempty"`
}

// StoreScreenshot describes a screenshot upload.
type StoreScreenshot struct {
	BuildID   string
	FilePath  string
	View      string
	Timestamp time.Time
	Platform  *Platform
}

// Screenshot is the service's representation of a stored screenshot.
type Screenshot struct {
	ID        string    `json:"_id"`
	Build     string    `json:"build"`
	View      string    `json:"view"`
	Timestamp time.Time `json:"timestamp"`
	Platform  *Platform `json:"platform,omitempty"`
}

// Team is the wire form of a team.
type Team struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Components []Ref  `json:"components"`
}

// Environment is the wire form of an environment.
type Environment struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// NewClient creates a new Angles API client. An empty baseURL selects
// DefaultBaseURL and a non-positive timeout selects DefaultTimeout.
func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger.NewSilentLogger(),
	}
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(l logger.Logger) {
	if l != nil {
		c.log = l
	}
}

// CreateBuild registers a new build.
func (c *Client) CreateBuild(ctx context.Context, body CreateBuild) (*Build, error) {
	var build Build
	if err := c.doJSON(ctx, "create build", http.MethodPost, &build, body, "build"); err != nil {
		return nil, err
	}
	return &build, nil
}

// GetBuild fetches a build by ID.
func (c *Client) GetBuild(ctx context.Context, buildID string) (*Build, error) {
	const op = "get build"
	id, err := pathSegment(buildID)
	if err != nil {
		return nil, &transport.TransportError{Op: op, Err: err}
	}

	var build Build
	if err := c.doJSON(ctx, op, http.MethodGet, &build, nil, "build", id); err != nil {
		return nil, err
	}
	return &build, nil
}

// AddArtifacts appends artifacts to a build and returns the updated build.
func (c *Client) AddArtifacts(ctx context.Context, buildID string, artifacts []Artifact) (*Build, error) {
	const op = "add artifacts"
	id, err := pathSegment(buildID)
	if err != nil {
		return nil, &transport.TransportError{Op: op, Err: err}
	}
	if artifacts == nil {
		artifacts = []Artifact{}
	}

	var build Build
	if err := c.doJSON(ctx, op, http.MethodPut, &build, artifacts, "build", id, "artifacts"); err != nil {
		return nil, err
	}
	return &build, nil
}

// SaveExecution stores a complete execution.
func (c *Client) SaveExecution(ctx context.Context, body CreateExecution) (*Execution, error) {
	var exec Execution
	if err := c.doJSON(ctx, "save execution", http.MethodPost, &exec, body, "execution"); err != nil {
		return nil, err
	}
	return &exec, nil
}

// ListTeams fetches every team known to the service.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.doJSON(ctx, "list teams", http.MethodGet, &teams, nil, "team"); err != nil {
		return nil, err
	}
	return teams, nil
}

// ListEnvironments fetches every environment known to the service.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	var envs []Environment
	if err := c.doJSON(ctx, "list environments", http.MethodGet, &envs, nil, "environment"); err != nil {
		return nil, err
	}
	return envs, nil
}

// SaveScreenshot uploads the file at s.FilePath as a multipart form.
func (c *Client) SaveScreenshot(ctx context.Context, s StoreScreenshot) (*Screenshot, error) {
	const op = "save screenshot"

	body, contentType, err := screenshotForm(s)
	if err != nil {
		return nil, &transport.TransportError{Op: op, Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, body, "screenshot")
	if err != nil {
		return nil, &transport.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	var shot Screenshot
	if err := c.do(req, op, &shot); err != nil {
		return nil, err
	}
	return &shot, nil
}

func screenshotForm(s StoreScreenshot) (io.Reader, string, error) {
	f, err := os.Open(s.FilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"buildId", s.BuildID},
		{"view", s.View},
		{"timestamp", s.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
	if p := s.Platform; p != nil {
		fields = append(fields,
			[2]string{"platformName", p.PlatformName},
			[2]string{"platformVersion", p.PlatformVersion},
			[2]string{"browserName", p.BrowserName},
			[2]string{"browserVersion", p.BrowserVersion},
			[2]string{"deviceName", p.DeviceName},
		)
	}
	for _, kv := range fields {
		if kv[1] == "" {
			continue
		}
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", kv[0], err)
		}
	}

	part, err := w.CreateFormFile("screenshot", filepath.Base(s.FilePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// pathSegment escapes an ID for use as one URL path segment. Dot segments
// and empty IDs would change the resource addressed, so they are rejected.
func pathSegment(id string) (string, error) {
	switch id {
	case "", ".", "..":
		return "", fmt.Errorf("invalid ID %q", id)
	}
	return url.PathEscape(id), nil
}

// doJSON sends an optional JSON body and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, op, method string, out interface{}, in interface{}, path ...string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &transport.TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, body, path...)
	if err != nil {
		return &transport.TransportError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader, path ...string) (*http.Request, error) {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	return req, nil
}

func (c *Client) do(req *http.Request, op string, out interface{}) error {
	c.log.Debug("%s %s (request %s)", req.Method, req.URL.String(), req.Header.Get("X-Request-ID"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return &transport.TransportError{Op: op, Err: ctxErr}
		}
		return &transport.TransportError{Op: op, Err: errors.Join(transport.ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return transport.NewStatusError(op, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transport.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
