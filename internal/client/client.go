// Package client is a Go client for the documentation portal API. It holds
// no global state: every Client carries its own Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docportal-backend/internal/models"
)

// Session identifies the caller. An empty Token makes guest requests.
type Session struct {
	Token string
	Role  string
}

func (s Session) IsAdmin() bool {
	return s.Role == models.RoleAdmin
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Response   models.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Message != "" {
		return fmt.Sprintf("api returned status %d: %s: %s", e.StatusCode, e.Response.Error, e.Response.Message)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Response.Error)
}

type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func New(baseURL string, session Session) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithSession returns a copy of the client acting as session.
func (c *Client) WithSession(session Session) *Client {
	cp := *c
	cp.session = session
	return &cp
}

func (c *Client) Session() Session {
	return c.session
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*models.ProjectResponse, error) {
	var resp models.ProjectResponse
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListProjects(ctx context.Context) (*models.ProjectListResponse, error) {
	var resp models.ProjectListResponse
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetStatus(ctx context.Context, projectID string) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSections(ctx context.Context, projectID string) (*models.SectionsResponse, error) {
	var resp models.SectionsResponse
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/sections", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetFileContent(ctx context.Context, projectID, filename string) (*models.FileContentResponse, error) {
	var resp models.FileContentResponse
	path := "/projects/" + url.PathEscape(projectID) + "/files/" + url.PathEscape(filename)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Regenerate(ctx context.Context, projectID string) (*models.ProjectResponse, error) {
	var resp models.ProjectResponse
	if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/regenerate", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveSection stores an editor buffer for one section.
func (c *Client) SaveSection(ctx context.Context, projectID, sectionID, buffer string) (*models.SaveSectionResponse, error) {
	var resp models.SaveSectionResponse
	path := "/projects/" + url.PathEscape(projectID) + "/sections/" + url.PathEscape(sectionID)
	if err := c.do(ctx, http.MethodPut, path, models.SaveSectionRequest{Content: buffer}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, &apiErr.Response) != nil || apiErr.Response.Error == "" {
			apiErr.Response.Error = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
