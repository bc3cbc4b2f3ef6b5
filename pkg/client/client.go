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

	"golang.org/x/oauth2"

	"github.com/taskboard/taskboard/pkg/domain"
)

// Client is the task tracker API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client. A non-empty token is sent as a bearer
// credential on every request.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(token),
	}
}

func newHTTPClient(token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: 30 * time.Second}
	}
	base := &http.Client{Timeout: 30 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = 30 * time.Second
	return hc
}

// WithToken returns a client for the same server using token.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, httpClient: newHTTPClient(token)}
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

// LoginWithCredentials exchanges email and password for a session token.
func (c *Client) LoginWithCredentials(ctx context.Context, email, password string) (domain.AuthResult, error) {
	var res domain.AuthResult
	err := c.post(ctx, "/auth/login", domain.CredentialsRequest{Email: email, Password: password}, &res)
	if IsUnauthorized(err) {
		return domain.AuthResult{}, fmt.Errorf("client.LoginWithCredentials: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("client.LoginWithCredentials: %w", err)
	}
	return res, nil
}

// LoginWithToken exchanges email and a tracker API token for a session token.
func (c *Client) LoginWithToken(ctx context.Context, email, externalToken string) (domain.AuthResult, error) {
	var res domain.AuthResult
	err := c.post(ctx, "/auth/token", domain.ExternalTokenRequest{Email: email, Token: externalToken}, &res)
	if IsUnauthorized(err) {
		return domain.AuthResult{}, fmt.Errorf("client.LoginWithToken: %w", domain.ErrInvalidExternalToken)
	}
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("client.LoginWithToken: %w", err)
	}
	return res, nil
}

// FetchAssignedTasks lists the tasks assigned to the authenticated user.
func (c *Client) FetchAssignedTasks(ctx context.Context) ([]domain.Task, error) {
	var list domain.TaskList
	if err := c.get(ctx, "/api/issues", &list); err != nil {
		return nil, fmt.Errorf("client.FetchAssignedTasks: %w", err)
	}
	return list.Issues, nil
}

// UpdateTask sends the changed fields of a task and returns the full task.
func (c *Client) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	var task domain.Task
	if err := c.doRequest(ctx, http.MethodPut, "/api/issues/"+url.PathEscape(id), upd, &task); err != nil {
		return domain.Task{}, fmt.Errorf("client.UpdateTask: %w", err)
	}
	return task, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr), Method: method, Path: path}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error, Method: method, Path: path}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody)), Method: method, Path: path}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
