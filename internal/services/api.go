// Bearer-authenticated JSON transport shared by the hand-written API clients
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
)

// maxErrorBody bounds how much of a failed response body is kept for logs and reports.
const maxErrorBody = 4 << 10

// APIClient performs raw authenticated requests against one API root.
type APIClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for service rooted at baseURL.
func NewAPIClient(service, baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool { return IsSuccess(r.StatusCode) }

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// resolve turns a path, or an absolute URL on the same host as the API root, into a full URL.
// Absolute URLs come from pagination links; other hosts are refused so the token never leaves the API.
func (a *APIClient) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		return a.baseURL + path, nil
	}

	next, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: bad link %q", shared.ErrInvalidInput, path)
	}
	root, err := url.Parse(a.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad base url %q", shared.ErrInvalidConfig, a.baseURL)
	}
	if next.Host != root.Host {
		return "", fmt.Errorf("%w: link %q leaves %s", shared.ErrInvalidInput, path, root.Host)
	}
	return path, nil
}

// Get performs a GET request with the credential's bearer token and returns the raw response.
// Transport failures are returned as [UpstreamError] with status 0; HTTP statuses are not checked.
func (a *APIClient) Get(ctx context.Context, cred *models.Credential, path string) (*APIResponse, error) {
	if cred.Token() == "" {
		return nil, fmt.Errorf("%w: %s token is empty or invalidated", shared.ErrCredentialInvalid, a.service)
	}

	fullURL, err := a.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", cred.Header())
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: a.service, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Service: a.service, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// GetJSON performs [APIClient.Get] and decodes a 2xx body into result.
// Any other status becomes an [UpstreamError] carrying the status and body.
func (a *APIClient) GetJSON(ctx context.Context, cred *models.Credential, path string, result any) error {
	resp, err := a.Get(ctx, cred, path)
	if err != nil {
		return err
	}

	if !resp.OK() {
		body := resp.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &UpstreamError{Service: a.service, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if result == nil {
		return nil
	}
	return resp.Decode(result)
}
