// Package zmemory is the typed client for the upstream zmemory REST API, the
// only persistence this gateway talks to.
package zmemory

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

	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
)

// TokenProvider supplies the bearer token attached to outbound requests.
type TokenProvider interface {
	GetValidToken(ctx context.Context) (string, error)
}

// Client calls the zmemory API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient builds a Client. tokens may be nil, in which case requests are
// sent unauthenticated and the backend's 401 flows back through the normal
// error path.
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// do issues one request. A non-nil body is JSON-encoded; a non-nil out is
// filled from the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, resp.Status, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// applyAuth attaches the Authorization header when a token is available. A
// missing token is not an error here; the backend rejects unauthenticated
// requests itself.
func (c *Client) applyAuth(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil || token == "" {
		logger.DebugLog(ctx, "zmemory: proceeding without bearer token: %v", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// apiError turns a non-2xx response into one human-readable error. The
// message comes from the body's error or message field when the body is JSON,
// otherwise from the raw body, otherwise from the status line.
func apiError(statusCode int, status string, body []byte) error {
	msg := strings.TrimSpace(string(body))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}

	if msg == "" {
		msg = strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprintf("%d", statusCode)))
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, msg)
}
