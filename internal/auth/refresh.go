package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
)

const refreshTimeout = 10 * time.Second

// HTTPRefresh builds a RefreshFunc that exchanges an API key for a bearer
// token at the given endpoint. An empty refreshURL yields a func that always
// returns an empty token, which makes the manager a no-op and lets the
// gateway run against an unauthenticated upstream.
func HTTPRefresh(refreshURL, apiKey string) RefreshFunc {
	if refreshURL == "" {
		return func(ctx context.Context) (string, error) {
			return "", nil
		}
	}

	client := &http.Client{Timeout: refreshTimeout}
	return func(ctx context.Context) (string, error) {
		payload, err := json.Marshal(map[string]string{"api_key": apiKey})
		if err != nil {
			return "", fmt.Errorf("encode refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("call refresh endpoint: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("read refresh response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}

		var out struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if out.AccessToken == "" {
			return "", fmt.Errorf("refresh endpoint returned no access_token")
		}

		logger.DebugLog(ctx, "obtained fresh access token")
		return out.AccessToken, nil
	}
}
