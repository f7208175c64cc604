package zmemory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
)

// ListMemories fetches memories captured within [from, to]. Bounds are sent
// as RFC 3339 UTC instants; limit <= 0 means the server default.
func (c *Client) ListMemories(ctx context.Context, from, to time.Time, limit int) ([]domain.Memory, error) {
	q := url.Values{}
	q.Set("captured_from", from.UTC().Format(time.RFC3339Nano))
	q.Set("captured_to", to.UTC().Format(time.RFC3339Nano))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	// The memories endpoint wraps its list, unlike /api/tasks.
	var payload struct {
		Memories []domain.Memory `json:"memories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/memories", q, nil, &payload); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return payload.Memories, nil
}
