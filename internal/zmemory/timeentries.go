package zmemory

import (
	"context"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
)

// ListTimeEntries returns the time entries within [from, to].
//
// Known gap: the upstream time-entries endpoint does not exist yet. Until it
// ships this returns an empty set so the timeline keeps its three-source
// shape without inventing behavior.
// TODO: call GET /api/time-entries once zmemory exposes it.
func (c *Client) ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error) {
	return []domain.TimeEntry{}, nil
}
