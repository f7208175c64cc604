package timeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrStale marks a result that finished after a newer aggregation was
// requested. Callers drop it instead of overwriting fresher state.
var ErrStale = errors.New("timeline: result superseded by a newer request")

// Session serializes aggregations by recency. Every request gets a
// monotonically increasing sequence number; a result whose request is no
// longer the latest is discarded, which closes the last-write-wins race the
// hook-based client had.
type Session struct {
	agg *Aggregator
	seq uint64
}

// NewSession wraps agg.
func NewSession(agg *Aggregator) *Session {
	return &Session{agg: agg}
}

// AggregateDay runs one aggregation and returns ErrStale if a newer request
// was issued while it was in flight.
func (s *Session) AggregateDay(ctx context.Context, date time.Time, loc *time.Location) (*Result, error) {
	id := atomic.AddUint64(&s.seq, 1)

	res, err := s.agg.AggregateDay(ctx, date, loc)
	if err != nil {
		return nil, err
	}
	if atomic.LoadUint64(&s.seq) != id {
		return nil, ErrStale
	}
	return res, nil
}
