package service

import (
	"context"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/timeline"
)

// TimelineService aggregates one calendar day of timeline items.
type TimelineService interface {
	Day(ctx context.Context, date time.Time, loc *time.Location) (*timeline.Result, error)
}

type timelineService struct {
	session *timeline.Session
}

// NewTimelineService builds the timeline service. The session discards
// results that were superseded by a newer request.
func NewTimelineService(agg *timeline.Aggregator) TimelineService {
	return &timelineService{session: timeline.NewSession(agg)}
}

func (s *timelineService) Day(ctx context.Context, date time.Time, loc *time.Location) (*timeline.Result, error) {
	return s.session.AggregateDay(ctx, date, loc)
}
