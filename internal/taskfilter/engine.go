package taskfilter

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
)

// Category filter sentinels. Anything else is treated as an exact category id.
const (
	CategoryAll           = "all"
	CategoryUncategorized = "uncategorized"
)

// Sort modes.
const (
	SortNone     = "none"
	SortPriority = "priority"
	SortDueDate  = "due_date"
)

// PriorityAll matches every priority.
const PriorityAll = "all"

// archiveWindow is how long a completed task stays in the current bucket
// before moving to the archive.
const archiveWindow = 24 * time.Hour

// Criteria is the UI filter state applied before bucketing.
type Criteria struct {
	Category string
	Search   string
	Priority string
	Sort     string
}

// Stats summarizes a partition.
type Stats struct {
	Current  int `json:"current"`
	Future   int `json:"future"`
	Archive  int `json:"archive"`
	Unknown  int `json:"unknown"`
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
}

// Result is the three mutually exclusive task buckets plus summary counts.
type Result struct {
	Current []domain.Task `json:"current"`
	Future  []domain.Task `json:"future"`
	Archive []domain.Task `json:"archive"`
	Stats   Stats         `json:"stats"`
}

// Partition filters tasks by c, splits the survivors into the current, future,
// and archive buckets relative to now, and sorts each bucket according to
// c.Sort. The input slice and its elements are never mutated; identical inputs
// with an identical now produce identical output.
//
// Tasks with an unrecognized status land in no bucket; they are counted in
// Stats.Unknown and logged so they do not vanish silently.
func Partition(ctx context.Context, tasks []domain.Task, c Criteria, now time.Time) Result {
	res := Result{
		Current: []domain.Task{},
		Future:  []domain.Task{},
		Archive: []domain.Task{},
	}
	res.Stats.Total = len(tasks)

	for _, t := range tasks {
		if !t.HasContent() {
			continue
		}
		if !matches(t, c) {
			continue
		}
		res.Stats.Filtered++

		switch bucketFor(t, now) {
		case bucketCurrent:
			res.Current = append(res.Current, t)
		case bucketFuture:
			res.Future = append(res.Future, t)
		case bucketArchive:
			res.Archive = append(res.Archive, t)
		case bucketNone:
			res.Stats.Unknown++
		}
	}

	if res.Stats.Unknown > 0 {
		logger.WarnLog(ctx, "taskfilter: %d task(s) with unrecognized status excluded from all buckets", res.Stats.Unknown)
	}

	sortBucket(res.Current, c.Sort)
	sortBucket(res.Future, c.Sort)
	sortBucket(res.Archive, c.Sort)

	res.Stats.Current = len(res.Current)
	res.Stats.Future = len(res.Future)
	res.Stats.Archive = len(res.Archive)
	return res
}

func matches(t domain.Task, c Criteria) bool {
	switch c.Category {
	case "", CategoryAll:
	case CategoryUncategorized:
		if t.CategoryID != "" {
			return false
		}
	default:
		if t.CategoryID != c.Category {
			return false
		}
	}

	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}

	if c.Priority != "" && c.Priority != PriorityAll && string(t.Priority) != c.Priority {
		return false
	}
	return true
}

type bucket int

const (
	bucketNone bucket = iota
	bucketCurrent
	bucketFuture
	bucketArchive
)

func bucketFor(t domain.Task, now time.Time) bucket {
	switch t.Status {
	case domain.StatusPending, domain.StatusInProgress:
		return bucketCurrent
	case domain.StatusOnHold:
		return bucketFuture
	case domain.StatusCancelled:
		return bucketArchive
	case domain.StatusCompleted:
		// Completed tasks linger in the current view for a day, keyed on the
		// effective completion time. Exactly 24h is still current.
		if now.Sub(t.EffectiveCompletionTime()) > archiveWindow {
			return bucketArchive
		}
		return bucketCurrent
	}
	return bucketNone
}

func sortBucket(tasks []domain.Task, mode string) {
	switch mode {
	case SortPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
		})
	case SortDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			di, dj := tasks[i].DueDate, tasks[j].DueDate
			if di == nil {
				return false // missing due dates sort last
			}
			if dj == nil {
				return true
			}
			return di.Before(*dj)
		})
	}
}
