// Package timeline merges memories, tasks, and time entries for one calendar
// day into a single chronological list with display facets.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
	"github.com/ZhiruiFeng/zflow-gateway/pkg/dataflow"
)

// MemorySource supplies memories captured in a window.
type MemorySource interface {
	ListMemories(ctx context.Context, from, to time.Time, limit int) ([]domain.Memory, error)
}

// TaskSource supplies the full task list. Tasks are not windowed: an open
// task from months ago still belongs on today's timeline.
type TaskSource interface {
	ListAllTasks(ctx context.Context) ([]domain.Task, error)
}

// TimeEntrySource supplies time entries in a window.
type TimeEntrySource interface {
	ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error)
}

// oldTaskAge marks a task as "old" on the timeline. Display hint only.
const oldTaskAge = 30 * 24 * time.Hour

// memoryFetchLimit caps one day's memory fetch.
const memoryFetchLimit = 200

// maxTagFacets truncates the tag facet list.
const maxTagFacets = 20

// FacetCount is one category or tag with its item count.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Result is one finished aggregation.
type Result struct {
	Items []domain.TimelineItem `json:"items"`
	// TotalDuration is the sum of item durations, in minutes.
	TotalDuration int          `json:"total_duration"`
	Categories    []FacetCount `json:"categories"`
	Tags          []FacetCount `json:"tags"`
}

// Aggregator fans out to the three sources and joins their records.
type Aggregator struct {
	memories MemorySource
	tasks    TaskSource
	entries  TimeEntrySource
	now      func() time.Time
}

// NewAggregator builds an Aggregator over the three sources.
func NewAggregator(memories MemorySource, tasks TaskSource, entries TimeEntrySource) *Aggregator {
	return &Aggregator{
		memories: memories,
		tasks:    tasks,
		entries:  entries,
		now:      time.Now,
	}
}

// DayRange returns the local calendar-day bounds for date in loc:
// 00:00:00.000 through 23:59:59.999.
func DayRange(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := time.Date(y, m, d, 23, 59, 59, 999000000, loc)
	return from, to
}

// AggregateDay aggregates the local calendar day containing date.
func (a *Aggregator) AggregateDay(ctx context.Context, date time.Time, loc *time.Location) (*Result, error) {
	from, to := DayRange(date, loc)
	return a.Aggregate(ctx, from, to)
}

// Aggregate fetches the three sources concurrently and merges them. The
// fetches are all-or-nothing: the first failure cancels the others and fails
// the aggregation. There is no retry and no partial result.
func (a *Aggregator) Aggregate(ctx context.Context, from, to time.Time) (*Result, error) {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		memories []domain.Memory
		tasks    []domain.Task
		entries  []domain.TimeEntry
	)

	errCh := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		var err error
		// The server query uses UTC instants; the exact local bounds are
		// re-checked client-side below.
		memories, err = a.memories.ListMemories(fctx, from.UTC(), to.UTC(), memoryFetchLimit)
		if err != nil {
			errCh <- fmt.Errorf("memories: %w", err)
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		tasks, err = a.tasks.ListAllTasks(fctx)
		if err != nil {
			errCh <- fmt.Errorf("tasks: %w", err)
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		entries, err = a.entries.ListTimeEntries(fctx, from.UTC(), to.UTC())
		if err != nil {
			errCh <- fmt.Errorf("time entries: %w", err)
			cancel()
		}
	}()

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("timeline aggregation: %w", err)
	}

	items := a.transform(ctx, memories, tasks, entries, from, to)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTime.Before(items[j].StartTime)
	})

	res := &Result{Items: items}
	res.TotalDuration = totalDuration(items)
	res.Categories = categoryFacets(items)
	res.Tags = tagFacets(items, maxTagFacets)
	return res, nil
}

func (a *Aggregator) transform(ctx context.Context, memories []domain.Memory, tasks []domain.Task, entries []domain.TimeEntry, from, to time.Time) []domain.TimelineItem {
	items := []domain.TimelineItem{}

	// Memories: the UTC window sent upstream can be lossy across zones, so
	// re-check the exact local bounds here.
	inRange := dataflow.Filter(ctx, dataflow.FromSlice(ctx, memories), func(m domain.Memory) bool {
		return !m.CapturedAt.Before(from) && !m.CapturedAt.After(to)
	})
	items = append(items, dataflow.Collect(ctx, dataflow.Map(ctx, inRange, memoryItem))...)

	// Tasks: only unfinished ones appear on the timeline.
	open := dataflow.Filter(ctx, dataflow.FromSlice(ctx, tasks), func(t domain.Task) bool {
		return t.HasContent() && t.Status.Unfinished()
	})
	now := a.now()
	items = append(items, dataflow.Collect(ctx, dataflow.Map(ctx, open, func(t domain.Task) (domain.TimelineItem, error) {
		return taskItem(t, now), nil
	}))...)

	items = append(items, dataflow.Collect(ctx, dataflow.Map(ctx, dataflow.FromSlice(ctx, entries), entryItem))...)
	return items
}

func memoryItem(m domain.Memory) (domain.TimelineItem, error) {
	meta := map[string]interface{}{}
	if m.Emotion != "" {
		meta["emotion"] = m.Emotion
	}
	if m.Mood != 0 {
		meta["mood"] = m.Mood
	}
	if m.Place != "" {
		meta["place"] = m.Place
	}
	if m.Note != "" {
		meta["note"] = m.Note
	}
	return domain.TimelineItem{
		ID:        m.ID,
		Type:      domain.ItemMemory,
		Title:     m.Title,
		StartTime: m.CapturedAt,
		Category:  m.CategoryID,
		Tags:      m.Tags,
		Metadata:  meta,
	}, nil
}

func taskItem(t domain.Task, now time.Time) domain.TimelineItem {
	meta := map[string]interface{}{
		"status":   string(t.Status),
		"priority": string(t.Priority),
		"progress": t.Progress,
	}
	if t.Assignee != "" {
		meta["assignee"] = t.Assignee
	}
	if t.DueDate != nil {
		meta["due_date"] = t.DueDate.Format(time.RFC3339)
	}
	if now.Sub(t.CreatedAt) > oldTaskAge {
		meta["is_old_task"] = true
	}
	return domain.TimelineItem{
		ID:        t.ID,
		Type:      domain.ItemTask,
		Title:     t.Title,
		StartTime: t.CreatedAt,
		Category:  t.CategoryID,
		Tags:      t.Tags,
		Metadata:  meta,
	}
}

func entryItem(e domain.TimeEntry) (domain.TimelineItem, error) {
	meta := map[string]interface{}{}
	if e.TaskID != "" {
		meta["task_id"] = e.TaskID
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}

	duration := e.Duration
	if duration == nil && e.EndTime != nil {
		minutes := int(e.EndTime.Sub(e.StartTime) / time.Minute)
		duration = &minutes
	}

	title := e.Description
	if title == "" {
		title = "Time entry"
	}
	return domain.TimelineItem{
		ID:        e.ID,
		Type:      domain.ItemTimeEntry,
		Title:     title,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Duration:  duration,
		Category:  e.CategoryID,
		Tags:      e.Tags,
		Metadata:  meta,
	}, nil
}

func totalDuration(items []domain.TimelineItem) int {
	total := 0
	for _, it := range items {
		if it.Duration != nil {
			total += *it.Duration
		}
	}
	return total
}

func categoryFacets(items []domain.TimelineItem) []FacetCount {
	counts := map[string]int{}
	for _, it := range items {
		if it.Category != "" {
			counts[it.Category]++
		}
	}
	return sortedFacets(counts, 0)
}

func tagFacets(items []domain.TimelineItem, limit int) []FacetCount {
	counts := map[string]int{}
	for _, it := range items {
		for _, tag := range it.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	return sortedFacets(counts, limit)
}

// sortedFacets orders by count descending, name ascending on ties, so the
// output is deterministic. limit 0 means unbounded.
func sortedFacets(counts map[string]int, limit int) []FacetCount {
	out := make([]FacetCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, FacetCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
