package domain

import "time"

// TaskStatus is the lifecycle state of a task as stored by zmemory.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusOnHold     TaskStatus = "on_hold"
	StatusCancelled  TaskStatus = "cancelled"
)

// Known reports whether s is one of the statuses this gateway understands.
// Upstream may grow new statuses before we do.
func (s TaskStatus) Known() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	}
	return false
}

// Unfinished reports whether the task still needs attention.
func (s TaskStatus) Unfinished() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusOnHold
}

// TaskPriority is the user-assigned urgency of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Rank maps a priority to a sortable weight. Unknown priorities rank below low.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a user task or subtask as returned by GET /api/tasks.
type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	CategoryID     string       `json:"category_id,omitempty"`
	ParentTaskID   string       `json:"parent_task_id,omitempty"`
	Progress       int          `json:"progress"`
	Tags           []string     `json:"tags,omitempty"`
	Assignee       string       `json:"assignee,omitempty"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	CompletionDate *time.Time   `json:"completion_date,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasContent reports whether the task carries anything worth displaying.
// Records without content are skipped by every consumer, never rejected.
func (t Task) HasContent() bool {
	return t.Title != "" || t.Description != ""
}

// EffectiveCompletionTime is the instant used for the 24-hour archive
// boundary: completion_date when the server recorded one, updated_at otherwise.
func (t Task) EffectiveCompletionTime() time.Time {
	if t.CompletionDate != nil {
		return *t.CompletionDate
	}
	return t.UpdatedAt
}

// Memory is a captured journal/memory entry from GET /api/memories.
type Memory struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Note       string     `json:"note,omitempty"`
	CategoryID string     `json:"category_id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Emotion    string     `json:"emotion,omitempty"`
	Mood       int        `json:"mood,omitempty"`
	Place      string     `json:"place,omitempty"`
	CapturedAt time.Time  `json:"captured_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// TimeEntry is a tracked span of work. The upstream endpoint is not live yet;
// the type matches the agreed wire contract.
type TimeEntry struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id,omitempty"`
	Description string     `json:"description,omitempty"`
	CategoryID  string     `json:"category_id,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	// Duration in minutes when the server has already computed it.
	Duration *int `json:"duration,omitempty"`
}

// Category is display-only grouping metadata referenced by id.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// ItemType discriminates the source of a timeline item.
type ItemType string

const (
	ItemMemory    ItemType = "memory"
	ItemTask      ItemType = "task"
	ItemTimeEntry ItemType = "time_entry"
)

// TimelineItem is the normalized projection of a memory, task, or time entry
// into one common shape. Items are rebuilt on every aggregation, never stored.
type TimelineItem struct {
	ID        string     `json:"id"`
	Type      ItemType   `json:"type"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	// Duration in minutes, when the source provides or implies one.
	Duration *int                   `json:"duration,omitempty"`
	Category string                 `json:"category,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
