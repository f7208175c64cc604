package zmemory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
)

// TaskQuery narrows GET /api/tasks. Zero values mean "no constraint".
type TaskQuery struct {
	Status   string
	Priority string
	Category string
	Search   string
	Limit    int
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Category != "" {
		v.Set("category_id", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListTasks fetches tasks matching q.
func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", q.values(), nil, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListAllTasks fetches the complete task list. The timeline deliberately
// queries without a date window: open tasks are candidates no matter how old
// they are.
func (c *Client) ListAllTasks(ctx context.Context) ([]domain.Task, error) {
	return c.ListTasks(ctx, TaskQuery{})
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, &task); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &task, nil
}

// TaskInput is the writable subset of a task.
type TaskInput struct {
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Status         string  `json:"status,omitempty"`
	Priority       string  `json:"priority,omitempty"`
	CategoryID     string  `json:"category_id,omitempty"`
	ParentTaskID   string  `json:"parent_task_id,omitempty"`
	Progress       *int    `json:"progress,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	CompletionDate *string `json:"completion_date,omitempty"`
}

// CreateTask creates a task and returns the server's record.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, in, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, in, &task); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}
