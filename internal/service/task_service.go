package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
	"github.com/ZhiruiFeng/zflow-gateway/internal/taskfilter"
	"github.com/ZhiruiFeng/zflow-gateway/internal/tasktree"
	"github.com/ZhiruiFeng/zflow-gateway/internal/zmemory"
)

// TaskService is the task-facing surface of the gateway.
type TaskService interface {
	Buckets(ctx context.Context, criteria taskfilter.Criteria) (taskfilter.Result, error)
	Subtree(ctx context.Context, id string) ([]domain.Task, error)
	Ancestors(ctx context.Context, id string) ([]domain.Task, error)
	Roots(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, in zmemory.TaskInput) (*domain.Task, error)
	Update(ctx context.Context, id string, in zmemory.TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskClient is the slice of the zmemory client the service needs.
type TaskClient interface {
	ListAllTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, in zmemory.TaskInput) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, in zmemory.TaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

type taskService struct {
	client TaskClient
	now    func() time.Time
}

// NewTaskService builds the task service over the upstream client.
func NewTaskService(client TaskClient) TaskService {
	return &taskService{client: client, now: time.Now}
}

// Buckets fetches the full task list and partitions it into the current,
// future, and archive views. Filtering happens here, not upstream, so the
// three buckets always come from one consistent snapshot.
func (s *taskService) Buckets(ctx context.Context, criteria taskfilter.Criteria) (taskfilter.Result, error) {
	tasks, err := s.client.ListAllTasks(ctx)
	if err != nil {
		return taskfilter.Result{}, fmt.Errorf("fetch tasks: %w", err)
	}
	return taskfilter.Partition(ctx, tasks, criteria, s.now()), nil
}

// Subtree returns the task with the given id followed by all its descendants,
// walked cycle-safely.
func (s *taskService) Subtree(ctx context.Context, id string) ([]domain.Task, error) {
	tasks, err := s.client.ListAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	idx := tasktree.NewIndex(tasks)
	root, ok := idx.Get(id)
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return append([]domain.Task{root}, idx.Descendants(id)...), nil
}

// Ancestors returns the parent chain of the task with the given id, nearest
// parent first. Breadcrumb navigation renders this top-down by reversing it.
func (s *taskService) Ancestors(ctx context.Context, id string) ([]domain.Task, error) {
	tasks, err := s.client.ListAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	idx := tasktree.NewIndex(tasks)
	if _, ok := idx.Get(id); !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return idx.Ancestors(id), nil
}

// Roots returns the top-level tasks of the snapshot, sorted by title so the
// listing is stable across refetches.
func (s *taskService) Roots(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.client.ListAllTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	roots := tasktree.NewIndex(tasks).Roots()
	sort.Slice(roots, func(i, j int) bool { return roots[i].Title < roots[j].Title })
	return roots, nil
}

func (s *taskService) Create(ctx context.Context, in zmemory.TaskInput) (*domain.Task, error) {
	return s.client.CreateTask(ctx, in)
}

func (s *taskService) Update(ctx context.Context, id string, in zmemory.TaskInput) (*domain.Task, error) {
	return s.client.UpdateTask(ctx, id, in)
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	return s.client.DeleteTask(ctx, id)
}
