package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ZhiruiFeng/zflow-gateway/internal/logger"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service"
	"github.com/ZhiruiFeng/zflow-gateway/internal/service/serviceutils"
	"github.com/ZhiruiFeng/zflow-gateway/internal/taskfilter"
	"github.com/ZhiruiFeng/zflow-gateway/internal/zmemory"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// BucketsHandler handles GET /api/tasks/buckets.
func (h *TaskHandler) BucketsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	criteria := taskfilter.Criteria{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Priority: c.QueryParam("priority"),
		Sort:     c.QueryParam("sort"),
	}

	res, err := h.svc.Buckets(ctx, criteria)
	if err != nil {
		logger.ErrorLog(ctx, "buckets: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to load tasks", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", res)
}

// SubtreeHandler handles GET /api/tasks/:id/subtree.
func (h *TaskHandler) SubtreeHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	tasks, err := h.svc.Subtree(ctx, id)
	if err != nil {
		logger.ErrorLog(ctx, "subtree %s: %v", id, err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to load subtree", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", tasks)
}

// AncestorsHandler handles GET /api/tasks/:id/ancestors.
func (h *TaskHandler) AncestorsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	tasks, err := h.svc.Ancestors(ctx, id)
	if err != nil {
		logger.ErrorLog(ctx, "ancestors %s: %v", id, err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to load ancestors", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", tasks)
}

// RootsHandler handles GET /api/tasks/roots.
func (h *TaskHandler) RootsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	tasks, err := h.svc.Roots(ctx)
	if err != nil {
		logger.ErrorLog(ctx, "roots: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to load root tasks", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", tasks)
}

// CreateHandler handles POST /api/tasks.
func (h *TaskHandler) CreateHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var in zmemory.TaskInput
	if err := c.Bind(&in); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	if in.Title == "" {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Title is required", nil)
	}

	task, err := h.svc.Create(ctx, in)
	if err != nil {
		logger.ErrorLog(ctx, "create task: %v", err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to create task", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Task created", task)
}

// UpdateHandler handles PUT /api/tasks/:id.
func (h *TaskHandler) UpdateHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var in zmemory.TaskInput
	if err := c.Bind(&in); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	task, err := h.svc.Update(ctx, id, in)
	if err != nil {
		logger.ErrorLog(ctx, "update task %s: %v", id, err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to update task", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Task updated", task)
}

// DeleteHandler handles DELETE /api/tasks/:id.
func (h *TaskHandler) DeleteHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := h.svc.Delete(ctx, id); err != nil {
		logger.ErrorLog(ctx, "delete task %s: %v", id, err)
		return serviceutils.ResponseError(c, http.StatusBadGateway, "Failed to delete task", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Task deleted", nil)
}
