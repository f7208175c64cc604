package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
	"github.com/ZhiruiFeng/zflow-gateway/internal/handler"
	"github.com/ZhiruiFeng/zflow-gateway/internal/taskfilter"
	"github.com/ZhiruiFeng/zflow-gateway/internal/timeline"
	"github.com/ZhiruiFeng/zflow-gateway/internal/zmemory"
)

type stubTaskService struct {
	criteria  taskfilter.Criteria
	result    taskfilter.Result
	subtree   []domain.Task
	ancestors []domain.Task
	roots     []domain.Task
	err       error
}

func (s *stubTaskService) Buckets(ctx context.Context, c taskfilter.Criteria) (taskfilter.Result, error) {
	s.criteria = c
	return s.result, s.err
}

func (s *stubTaskService) Subtree(ctx context.Context, id string) ([]domain.Task, error) {
	return s.subtree, s.err
}

func (s *stubTaskService) Ancestors(ctx context.Context, id string) ([]domain.Task, error) {
	return s.ancestors, s.err
}

func (s *stubTaskService) Roots(ctx context.Context) ([]domain.Task, error) {
	return s.roots, s.err
}

func (s *stubTaskService) Create(ctx context.Context, in zmemory.TaskInput) (*domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Task{ID: "created", Title: in.Title}, nil
}

func (s *stubTaskService) Update(ctx context.Context, id string, in zmemory.TaskInput) (*domain.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Task{ID: id, Title: in.Title}, nil
}

func (s *stubTaskService) Delete(ctx context.Context, id string) error {
	return s.err
}

type stubTimelineService struct {
	result *timeline.Result
	err    error
}

func (s *stubTimelineService) Day(ctx context.Context, date time.Time, loc *time.Location) (*timeline.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func doRequest(e *echo.Echo, method, target string, h echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	_ = h(c)
	return rec
}

func TestBucketsHandler_PassesCriteria(t *testing.T) {
	e := echo.New()
	svc := &stubTaskService{result: taskfilter.Result{
		Current: []domain.Task{{ID: "t1", Title: "Buy milk"}},
		Future:  []domain.Task{},
		Archive: []domain.Task{},
		Stats:   taskfilter.Stats{Current: 1, Total: 1, Filtered: 1},
	}}
	h := handler.NewTaskHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/tasks/buckets?category=work&search=milk&priority=high&sort=due_date", h.BucketsHandler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, taskfilter.Criteria{
		Category: "work",
		Search:   "milk",
		Priority: "high",
		Sort:     "due_date",
	}, svc.criteria)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Stats taskfilter.Stats `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data.Stats.Current)
}

func TestBucketsHandler_UpstreamFailureMapsTo502(t *testing.T) {
	e := echo.New()
	svc := &stubTaskService{err: errors.New("HTTP 500: upstream broke")}
	h := handler.NewTaskHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/tasks/buckets", h.BucketsHandler)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "upstream broke")
}

func TestSubtreeHandler(t *testing.T) {
	e := echo.New()
	svc := &stubTaskService{subtree: []domain.Task{
		{ID: "root", Title: "Root"},
		{ID: "child", Title: "Child", ParentTaskID: "root"},
	}}
	h := handler.NewTaskHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/tasks/root/subtree", h.SubtreeHandler, "id", "root")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "root", body.Data[0].ID)
}

func TestAncestorsHandler(t *testing.T) {
	e := echo.New()
	svc := &stubTaskService{ancestors: []domain.Task{
		{ID: "parent", Title: "Parent"},
		{ID: "grandparent", Title: "Grandparent"},
	}}
	h := handler.NewTaskHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/tasks/child/ancestors", h.AncestorsHandler, "id", "child")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "parent", body.Data[0].ID)
}

func TestRootsHandler(t *testing.T) {
	e := echo.New()
	svc := &stubTaskService{roots: []domain.Task{{ID: "r1", Title: "Top"}}}
	h := handler.NewTaskHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/tasks/roots", h.RootsHandler)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []domain.Task `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "r1", body.Data[0].ID)
}

func TestTimelineDayHandler(t *testing.T) {
	e := echo.New()
	dur := 30
	svc := &stubTimelineService{result: &timeline.Result{
		Items: []domain.TimelineItem{
			{ID: "e1", Type: domain.ItemTimeEntry, Title: "Standup", StartTime: time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC), Duration: &dur},
		},
		TotalDuration: 30,
	}}
	h := handler.NewTimelineHandler(svc)

	rec := doRequest(e, http.MethodGet, "/api/timeline?date=2024-06-15", h.DayHandler)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data timeline.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 30, body.Data.TotalDuration)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "e1", body.Data.Items[0].ID)
}

func TestTimelineDayHandler_BadInput(t *testing.T) {
	e := echo.New()
	h := handler.NewTimelineHandler(&stubTimelineService{result: &timeline.Result{}})

	rec := doRequest(e, http.MethodGet, "/api/timeline?date=June-15", h.DayHandler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/timeline?tz=Mars%2FOlympus", h.DayHandler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimelineDayHandler_StaleMapsTo409(t *testing.T) {
	e := echo.New()
	h := handler.NewTimelineHandler(&stubTimelineService{err: timeline.ErrStale})

	rec := doRequest(e, http.MethodGet, "/api/timeline?date=2024-06-15", h.DayHandler)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportTasksHandler_ServesWorkbook(t *testing.T) {
	e := echo.New()
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tasks := &stubTaskService{result: taskfilter.Result{
		Current: []domain.Task{{ID: "t1", Title: "Buy milk", Status: domain.StatusPending, Priority: domain.PriorityLow, DueDate: &due}},
		Future:  []domain.Task{},
		Archive: []domain.Task{},
	}}
	h := handler.NewExportHandler(tasks, &stubTimelineService{result: &timeline.Result{}})

	rec := doRequest(e, http.MethodGet, "/export/tasks.xlsx", h.TasksHandler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "tasks.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestExportTimelineHandler_ServesWorkbook(t *testing.T) {
	e := echo.New()
	tl := &stubTimelineService{result: &timeline.Result{
		Items: []domain.TimelineItem{
			{ID: "m1", Type: domain.ItemMemory, Title: "Walk", StartTime: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC), Metadata: map[string]interface{}{"emotion": "calm"}},
		},
	}}
	h := handler.NewExportHandler(&stubTaskService{}, tl)

	rec := doRequest(e, http.MethodGet, "/export/timeline.xlsx?date=2024-06-15", h.TimelineHandler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "timeline_2024-06-15.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

type fakeCache struct{ cleared bool }

func (f *fakeCache) ClearCache() { f.cleared = true }

func TestAuthClearHandler(t *testing.T) {
	e := echo.New()
	cache := &fakeCache{}
	h := handler.NewAuthHandler(cache)

	rec := doRequest(e, http.MethodPost, "/api/auth/clear", h.ClearHandler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cache.cleared)
}
